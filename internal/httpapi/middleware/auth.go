package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/common"
)

const UserIDKey = "user_id"

// AuthRequired accepts `Authorization: Bearer <jwt>` signed with secret and
// stores the subject under UserIDKey.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			common.Fail(c, http.StatusUnauthorized, "AUTH_REQUIRED", "missing bearer token")
			return
		}
		uid, err := auth.ParseJWT(token, secret)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			common.Fail(c, http.StatusUnauthorized, "AUTH_INVALID", msg)
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
