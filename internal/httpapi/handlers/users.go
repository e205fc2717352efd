package handlers

import (
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi/middleware"
	"github.com/suPer8Hu/legal-assistant/internal/models"
	"gorm.io/gorm"
)

const minPasswordLen = 8

// generate a 11 digit random username
func randomUsername11() (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	out := make([]byte, 11)
	for i := 0; i < 11; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		out[i] = letters[n.Int64()]
	}
	return string(out), nil
}

func profileOf(u models.User) api.Profile {
	return api.Profile{
		ID:        u.ExternalID,
		Email:     u.Email,
		Username:  u.Username,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) session(c *gin.Context, status int, u models.User) {
	token, err := auth.SignJWT(u.ExternalID, h.Cfg.JWTSecret, h.Cfg.TokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "TOKEN_SIGN_FAILED", "failed to sign token")
		return
	}
	common.OK(c, status, api.Session{Token: token, Type: "bearer", User: profileOf(u)})
}

func (h *Handler) Register(c *gin.Context) {
	var req api.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, "INVALID_EMAIL", "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		common.Fail(c, http.StatusUnprocessableEntity, "WEAK_PASSWORD", "password must be at least 8 characters")
		return
	}

	ctx := c.Request.Context()
	var cnt int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&cnt).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "failed to check email")
		return
	}
	if cnt > 0 {
		common.Fail(c, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "HASH_FAILED", "failed to hash password")
		return
	}

	// generate username to avoid conflict
	var username string
	for i := 0; i < 5; i++ {
		u, err := randomUsername11()
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, "USERNAME_FAILED", "failed to generate username")
			return
		}
		if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", u).Count(&cnt).Error; err != nil {
			common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "failed to check username")
			return
		}
		if cnt == 0 {
			username = u
			break
		}
	}
	if username == "" {
		common.Fail(c, http.StatusInternalServerError, "USERNAME_FAILED", "failed to allocate username")
		return
	}

	user := models.User{
		ExternalID:   uuid.NewString(),
		Email:        req.Email,
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		common.Fail(c, http.StatusConflict, "CREATE_FAILED", "failed to create user (maybe email already exists)")
		return
	}
	h.Log.WithField("user_id", user.ExternalID).Info("user registered")
	h.session(c, http.StatusCreated, user)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "db error")
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	h.session(c, http.StatusOK, user)
}

func (h *Handler) Me(c *gin.Context) {
	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("external_id = ?", middleware.UserID(c)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "USER_NOT_FOUND", "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "db error")
		return
	}
	common.OK(c, http.StatusOK, profileOf(user))
}
