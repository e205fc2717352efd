package common

import (
	"github.com/gin-gonic/gin"
)

// OK writes payload as-is, the way the legal-assistant API answers.
func OK(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Fail writes a FastAPI style error body and aborts the chain.
func Fail(c *gin.Context, status int, code string, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"detail": gin.H{
			"error_code":    code,
			"error_message": msg,
		},
	})
}
