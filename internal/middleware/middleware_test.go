package middleware_test

import (
	"github.com/gin-gonic/gin"

	"go-leave/internal/shared/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
	apperror.Init()
}

func withActor(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}
