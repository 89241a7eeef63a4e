package middleware

import (
	"errors"
	"strings"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// TokenParser validates a bearer token and returns the identity it carries.
// Errors should be autherrors values.
type TokenParser interface {
	ParseToken(token string) (userID, role string, err error)
}

func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Abort(c, autherrors.ErrTokenMissing)
			return
		}

		userID, role, err := parser.ParseToken(tokenString)
		if err != nil {
			errObj := autherrors.ErrInvalidToken
			if errors.Is(err, autherrors.ErrTokenExpired) {
				errObj = autherrors.ErrTokenExpired
			}
			response.Abort(c, errObj)
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)

		ctx := c.Request.Context()
		logger := contextutil.GetLogger(ctx, zap.L()).With(
			zap.String("user_id", userID),
			zap.String("role", role),
		)
		ctx = contextutil.WithUserID(ctx, userID)
		ctx = contextutil.WithRole(ctx, role)
		ctx = contextutil.WithLogger(ctx, logger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Actor returns the identity AuthMiddleware stored on c.
func Actor(c *gin.Context) (userID, role string) {
	return c.GetString(ContextUserID), c.GetString(ContextRole)
}
