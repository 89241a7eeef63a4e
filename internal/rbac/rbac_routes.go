package rbac

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens middleware.TokenParser, service Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware(tokens))
	{
		group.GET("/permissions/me", handler.MyPermissions)
		group.POST("/enforce", middleware.RBACAuthorize(service, "rbac", "read"), handler.Enforce)
	}
}
