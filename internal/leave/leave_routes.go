package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	tokens middleware.TokenParser,
	rbacService middleware.RBACService,
	rdb *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware(tokens))
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)

		leaves.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			middleware.Idempotency(rdb),
			handler.Create,
		)
		leaves.POST("/:id/approve",
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			middleware.Idempotency(rdb),
			handler.Approve,
		)
		leaves.POST("/:id/reject",
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			middleware.Idempotency(rdb),
			handler.Reject,
		)
		leaves.DELETE("/:id",
			middleware.RBACAuthorize(rbacService, "leave", "cancel"),
			handler.Cancel,
		)
	}
}
