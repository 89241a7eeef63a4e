package balance

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	tokens middleware.TokenParser,
	rbacService middleware.RBACService,
) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware(tokens))
	{
		balances.GET("/me", middleware.RBACAuthorize(rbacService, "balance", "read_own"), handler.GetMine)
		balances.GET("/:user_id", middleware.RBACAuthorize(rbacService, "balance", "read_any"), handler.GetByUser)
	}
}
