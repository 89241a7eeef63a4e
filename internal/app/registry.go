package app

import (
	"go-leave/internal/auth"
	"go-leave/internal/balance"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/rbac"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/config"
	"go-leave/internal/shared/counter"
	"go-leave/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func registerModules(router *gin.Engine, cfg *config.Config, in *Infra) error {
	logger := zap.L()
	categories := balance.NewCategories(cfg.Leave.Categories)

	if err := leave.RegisterValidations(categories.Names()); err != nil {
		return err
	}

	// --- Repositories ---
	userRepo := user.NewRepository(in.GormDB)
	balanceRepo := balance.NewRepository(in.GormDB)
	leaveRepo := leave.NewRepository(in.GormDB)
	counterRepo := counter.NewRepository(in.GormDB)
	outboxRepo := kafka.NewOutboxRepository(in.DB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(rbac.NewStaticPolicy(), enforcer, logger)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	// --- Services ---
	ledger := balance.NewLedger(in.DB, balanceRepo, categories, in.Redis, logger)
	userService := user.NewService(in.DB, userRepo, ledger, outboxRepo, logger)
	leaveService := leave.NewService(
		in.DB,
		leaveRepo,
		userRepo,
		ledger,
		counterRepo,
		outboxRepo,
		leave.NewApprovalPolicy(cfg.Leave.ShortLeaveMaxDays),
		logger,
	)
	authService := auth.NewService(userRepo, tokens, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, gin.Mode() == gin.ReleaseMode, logger)
	userHandler := user.NewHandler(userService, logger)
	balanceHandler := balance.NewHandler(ledger, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, tokens)
		user.RegisterRoutes(api, userHandler, tokens, rbacService)
		balance.RegisterRoutes(api, balanceHandler, tokens, rbacService)
		leave.RegisterRoutes(api, leaveHandler, tokens, rbacService, in.Redis)
		rbac.RegisterRoutes(api, rbacHandler, tokens, rbacService)
	}

	return nil
}
