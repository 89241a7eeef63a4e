package app

import (
	"database/sql"
	"net/http"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/config"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the shared connections of one process.
type Infra struct {
	GormDB *gorm.DB
	DB     *sql.DB
	Redis  *redis.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
}

func connectInfra(cfg *config.Config, withRedis bool) (*Infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	infra := &Infra{GormDB: gormDB, DB: sqlDB}
	if withRedis {
		rdb, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		infra.Redis = rdb
	}
	return infra, nil
}

// BuildApp connects storage, applies migrations when enabled and mounts
// every module under /api/v1. The caller closes the returned Infra.
func BuildApp(router *gin.Engine, cfg *config.Config) (*Infra, error) {
	logger := zap.L().Named("app")

	infra, err := connectInfra(cfg, true)
	if err != nil {
		return nil, err
	}
	logger.Info("database and redis connections established")

	if cfg.Server.MigrateOnStart {
		if err := connection.RunMigrations(infra.DB); err != nil {
			infra.Close()
			return nil, err
		}
	}

	router.Use(middleware.ContextLogger(zap.L()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if err := registerModules(router, cfg, infra); err != nil {
		infra.Close()
		return nil, err
	}

	return infra, nil
}
