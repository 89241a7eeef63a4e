package config_test

import (
	"testing"
	"time"

	"go-leave/internal/shared/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAllotments(t *testing.T) {
	t.Run("success keeps order and lower-cases", func(t *testing.T) {
		got, err := config.ParseAllotments("Casual:12, sick:10.5,earned")
		assert.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, "casual", got[0].Category)
		assert.True(t, decimal.NewFromInt(12).Equal(got[0].Days))
		assert.True(t, decimal.RequireFromString("10.5").Equal(got[1].Days))
		assert.True(t, got[2].Days.IsZero())
	})

	t.Run("duplicate category", func(t *testing.T) {
		_, err := config.ParseAllotments("casual:1,CASUAL:2")
		assert.Error(t, err)
	})

	t.Run("negative allotment", func(t *testing.T) {
		_, err := config.ParseAllotments("casual:-1")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := config.ParseAllotments(" , ")
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("LEAVE_CATEGORIES", "")
		t.Setenv("LEAVE_SHORT_MAX_DAYS", "")
		t.Setenv("JWT_TTL", "")

		cfg, err := config.Load()
		assert.NoError(t, err)
		assert.Equal(t, 2, cfg.Leave.ShortLeaveMaxDays)
		assert.Len(t, cfg.Leave.Categories, 3)
		assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("JWT_SECRET", "")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("invalid short leave threshold", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("LEAVE_SHORT_MAX_DAYS", "0")

		_, err := config.Load()
		assert.Error(t, err)
	})
}
