package balance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	BalanceCacheKeyPrefix = "leave:balance:"
	balanceCacheTTL       = 10 * time.Minute
)

func GetBalanceCacheKey(userID string) string {
	return BalanceCacheKeyPrefix + userID
}

// Ledger owns every leave balance counter. Debit is the only operation that
// lowers a counter.
//
//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Ledger interface {
	// WithTx returns a ledger whose reads and writes join tx. The caller
	// commits and calls Invalidate afterwards.
	WithTx(tx *sql.Tx) Ledger
	ResolveCategory(leaveType string) (string, error)
	Categories() []string
	Debit(ctx context.Context, userID, leaveType string, days int) (Balance, error)
	Provision(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (Balance, error)
	Invalidate(ctx context.Context, userID string)
}

type ledger struct {
	db         *sql.DB
	tx         *sql.Tx
	repo       Repository
	categories Categories
	rdb        *redis.Client
	sf         *singleflight.Group
	logger     *zap.Logger
}

func NewLedger(db *sql.DB, repo Repository, categories Categories, rdb *redis.Client, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("balance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.ledger")
	}
	return &ledger{
		db:         db,
		repo:       repo,
		categories: categories,
		rdb:        rdb,
		sf:         &singleflight.Group{},
		logger:     l,
	}
}

func (s *ledger) WithTx(tx *sql.Tx) Ledger {
	cp := *s
	cp.tx = tx
	cp.repo = s.repo.WithTx(tx)
	return &cp
}

func (s *ledger) ResolveCategory(leaveType string) (string, error) {
	name, ok := s.categories.Resolve(leaveType)
	if !ok {
		return "", balanceerrors.ErrUnknownLeaveType
	}
	return name, nil
}

func (s *ledger) Categories() []string {
	return s.categories.Names()
}

// withinTx runs fn on the caller's transaction when there is one, otherwise
// on a transaction of its own.
func (s *ledger) withinTx(ctx context.Context, fn func(repo Repository) error) error {
	if s.tx != nil {
		return fn(s.repo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(s.repo.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *ledger) Debit(ctx context.Context, userID, leaveType string, days int) (Balance, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	category, err := s.ResolveCategory(leaveType)
	if err != nil {
		log.Warn("debit unknown leave type",
			zap.String("user_id", userID),
			zap.String("leave_type", leaveType),
		)
		return Balance{}, err
	}
	if days < 1 {
		return Balance{}, balanceerrors.ErrInvalidDebit
	}
	required := decimal.NewFromInt(int64(days))

	var updated Balance
	err = s.withinTx(ctx, func(repo Repository) error {
		row, err := repo.FindForUpdate(ctx, userID, category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return balanceerrors.Insufficient(category, required, decimal.Zero)
			}
			return err
		}

		if row.Days.LessThan(required) {
			return balanceerrors.Insufficient(category, required, row.Days)
		}

		row.Days = row.Days.Sub(required)
		row.UpdatedAt = time.Now().UTC()
		if err := repo.Update(ctx, row); err != nil {
			return err
		}

		rows, err := repo.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		updated = fromRows(userID, rows)
		return nil
	})
	if err != nil {
		if errors.Is(err, balanceerrors.ErrInsufficientBalance) {
			log.Warn("debit insufficient balance",
				zap.String("user_id", userID),
				zap.String("category", category),
				zap.Int("required", days),
			)
		} else {
			log.Error("debit failed", zap.String("user_id", userID), zap.Error(err))
		}
		return Balance{}, err
	}

	// Inside a caller transaction the commit is still pending, so the caller
	// invalidates once it lands.
	if s.tx == nil {
		s.Invalidate(ctx, userID)
	}

	log.Info("debit applied",
		zap.String("user_id", userID),
		zap.String("category", category),
		zap.Int("days", days),
		zap.String("remaining", updated.Available(category).String()),
	)
	return updated, nil
}

func (s *ledger) Provision(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return balanceerrors.ErrInvalidUserID
	}

	defaults := s.categories.Defaults()
	rows := make([]LeaveBalance, 0, len(defaults))
	for _, a := range defaults {
		rows = append(rows, LeaveBalance{UserID: uid, Category: a.Category, Days: a.Days})
	}

	if err := s.repo.CreateMany(ctx, rows); err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("provision balance failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}

	if s.tx == nil {
		s.Invalidate(ctx, userID)
	}
	return nil
}

func (s *ledger) Get(ctx context.Context, userID string) (Balance, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return Balance{}, balanceerrors.ErrInvalidUserID
	}

	cacheKey := GetBalanceCacheKey(userID)
	if s.rdb != nil && s.tx == nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var b Balance
			if json.Unmarshal([]byte(cached), &b) == nil {
				return b, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		rows, err := s.repo.FindByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, balanceerrors.ErrBalanceNotFound
		}

		b := fromRows(userID, rows)
		if s.rdb != nil && s.tx == nil {
			if data, err := json.Marshal(b); err == nil {
				s.rdb.Set(ctx, cacheKey, data, balanceCacheTTL)
			}
		}
		return b, nil
	})
	if err != nil {
		return Balance{}, err
	}

	return v.(Balance), nil
}

func (s *ledger) Invalidate(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetBalanceCacheKey(userID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance cache",
			zap.String("key", cacheKey),
			zap.Error(err),
		)
	}
}
