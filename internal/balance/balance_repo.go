package balance

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByUser(ctx context.Context, userID string) ([]LeaveBalance, error)
	// FindForUpdate locks the counter row until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, userID, category string) (*LeaveBalance, error)
	Update(ctx context.Context, b *LeaveBalance) error
	// CreateMany inserts counters, leaving existing ones untouched.
	CreateMany(ctx context.Context, rows []LeaveBalance) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: connection.GormWithTx(r.db, tx)}
}

func (r *repository) FindByUser(ctx context.Context, userID string) ([]LeaveBalance, error) {
	var rows []LeaveBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindForUpdate(ctx context.Context, userID, category string) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND category = ?", userID, category).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Update(ctx context.Context, b *LeaveBalance) error {
	return r.db.WithContext(ctx).
		Model(&LeaveBalance{}).
		Where("user_id = ? AND category = ?", b.UserID, b.Category).
		Updates(map[string]any{
			"days":       b.Days,
			"updated_at": b.UpdatedAt,
		}).Error
}

func (r *repository) CreateMany(ctx context.Context, rows []LeaveBalance) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].UpdatedAt.IsZero() {
			rows[i].UpdatedAt = now
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
