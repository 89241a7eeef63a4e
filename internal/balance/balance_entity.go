package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is one counter of a user's allotment. A user owns one row per
// configured category.
type LeaveBalance struct {
	UserID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Category  string          `gorm:"type:varchar(30);primaryKey"`
	Days      decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// Balance is the read model of every counter a user holds.
type Balance struct {
	UserID    string                     `json:"user_id"`
	Counters  map[string]decimal.Decimal `json:"counters"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Available returns the counter for category, zero when absent.
func (b Balance) Available(category string) decimal.Decimal {
	if v, ok := b.Counters[category]; ok {
		return v
	}
	return decimal.Zero
}

func fromRows(userID string, rows []LeaveBalance) Balance {
	b := Balance{
		UserID:   userID,
		Counters: make(map[string]decimal.Decimal, len(rows)),
	}
	for _, r := range rows {
		b.Counters[r.Category] = r.Days
		if r.UpdatedAt.After(b.UpdatedAt) {
			b.UpdatedAt = r.UpdatedAt
		}
	}
	return b
}
