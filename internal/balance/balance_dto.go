package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

type BalanceResponse struct {
	UserID    string                     `json:"user_id"`
	Counters  map[string]decimal.Decimal `json:"counters"`
	UpdatedAt string                     `json:"updated_at,omitempty"`
}

func ToResponse(b Balance) BalanceResponse {
	resp := BalanceResponse{
		UserID:   b.UserID,
		Counters: b.Counters,
	}
	if resp.Counters == nil {
		resp.Counters = map[string]decimal.Decimal{}
	}
	if !b.UpdatedAt.IsZero() {
		resp.UpdatedAt = b.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
