package leave

import (
	"time"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/user"
)

const DefaultShortLeaveMaxDays = 2

// ApprovalPolicy decides which roles must sign off a leave from its length.
type ApprovalPolicy struct {
	ShortLeaveMaxDays int
}

func NewApprovalPolicy(shortLeaveMaxDays int) ApprovalPolicy {
	if shortLeaveMaxDays < 1 {
		shortLeaveMaxDays = DefaultShortLeaveMaxDays
	}
	return ApprovalPolicy{ShortLeaveMaxDays: shortLeaveMaxDays}
}

// Compute returns the required approver roles. Short leaves need both hr
// and manager, in any order; longer ones need the manager only.
func (p ApprovalPolicy) Compute(start, end time.Time) ([]string, error) {
	if start.IsZero() || end.IsZero() {
		return nil, leaveerrors.ErrInvalidDateRange
	}

	maxDays := p.ShortLeaveMaxDays
	if maxDays < 1 {
		maxDays = DefaultShortLeaveMaxDays
	}

	if DayCount(start, end) <= maxDays {
		return []string{user.RoleHR.String(), user.RoleManager.String()}, nil
	}
	return []string{user.RoleManager.String()}, nil
}

// DayCount is the inclusive number of calendar days between start and end.
// Time of day is ignored and the result is never below 1.
func DayCount(start, end time.Time) int {
	s := dateOnly(start)
	e := dateOnly(end)

	// Unix seconds, not e.Sub(s): a Duration saturates after ~292 years.
	days := int((e.Unix()-s.Unix())/secondsPerDay) + 1
	if days < 1 {
		return 1
	}
	return days
}

const secondsPerDay = 24 * 60 * 60

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
