package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	EventTypeLeaveApproved  = "leave_approved"
	EventTypeLeaveRejected  = "leave_rejected"
	EventTypeLeaveCancelled = "leave_cancelled"
)

// LeaveDecidedEvent is emitted once per leave when it leaves the pending
// state, whichever way it goes.
type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	UserID     string    `json:"user_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalDays  int       `json:"total_days"`
	DecidedBy  string    `json:"decided_by,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
