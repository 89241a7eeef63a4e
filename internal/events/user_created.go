package events

import "time"

const UserLifecycleTopic = "hr.user.lifecycle.v1"

const EventTypeUserCreated = "user_created"

type UserCreatedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}
