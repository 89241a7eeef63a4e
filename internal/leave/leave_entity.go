package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Leave struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferenceNo string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_leaves_reference_no"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_user_dates"`

	LeaveType string    `gorm:"type:varchar(30);not null"`
	StartDate time.Time `gorm:"type:date;not null;index:idx_leaves_user_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leaves_user_dates"`
	TotalDays int       `gorm:"type:int;not null"`
	Reason    string    `gorm:"type:text"`

	Status string `gorm:"type:varchar(20);not null;index:idx_leaves_status"`
	// RequiredApprovals holds the roles still to sign off. Empty once the
	// leave is approved or rejected.
	RequiredApprovals pq.StringArray `gorm:"type:text[];not null"`
	RejectionReason   *string        `gorm:"type:text"`
	DecidedAt         *time.Time

	Version   int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leaves_deleted_at"`
}

func (Leave) TableName() string {
	return "leaves"
}

func (l Leave) IsTerminal() bool {
	return l.Status == StatusApproved || l.Status == StatusRejected
}
