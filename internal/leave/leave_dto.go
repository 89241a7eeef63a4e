package leave

import "go-leave/internal/balance"

type CreateLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required,leave_type"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"max=1000"`
}

type RejectLeaveRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type LeaveResponse struct {
	ID                string   `json:"id"`
	ReferenceNo       string   `json:"reference_no"`
	UserID            string   `json:"user_id"`
	UserName          string   `json:"user_name,omitempty"`
	LeaveType         string   `json:"leave_type"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	TotalDays         int      `json:"total_days"`
	Reason            string   `json:"reason"`
	Status            string   `json:"status"`
	RequiredApprovals []string `json:"required_approvals"`
	RejectionReason   *string  `json:"rejection_reason,omitempty"`
	DecidedAt         *string  `json:"decided_at,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

// ApprovalResult carries the owner's balance when the approval was final.
type ApprovalResult struct {
	Leave   LeaveResponse            `json:"leave"`
	Balance *balance.BalanceResponse `json:"balance,omitempty"`
}
