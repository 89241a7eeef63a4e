package balanceerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"insufficient leave balance",
		http.StatusUnprocessableEntity,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
	ErrInvalidDebit = apperror.New(
		apperror.CodeInvalidInput,
		"debit must be at least one day",
		http.StatusBadRequest,
	)
)

type InsufficientBalanceDetails struct {
	LeaveType string          `json:"leave_type"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// Insufficient builds the error reported to callers when a debit cannot be
// covered. errors.Is(err, ErrInsufficientBalance) holds for the result.
func Insufficient(leaveType string, required, available decimal.Decimal) *apperror.AppError {
	return ErrInsufficientBalance.WithDetails(InsufficientBalanceDetails{
		LeaveType: leaveType,
		Required:  required,
		Available: available,
	})
}
