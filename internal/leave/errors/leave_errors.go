package leaveerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	// ErrInvalidDateFormat is also an ErrInvalidDateRange.
	ErrInvalidDateFormat = apperror.Wrap(
		ErrInvalidDateRange,
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrOwnerNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave owner not found",
		http.StatusNotFound,
	)
	ErrApproverNotRequired = apperror.New(
		apperror.CodeForbidden,
		"your role is not required to act on this leave",
		http.StatusForbidden,
	)
	ErrInvalidState = apperror.New(
		apperror.CodeInvalidState,
		"only pending leaves can be cancelled",
		http.StatusConflict,
	)
	ErrCancelForbidden = apperror.New(
		apperror.CodeForbidden,
		"only the requester or an admin can cancel this leave",
		http.StatusForbidden,
	)
	ErrConcurrentModification = apperror.New(
		apperror.CodeConflict,
		"leave was modified by another request, retry",
		http.StatusConflict,
	)
)
