package requesterrors

import (
	"net/http"

	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidPolicyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid policy id",
		http.StatusBadRequest,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status filter is not a valid leave request status",
		http.StatusBadRequest,
	)
	ErrStartDateInPast = apperror.New(
		"START_DATE_IN_PAST",
		"start_date cannot be in the past",
		http.StatusUnprocessableEntity,
	)
	ErrRequestNotFound = apperror.New(
		"REQUEST_NOT_FOUND",
		"leave request not found",
		http.StatusNotFound,
	)
	ErrOverlappingRequest = apperror.New(
		"OVERLAPPING_REQUEST",
		"an active leave request already covers part of this period",
		http.StatusConflict,
	)
	ErrInvalidStatusTransition = apperror.New(
		"INVALID_STATUS_TRANSITION",
		"leave request status transition is not allowed",
		http.StatusUnprocessableEntity,
	)
	ErrPendingOnlyUpdate = apperror.New(
		"INVALID_STATUS_TRANSITION",
		"only PENDING requests can be updated",
		http.StatusUnprocessableEntity,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting a request",
		http.StatusBadRequest,
	)
	ErrEmployeeNotActive = apperror.New(
		"EMPLOYEE_NOT_ACTIVE",
		"employee is not active in this company",
		http.StatusUnprocessableEntity,
	)
	ErrPolicyNotActive = apperror.New(
		"POLICY_NOT_ACTIVE",
		"leave policy is not active",
		http.StatusUnprocessableEntity,
	)
)
