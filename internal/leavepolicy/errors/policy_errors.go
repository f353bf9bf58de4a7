package policyerrors

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
	ErrInvalidPolicyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid policy id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		"INVALID_LEAVE_TYPE",
		"leave_type is not a recognized leave type",
		http.StatusBadRequest,
	)
	ErrInvalidDaysAllowed = apperror.New(
		apperror.CodeInvalidInput,
		"days_allowed must be zero or positive",
		http.StatusBadRequest,
	)
	ErrMaxCarryForwardRequired = apperror.New(
		apperror.CodeInvalidInput,
		"max_carry_forward is required when carry_forward is enabled",
		http.StatusBadRequest,
	)
	ErrMaxCarryForwardNotAllowed = apperror.New(
		apperror.CodeInvalidInput,
		"max_carry_forward must be zero when carry_forward is disabled",
		http.StatusBadRequest,
	)
	ErrPolicyNotFound = apperror.New(
		"POLICY_NOT_FOUND",
		"leave policy not found",
		http.StatusNotFound,
	)
	ErrPolicyInactive = apperror.New(
		"POLICY_INACTIVE",
		"leave policy is no longer active",
		http.StatusUnprocessableEntity,
	)
	ErrPolicyAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"an active policy for this leave type already exists",
		http.StatusConflict,
	)
)
