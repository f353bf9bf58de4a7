package balanceerrors

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
	ErrInvalidBalanceID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid balance id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year is out of the accepted range",
		http.StatusBadRequest,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be positive",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		"BALANCE_NOT_FOUND",
		"leave balance not found",
		http.StatusNotFound,
	)
	ErrDuplicateBalance = apperror.New(
		"DUPLICATE_BALANCE",
		"a balance for this employee, policy and year already exists",
		http.StatusConflict,
	)
	ErrCarryForwardNotAllowed = apperror.New(
		"CARRY_FORWARD_NOT_ALLOWED",
		"this policy does not allow carry-forward days",
		http.StatusUnprocessableEntity,
	)
	ErrCarryForwardExceedsLimit = apperror.New(
		"CARRY_FORWARD_EXCEEDS_LIMIT",
		"carry-forward days exceed the policy limit",
		http.StatusUnprocessableEntity,
	)
	ErrNegativeBalanceNotAllowed = apperror.New(
		"NEGATIVE_BALANCE_NOT_ALLOWED",
		"the adjustment would make the remaining balance negative",
		http.StatusUnprocessableEntity,
	)
	ErrInsufficientBalance = apperror.New(
		"INSUFFICIENT_BALANCE",
		"insufficient remaining leave balance",
		http.StatusUnprocessableEntity,
	)
	ErrInsufficientBalanceForUpdate = apperror.New(
		"INSUFFICIENT_BALANCE_FOR_UPDATE",
		"the update would leave the balance unable to cover committed requests",
		http.StatusUnprocessableEntity,
	)
	ErrReleaseExceedsUsage = apperror.New(
		apperror.CodeInvalidState,
		"cannot release more days than are currently used",
		http.StatusUnprocessableEntity,
	)
	ErrAdjustmentReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required for a non-zero adjustment",
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
	ErrBulkValidationFailed = apperror.New(
		"VALIDATION_FAILED",
		"one or more items in the batch are invalid",
		http.StatusUnprocessableEntity,
	)
	ErrBulkConflict = apperror.New(
		"DUPLICATE_BALANCE",
		"one or more balances already exist and overwrite_existing is false",
		http.StatusConflict,
	)
)
