package leavebalance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nambirajanmani/HRMS-sub000/internal/audit"
	"github.com/Nambirajanmani/HRMS-sub000/internal/employee"
	balanceerrors "github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance/errors"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/apperror"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/contextutil"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/txutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minYear = 2000
	maxYear = 2100
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateBalanceRequest) (BalanceResponse, error)
	GetAll(ctx context.Context, companyID string, filter ListFilter) ([]BalanceResponse, int64, error)
	GetByID(ctx context.Context, companyID, id string) (BalanceResponse, error)
	ApplyAdjustment(ctx context.Context, companyID, actorID, id string, req AdjustBalanceRequest) (BalanceResponse, error)
	UpdateAllocation(ctx context.Context, companyID, actorID, id string, req UpdateBalanceRequest) (BalanceResponse, error)
	BulkCreate(ctx context.Context, companyID, actorID string, req BulkCreateBalancesRequest) (BulkCreateBalancesResponse, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	policyRepo   leavepolicy.Repository
	employeeRepo employee.Repository
	auditS       audit.Sink
	logger       *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	policyRepo leavepolicy.Repository,
	employeeRepo employee.Repository,
	auditSink audit.Sink,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	if auditSink == nil {
		auditSink = audit.NewLogSink()
	}
	return &service{
		db:           db,
		repo:         repo,
		policyRepo:   policyRepo,
		employeeRepo: employeeRepo,
		auditS:       auditSink,
		logger:       l,
	}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateBalanceRequest) (BalanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create balance requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("policy_id", req.PolicyID),
		zap.Int("year", req.Year),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	policyUUID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidPolicyID
	}
	if req.Year < minYear || req.Year > maxYear {
		return BalanceResponse{}, balanceerrors.ErrInvalidYear
	}

	b := &LeaveBalance{
		ID:               uuid.New(),
		CompanyID:        companyUUID,
		EmployeeID:       employeeUUID,
		PolicyID:         policyUUID,
		Year:             req.Year,
		AllocatedDays:    req.AllocatedDays,
		CarryForwardDays: req.CarryForwardDays,
		AdjustmentDays:   req.AdjustmentDays,
		UsedDays:         0,
	}
	b.Recompute()
	if b.RemainingDays < 0 {
		return BalanceResponse{}, balanceerrors.ErrNegativeBalanceNotAllowed
	}
	if req.AdjustmentDays != 0 && req.Reason == "" {
		return BalanceResponse{}, balanceerrors.ErrAdjustmentReasonRequired
	}

	err = txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		if err := s.validateReferences(ctx, companyID, req.EmployeeID, req.PolicyID, req.CarryForwardDays); err != nil {
			return err
		}

		if _, err := qtx.FindByNaturalKey(ctx, companyID, req.EmployeeID, req.PolicyID, req.Year); err == nil {
			return balanceerrors.ErrDuplicateBalance
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return mapRepositoryError(qtx.Create(ctx, b))
	})
	if err != nil {
		s.logger.Warn("create balance failed", zap.String("request_id", rid), zap.Error(err))
		return BalanceResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_BALANCE_CREATED",
		Entity:    "leave_balance",
		EntityID:  b.ID.String(),
		CompanyID: companyID,
		After:     mapToResponse(*b),
	})
	s.logger.Info("create balance success",
		zap.String("balance_id", b.ID.String()),
		zap.Int("remaining_days", b.RemainingDays),
	)

	return mapToResponse(*b), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, filter ListFilter) ([]BalanceResponse, int64, error) {
	balances, total, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp, total, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (BalanceResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidBalanceID
	}

	b, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return BalanceResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*b), nil
}

func (s *service) ApplyAdjustment(ctx context.Context, companyID, actorID, id string, req AdjustBalanceRequest) (BalanceResponse, error) {
	s.logger.Debug("apply adjustment requested",
		zap.String("company_id", companyID),
		zap.String("balance_id", id),
		zap.Int("delta_days", req.DeltaDays),
	)

	if _, err := uuid.Parse(id); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidBalanceID
	}
	if req.DeltaDays != 0 && req.Reason == "" {
		return BalanceResponse{}, balanceerrors.ErrAdjustmentReasonRequired
	}

	var updated LeaveBalance
	var before BalanceResponse
	err := txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		b, err := qtx.FindByIDAndCompanyForUpdate(ctx, companyID, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		before = mapToResponse(*b)

		if err := b.Adjust(req.DeltaDays); err != nil {
			return err
		}

		if err := qtx.Update(ctx, b); err != nil {
			return err
		}
		updated = *b
		return nil
	})
	if err != nil {
		s.logger.Warn("apply adjustment failed", zap.String("balance_id", id), zap.Error(err))
		return BalanceResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_BALANCE_ADJUSTED",
		Entity:    "leave_balance",
		EntityID:  id,
		CompanyID: companyID,
		Before:    before,
		After:     mapToResponse(updated),
	})
	s.logger.Info("apply adjustment success",
		zap.String("balance_id", id),
		zap.Int("delta_days", req.DeltaDays),
		zap.String("reason", req.Reason),
		zap.Int("remaining_days", updated.RemainingDays),
	)

	return mapToResponse(updated), nil
}

// UpdateAllocation adalah koreksi administratif. Sebelum commit dihitung
// ulang remaining; kalau hasilnya tidak lagi menutup hari request PENDING
// yang masih berjalan, update ditolak supaya ledger tidak over-committed.
func (s *service) UpdateAllocation(ctx context.Context, companyID, actorID, id string, req UpdateBalanceRequest) (BalanceResponse, error) {
	s.logger.Debug("update allocation requested",
		zap.String("company_id", companyID),
		zap.String("balance_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidBalanceID
	}

	var updated LeaveBalance
	var before BalanceResponse
	err := txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		b, err := qtx.FindByIDAndCompanyForUpdate(ctx, companyID, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		before = mapToResponse(*b)

		if req.AllocatedDays != nil {
			b.AllocatedDays = *req.AllocatedDays
		}
		if req.CarryForwardDays != nil {
			b.CarryForwardDays = *req.CarryForwardDays
		}
		if req.AdjustmentDays != nil {
			b.AdjustmentDays = *req.AdjustmentDays
		}
		if req.UsedDays != nil {
			b.UsedDays = *req.UsedDays
		}
		b.Recompute()

		if b.RemainingDays < 0 {
			return balanceerrors.ErrNegativeBalanceNotAllowed
		}

		if req.CarryForwardDays != nil {
			policy, err := s.policyRepo.FindByIDAndCompany(ctx, companyID, b.PolicyID.String())
			if err != nil {
				return mapRepositoryError(err)
			}
			if err := validateCarryForward(policy, b.CarryForwardDays); err != nil {
				return err
			}
		}

		pendingDays, err := qtx.SumPendingRequestDays(ctx, companyID, b.EmployeeID.String(), b.PolicyID.String(), b.Year)
		if err != nil {
			return err
		}
		if b.RemainingDays < pendingDays {
			return balanceerrors.ErrInsufficientBalanceForUpdate
		}

		if err := qtx.Update(ctx, b); err != nil {
			return err
		}
		updated = *b
		return nil
	})
	if err != nil {
		s.logger.Warn("update allocation failed", zap.String("balance_id", id), zap.Error(err))
		return BalanceResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_BALANCE_UPDATED",
		Entity:    "leave_balance",
		EntityID:  id,
		CompanyID: companyID,
		Before:    before,
		After:     mapToResponse(updated),
	})
	s.logger.Info("update allocation success", zap.String("balance_id", id))

	return mapToResponse(updated), nil
}

// BulkCreate memprovisikan banyak balance sekaligus. Validasi mengumpulkan
// SEMUA pelanggaran dulu; kalau bersih, seluruh batch jalan dalam satu
// transaksi all-or-nothing (kontras dengan bulk approval yang per item).
func (s *service) BulkCreate(ctx context.Context, companyID, actorID string, req BulkCreateBalancesRequest) (BulkCreateBalancesResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("bulk create balances requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.Int("year", req.Year),
		zap.Int("items", len(req.Items)),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return BulkCreateBalancesResponse{}, balanceerrors.ErrInvalidCompanyID
	}
	if req.Year < minYear || req.Year > maxYear {
		return BulkCreateBalancesResponse{}, balanceerrors.ErrInvalidYear
	}

	violations := s.validateBulkItems(ctx, companyID, req.Items)
	if len(violations) > 0 {
		s.logger.Warn("bulk create balances validation failed",
			zap.String("request_id", rid),
			zap.Int("violations", len(violations)),
		)
		return BulkCreateBalancesResponse{}, balanceerrors.ErrBulkValidationFailed.WithDetails(violations)
	}

	created := make([]BalanceResponse, 0, len(req.Items))
	overwritten := 0
	err = txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		for _, item := range req.Items {
			_, err := qtx.FindByNaturalKey(ctx, companyID, item.EmployeeID, item.PolicyID, req.Year)
			switch {
			case err == nil:
				if !req.OverwriteExisting {
					return balanceerrors.ErrBulkConflict
				}
				if err := qtx.DeleteByNaturalKey(ctx, companyID, item.EmployeeID, item.PolicyID, req.Year); err != nil {
					return err
				}
				overwritten++
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}

			b := &LeaveBalance{
				ID:               uuid.New(),
				CompanyID:        companyUUID,
				EmployeeID:       uuid.MustParse(item.EmployeeID),
				PolicyID:         uuid.MustParse(item.PolicyID),
				Year:             req.Year,
				AllocatedDays:    item.AllocatedDays,
				CarryForwardDays: item.CarryForwardDays,
			}
			b.Recompute()

			if err := qtx.Create(ctx, b); err != nil {
				return mapRepositoryError(err)
			}
			created = append(created, mapToResponse(*b))
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("bulk create balances failed", zap.String("request_id", rid), zap.Error(err))
		return BulkCreateBalancesResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_BALANCES_BULK_CREATED",
		Entity:    "leave_balance",
		EntityID:  fmt.Sprintf("year:%d", req.Year),
		CompanyID: companyID,
		After:     BulkSummary{Total: len(req.Items), Created: len(created), Overwritten: overwritten},
	})
	s.logger.Info("bulk create balances success",
		zap.String("request_id", rid),
		zap.Int("created", len(created)),
		zap.Int("overwritten", overwritten),
	)

	return BulkCreateBalancesResponse{
		Created: created,
		Summary: BulkSummary{Total: len(req.Items), Created: len(created), Overwritten: overwritten},
	}, nil
}

// validateBulkItems mengumpulkan semua pelanggaran batch, bukan gagal di
// pelanggaran pertama, supaya admin bisa memperbaiki sekali jalan.
func (s *service) validateBulkItems(ctx context.Context, companyID string, items []BulkBalanceItem) []BulkViolation {
	var violations []BulkViolation

	appendViolation := func(i int, item BulkBalanceItem, err error) {
		httpErr := fromAppError(err)
		violations = append(violations, BulkViolation{
			Index:      i,
			EmployeeID: item.EmployeeID,
			PolicyID:   item.PolicyID,
			Code:       httpErr.code,
			Message:    httpErr.message,
		})
	}

	for i, item := range items {
		active, err := s.employeeRepo.IsActive(ctx, companyID, item.EmployeeID)
		if err != nil {
			appendViolation(i, item, err)
			continue
		}
		if !active {
			appendViolation(i, item, balanceerrors.ErrEmployeeNotActive)
		}

		policy, err := s.policyRepo.FindByIDAndCompany(ctx, companyID, item.PolicyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				appendViolation(i, item, balanceerrors.ErrPolicyNotActive)
			} else {
				appendViolation(i, item, err)
			}
			continue
		}
		if !policy.IsActive {
			appendViolation(i, item, balanceerrors.ErrPolicyNotActive)
			continue
		}

		if err := validateCarryForward(policy, item.CarryForwardDays); err != nil {
			appendViolation(i, item, err)
		}
	}

	return violations
}

func (s *service) validateReferences(ctx context.Context, companyID, employeeID, policyID string, carryForwardDays int) error {
	active, err := s.employeeRepo.IsActive(ctx, companyID, employeeID)
	if err != nil {
		return err
	}
	if !active {
		return balanceerrors.ErrEmployeeNotActive
	}

	policy, err := s.policyRepo.FindByIDAndCompany(ctx, companyID, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balanceerrors.ErrPolicyNotActive
		}
		return err
	}
	if !policy.IsActive {
		return balanceerrors.ErrPolicyNotActive
	}

	return validateCarryForward(policy, carryForwardDays)
}

func validateCarryForward(policy *leavepolicy.LeavePolicy, days int) error {
	if days == 0 {
		return nil
	}
	if !policy.CarryForward {
		return balanceerrors.ErrCarryForwardNotAllowed
	}
	if days > policy.MaxCarryForward {
		return balanceerrors.ErrCarryForwardExceedsLimit
	}
	return nil
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		ID:               b.ID.String(),
		CompanyID:        b.CompanyID.String(),
		EmployeeID:       b.EmployeeID.String(),
		PolicyID:         b.PolicyID.String(),
		Year:             b.Year,
		AllocatedDays:    b.AllocatedDays,
		CarryForwardDays: b.CarryForwardDays,
		AdjustmentDays:   b.AdjustmentDays,
		UsedDays:         b.UsedDays,
		RemainingDays:    b.RemainingDays,
	}
}

type errProjection struct {
	code    string
	message string
}

func fromAppError(err error) errProjection {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return errProjection{code: appErr.Code, message: appErr.Message}
	}
	return errProjection{code: apperror.CodeInternalError, message: err.Error()}
}
