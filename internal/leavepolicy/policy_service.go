package leavepolicy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/audit"
	policyerrors "github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy/errors"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/contextutil"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/txutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const PolicyOptionsKeyPrefix = "leave:policies:options:"

func GetPolicyOptionsKey(companyID string) string {
	return PolicyOptionsKeyPrefix + companyID
}

//go:generate mockgen -source=policy_service.go -destination=mock/policy_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreatePolicyRequest) (PolicyResponse, error)
	GetAll(ctx context.Context, companyID string, activeOnly bool) ([]PolicyResponse, error)
	GetOptions(ctx context.Context, companyID string) ([]PolicyOption, error)
	GetByID(ctx context.Context, companyID, id string) (PolicyResponse, error)
	Update(ctx context.Context, companyID, actorID, id string, req UpdatePolicyRequest) (PolicyResponse, error)
	Deactivate(ctx context.Context, companyID, actorID, id string) (PolicyResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	auditS audit.Sink
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, auditSink audit.Sink, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavepolicy.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavepolicy.service")
	}
	if auditSink == nil {
		auditSink = audit.NewLogSink()
	}
	return &service{
		db:     db,
		repo:   repo,
		auditS: auditSink,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreatePolicyRequest) (PolicyResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create policy requested",
		zap.String("request_id", rid),
		zap.String("company_id", companyID),
		zap.String("leave_type", req.LeaveType),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidCompanyID
	}
	if err := validatePolicyFields(req.LeaveType, req.DaysAllowed, req.CarryForward, req.MaxCarryForward); err != nil {
		s.logger.Warn("create policy validation failed", zap.Error(err))
		return PolicyResponse{}, err
	}

	p := &LeavePolicy{
		ID:              uuid.New(),
		CompanyID:       companyUUID,
		LeaveType:       req.LeaveType,
		DaysAllowed:     req.DaysAllowed,
		CarryForward:    req.CarryForward,
		MaxCarryForward: req.MaxCarryForward,
		IsActive:        true,
	}

	err = txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		exists, err := qtx.HasActiveForType(ctx, companyID, req.LeaveType)
		if err != nil {
			return err
		}
		if exists {
			return policyerrors.ErrPolicyAlreadyExists
		}

		return qtx.Create(ctx, p)
	})
	if err != nil {
		s.logger.Warn("create policy failed", zap.String("request_id", rid), zap.Error(err))
		return PolicyResponse{}, err
	}

	s.invalidateOptionsCache(ctx, companyID)
	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_POLICY_CREATED",
		Entity:    "leave_policy",
		EntityID:  p.ID.String(),
		CompanyID: companyID,
		After:     mapToResponse(*p),
	})
	s.logger.Info("create policy success",
		zap.String("policy_id", p.ID.String()),
		zap.String("leave_type", p.LeaveType),
	)

	return mapToResponse(*p), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, activeOnly bool) ([]PolicyResponse, error) {
	policies, err := s.repo.FindAllByCompany(ctx, companyID, activeOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]PolicyResponse, len(policies))
	for i, p := range policies {
		resp[i] = mapToResponse(p)
	}
	return resp, nil
}

// GetOptions melayani dropdown client: cache di Redis, pengisian cache
// digabung dengan singleflight supaya stampede tidak menghantam database.
func (s *service) GetOptions(ctx context.Context, companyID string) ([]PolicyOption, error) {
	cacheKey := GetPolicyOptionsKey(companyID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var options []PolicyOption
			if err := json.Unmarshal([]byte(cached), &options); err == nil {
				return options, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		policies, err := s.repo.FindAllByCompany(ctx, companyID, true)
		if err != nil {
			return nil, err
		}

		options := make([]PolicyOption, len(policies))
		for i, p := range policies {
			options[i] = PolicyOption{
				ID:          p.ID.String(),
				LeaveType:   p.LeaveType,
				DaysAllowed: p.DaysAllowed,
			}
		}

		if s.rdb != nil {
			if payload, err := json.Marshal(options); err == nil {
				s.rdb.Set(ctx, cacheKey, payload, 10*time.Minute)
			}
		}

		return options, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]PolicyOption), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (PolicyResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidPolicyID
	}

	p, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PolicyResponse{}, policyerrors.ErrPolicyNotFound
		}
		return PolicyResponse{}, err
	}
	return mapToResponse(*p), nil
}

func (s *service) Update(ctx context.Context, companyID, actorID, id string, req UpdatePolicyRequest) (PolicyResponse, error) {
	s.logger.Debug("update policy requested",
		zap.String("company_id", companyID),
		zap.String("policy_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidPolicyID
	}

	var updated LeavePolicy
	var before PolicyResponse
	err := txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		p, err := qtx.FindByIDAndCompany(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return policyerrors.ErrPolicyNotFound
			}
			return err
		}
		before = mapToResponse(*p)

		if req.DaysAllowed != nil {
			p.DaysAllowed = *req.DaysAllowed
		}
		if req.CarryForward != nil {
			p.CarryForward = *req.CarryForward
		}
		if req.MaxCarryForward != nil {
			p.MaxCarryForward = *req.MaxCarryForward
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}

		if err := validatePolicyFields(p.LeaveType, p.DaysAllowed, p.CarryForward, p.MaxCarryForward); err != nil {
			return err
		}

		if err := qtx.Update(ctx, p); err != nil {
			return err
		}
		updated = *p
		return nil
	})
	if err != nil {
		s.logger.Warn("update policy failed", zap.String("policy_id", id), zap.Error(err))
		return PolicyResponse{}, err
	}

	s.invalidateOptionsCache(ctx, companyID)
	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_POLICY_UPDATED",
		Entity:    "leave_policy",
		EntityID:  id,
		CompanyID: companyID,
		Before:    before,
		After:     mapToResponse(updated),
	})
	s.logger.Info("update policy success", zap.String("policy_id", id))

	return mapToResponse(updated), nil
}

// Deactivate mematikan policy tanpa menghapusnya; riwayat ledger yang
// menunjuk policy ini tetap valid.
func (s *service) Deactivate(ctx context.Context, companyID, actorID, id string) (PolicyResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidPolicyID
	}

	var updated LeavePolicy
	err := txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		p, err := qtx.FindByIDAndCompany(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return policyerrors.ErrPolicyNotFound
			}
			return err
		}

		p.IsActive = false
		if err := qtx.Update(ctx, p); err != nil {
			return err
		}
		updated = *p
		return nil
	})
	if err != nil {
		return PolicyResponse{}, err
	}

	s.invalidateOptionsCache(ctx, companyID)
	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_POLICY_DEACTIVATED",
		Entity:    "leave_policy",
		EntityID:  id,
		CompanyID: companyID,
		After:     mapToResponse(updated),
	})

	return mapToResponse(updated), nil
}

func (s *service) invalidateOptionsCache(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, GetPolicyOptionsKey(companyID)).Err(); err != nil {
		s.logger.Warn("invalidate policy options cache failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
	}
}

func validatePolicyFields(leaveType string, daysAllowed int, carryForward bool, maxCarryForward int) error {
	if !IsValidLeaveType(leaveType) {
		return policyerrors.ErrInvalidLeaveType
	}
	if daysAllowed < 0 {
		return policyerrors.ErrInvalidDaysAllowed
	}
	if carryForward && maxCarryForward <= 0 {
		return policyerrors.ErrMaxCarryForwardRequired
	}
	if !carryForward && maxCarryForward != 0 {
		return policyerrors.ErrMaxCarryForwardNotAllowed
	}
	return nil
}

func mapToResponse(p LeavePolicy) PolicyResponse {
	return PolicyResponse{
		ID:              p.ID.String(),
		CompanyID:       p.CompanyID.String(),
		LeaveType:       p.LeaveType,
		DaysAllowed:     p.DaysAllowed,
		CarryForward:    p.CarryForward,
		MaxCarryForward: p.MaxCarryForward,
		IsActive:        p.IsActive,
	}
}
