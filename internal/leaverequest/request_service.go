package leaverequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/audit"
	"github.com/Nambirajanmani/HRMS-sub000/internal/employee"
	"github.com/Nambirajanmani/HRMS-sub000/internal/events"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance"
	balanceerrors "github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance/errors"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy"
	requesterrors "github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest/errors"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/apperror"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/contextutil"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/txutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=request_service.go -destination=mock/request_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateRequestRequest) (RequestResponse, error)
	GetAll(ctx context.Context, companyID string, filter ListFilter) ([]RequestResponse, int64, error)
	GetByID(ctx context.Context, companyID, id string) (RequestResponse, error)
	Update(ctx context.Context, companyID, actorID, id string, req UpdateRequestRequest) (RequestResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string) (RequestResponse, error)
	Reject(ctx context.Context, companyID, actorID, id, rejectionReason string) (RequestResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id, cancellationReason string) (RequestResponse, error)
	BulkApprove(ctx context.Context, companyID, actorID string, req BulkApproveRequest) (BulkApproveResponse, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	balanceRepo  leavebalance.Repository
	policyRepo   leavepolicy.Repository
	employeeRepo employee.Repository
	outbox       kafka.OutboxRepository
	auditS       audit.Sink
	logger       *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balanceRepo leavebalance.Repository,
	policyRepo leavepolicy.Repository,
	employeeRepo employee.Repository,
	outbox kafka.OutboxRepository,
	auditSink audit.Sink,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	if auditSink == nil {
		auditSink = audit.NewLogSink()
	}
	return &service{
		db:           db,
		repo:         repo,
		balanceRepo:  balanceRepo,
		policyRepo:   policyRepo,
		employeeRepo: employeeRepo,
		outbox:       outbox,
		auditS:       auditSink,
		logger:       l,
	}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateRequestRequest) (RequestResponse, error) {
	s.logger.Debug("create leave request requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("company_id", companyID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidEmployeeID
	}
	policyUUID, err := uuid.Parse(req.PolicyID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidPolicyID
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return RequestResponse{}, err
	}
	if startDate.Before(today()) {
		return RequestResponse{}, requesterrors.ErrStartDateInPast
	}
	days := DaysInclusive(startDate, endDate)

	r := &LeaveRequest{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		PolicyID:   policyUUID,
		StartDate:  startDate,
		EndDate:    endDate,
		Days:       days,
		Reason:     req.Reason,
		Status:     StatusPending,
		CreatedBy:  actorUUID,
		AppliedAt:  time.Now().UTC(),
	}

	err = txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		active, err := s.employeeRepo.IsActive(ctx, companyID, req.EmployeeID)
		if err != nil {
			return err
		}
		if !active {
			return requesterrors.ErrEmployeeNotActive
		}

		policy, err := s.policyRepo.FindByIDAndCompany(ctx, companyID, req.PolicyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return requesterrors.ErrPolicyNotActive
			}
			return err
		}
		if !policy.IsActive {
			return requesterrors.ErrPolicyNotActive
		}

		// Kunci baris balance dulu: dua pengajuan concurrent untuk
		// (employee, policy, year) yang sama terserialisasi di sini,
		// sehingga cek overlap dan saldo di bawah tidak bisa sama-sama
		// lolos. Saldo harus menutup request sejak diajukan; debit sendiri
		// baru terjadi saat approval.
		balance, err := s.balanceRepo.WithTx(tx).FindByNaturalKeyForUpdate(ctx, companyID, req.EmployeeID, req.PolicyID, startDate.Year())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return balanceerrors.ErrBalanceNotFound
			}
			return err
		}
		if balance.RemainingDays < days {
			return balanceerrors.ErrInsufficientBalance
		}

		overlap, err := qtx.HasOverlappingPeriod(ctx, companyID, req.EmployeeID, startDate, endDate, nil)
		if err != nil {
			return err
		}
		if overlap {
			return requesterrors.ErrOverlappingRequest
		}

		return qtx.Create(ctx, r)
	})
	if err != nil {
		s.logger.Warn("create leave request failed", zap.Error(err))
		return RequestResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_REQUEST_CREATED",
		Entity:    "leave_request",
		EntityID:  r.ID.String(),
		CompanyID: companyID,
		After:     mapToResponse(*r),
	})
	s.logger.Info("create leave request success",
		zap.String("leave_request_id", r.ID.String()),
		zap.Int("days", days),
	)

	return mapToResponse(*r), nil
}

func (s *service) GetAll(ctx context.Context, companyID string, filter ListFilter) ([]RequestResponse, int64, error) {
	if filter.Status != "" && !Status(filter.Status).IsValid() {
		return nil, 0, requesterrors.ErrInvalidStatusFilter
	}

	requests, total, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]RequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = mapToResponse(r)
	}
	return resp, total, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (RequestResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}

	r, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	return mapToResponse(*r), nil
}

func (s *service) Update(ctx context.Context, companyID, actorID, id string, req UpdateRequestRequest) (RequestResponse, error) {
	s.logger.Debug("update leave request requested",
		zap.String("leave_request_id", id),
		zap.String("company_id", companyID),
	)

	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}

	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return RequestResponse{}, err
	}
	if startDate.Before(today()) {
		return RequestResponse{}, requesterrors.ErrStartDateInPast
	}
	days := DaysInclusive(startDate, endDate)

	var updated LeaveRequest
	var before RequestResponse
	err = txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		r, err := qtx.FindByIDAndCompanyForUpdate(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return requesterrors.ErrRequestNotFound
			}
			return err
		}
		if r.Status != StatusPending {
			return requesterrors.ErrPendingOnlyUpdate
		}
		before = mapToResponse(*r)

		// Baris balance dikunci sebelum cek overlap, disiplin yang sama
		// dengan Create.
		balance, err := s.balanceRepo.WithTx(tx).FindByNaturalKeyForUpdate(ctx, companyID, r.EmployeeID.String(), r.PolicyID.String(), startDate.Year())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return balanceerrors.ErrBalanceNotFound
			}
			return err
		}
		// Klaim lama request ini ikut dihitung sebagai ruang yang tersedia.
		if balance.RemainingDays+r.Days < days {
			return balanceerrors.ErrInsufficientBalance
		}

		overlap, err := qtx.HasOverlappingPeriod(ctx, companyID, r.EmployeeID.String(), startDate, endDate, &id)
		if err != nil {
			return err
		}
		if overlap {
			return requesterrors.ErrOverlappingRequest
		}

		r.StartDate = startDate
		r.EndDate = endDate
		r.Days = days
		r.Reason = req.Reason

		if err := qtx.Update(ctx, r); err != nil {
			return err
		}
		updated = *r
		return nil
	})
	if err != nil {
		s.logger.Warn("update leave request failed", zap.String("leave_request_id", id), zap.Error(err))
		return RequestResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_REQUEST_UPDATED",
		Entity:    "leave_request",
		EntityID:  id,
		CompanyID: companyID,
		Before:    before,
		After:     mapToResponse(updated),
	})
	s.logger.Info("update leave request success", zap.String("leave_request_id", id))

	return mapToResponse(updated), nil
}

func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (RequestResponse, error) {
	return s.transition(ctx, companyID, actorID, id, StatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, companyID, actorID, id, rejectionReason string) (RequestResponse, error) {
	return s.transition(ctx, companyID, actorID, id, StatusRejected, &rejectionReason)
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id, cancellationReason string) (RequestResponse, error) {
	var reason *string
	if cancellationReason != "" {
		reason = &cancellationReason
	}
	return s.transition(ctx, companyID, actorID, id, StatusCancelled, reason)
}

// transition menjalankan satu perubahan status dalam SATU transaksi: baris
// request dan baris balance dikunci dulu (FOR UPDATE), baru cek transisi
// dan mutasi ledger. Dua approval concurrent untuk saldo yang sama jadi
// terserialisasi; yang kalah membaca status/saldo terbaru.
func (s *service) transition(ctx context.Context, companyID, actorID, id string, target Status, reason *string) (RequestResponse, error) {
	s.logger.Debug("transition leave request requested",
		zap.String("leave_request_id", id),
		zap.String("company_id", companyID),
		zap.String("target_status", string(target)),
	)

	if _, err := uuid.Parse(companyID); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}
	if target == StatusRejected && (reason == nil || *reason == "") {
		return RequestResponse{}, requesterrors.ErrRejectionReasonRequired
	}

	var updated LeaveRequest
	var before RequestResponse
	err = txutil.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		r, err := qtx.FindByIDAndCompanyForUpdate(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return requesterrors.ErrRequestNotFound
			}
			return err
		}
		before = mapToResponse(*r)

		if !r.Status.CanTransitionTo(target) {
			s.logger.Warn("transition leave request invalid",
				zap.String("leave_request_id", id),
				zap.String("from_status", string(r.Status)),
				zap.String("to_status", string(target)),
			)
			return requesterrors.ErrInvalidStatusTransition
		}
		fromStatus := r.Status

		now := time.Now().UTC()
		switch target {
		case StatusApproved:
			if err := s.applyBalanceDebit(ctx, tx, r); err != nil {
				return err
			}
			r.ApprovedBy = &actorUUID
			r.ApprovedAt = &now
		case StatusRejected:
			r.RejectedAt = &now
			r.RejectionReason = reason
		case StatusCancelled:
			// Membatalkan request APPROVED mengembalikan hari yang sudah
			// didebit; membatalkan PENDING tidak menyentuh ledger.
			if fromStatus == StatusApproved {
				if err := s.applyBalanceRelease(ctx, tx, r); err != nil {
					return err
				}
			}
			r.CancelledAt = &now
			r.CancellationReason = reason
		}
		r.Status = target

		if err := qtx.Update(ctx, r); err != nil {
			return err
		}
		updated = *r
		return nil
	})
	if err != nil {
		s.logger.Warn("transition leave request failed",
			zap.String("leave_request_id", id),
			zap.String("target_status", string(target)),
			zap.Error(err),
		)
		return RequestResponse{}, err
	}

	s.auditS.Record(ctx, audit.Entry{
		Actor:     actorID,
		Action:    "LEAVE_REQUEST_" + string(target),
		Entity:    "leave_request",
		EntityID:  id,
		CompanyID: companyID,
		Before:    before,
		After:     mapToResponse(updated),
	})
	s.publishDecided(ctx, &updated, actorID)
	s.logger.Info("transition leave request success",
		zap.String("leave_request_id", id),
		zap.String("status", string(target)),
	)

	return mapToResponse(updated), nil
}

func (s *service) applyBalanceDebit(ctx context.Context, tx *sql.Tx, r *LeaveRequest) error {
	btx := s.balanceRepo.WithTx(tx)

	balance, err := btx.FindByNaturalKeyForUpdate(ctx, r.CompanyID.String(), r.EmployeeID.String(), r.PolicyID.String(), r.StartDate.Year())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balanceerrors.ErrBalanceNotFound
		}
		return err
	}
	if err := balance.Reserve(r.Days); err != nil {
		return err
	}
	return btx.Update(ctx, balance)
}

func (s *service) applyBalanceRelease(ctx context.Context, tx *sql.Tx, r *LeaveRequest) error {
	btx := s.balanceRepo.WithTx(tx)

	balance, err := btx.FindByNaturalKeyForUpdate(ctx, r.CompanyID.String(), r.EmployeeID.String(), r.PolicyID.String(), r.StartDate.Year())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balanceerrors.ErrBalanceNotFound
		}
		return err
	}
	if err := balance.Release(r.Days); err != nil {
		return err
	}
	return btx.Update(ctx, balance)
}

// BulkApprove memproses approval per item, urutan sesuai kiriman. Tiap item
// transaksinya sendiri: item yang gagal dicatat di Errors tanpa membatalkan
// item yang sudah lolos.
func (s *service) BulkApprove(ctx context.Context, companyID, actorID string, req BulkApproveRequest) (BulkApproveResponse, error) {
	s.logger.Debug("bulk approve requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("company_id", companyID),
		zap.Int("items", len(req.RequestIDs)),
	)

	resp := BulkApproveResponse{
		Approved: make([]RequestResponse, 0, len(req.RequestIDs)),
		Errors:   make([]BulkApproveError, 0),
	}

	for _, id := range req.RequestIDs {
		approved, err := s.Approve(ctx, companyID, actorID, id)
		if err != nil {
			code, message := projectError(err)
			resp.Errors = append(resp.Errors, BulkApproveError{
				ID:      id,
				Code:    code,
				Message: message,
			})
			continue
		}
		resp.Approved = append(resp.Approved, approved)
	}

	resp.Summary = BulkApproveSummary{
		Total:    len(req.RequestIDs),
		Approved: len(resp.Approved),
		Failed:   len(resp.Errors),
	}
	s.logger.Info("bulk approve done",
		zap.Int("total", resp.Summary.Total),
		zap.Int("approved", resp.Summary.Approved),
		zap.Int("failed", resp.Summary.Failed),
	)

	return resp, nil
}

func (s *service) publishDecided(ctx context.Context, r *LeaveRequest, actorID string) {
	event := events.LeaveRequestDecidedEvent{
		EventType:  "leave.request.decided",
		RequestID:  r.ID.String(),
		EmployeeID: r.EmployeeID.String(),
		CompanyID:  r.CompanyID.String(),
		Status:     string(r.Status),
		Days:       r.Days,
		DecidedBy:  actorID,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal decided event failed", zap.Error(err))
		return
	}

	outboxEvent := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   r.ID.String(),
		EventType:     event.EventType,
		Topic:         events.LeaveRequestTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if err := s.outbox.Create(ctx, outboxEvent); err != nil {
		s.logger.Error("enqueue decided event failed",
			zap.String("leave_request_id", r.ID.String()),
			zap.Error(err),
		)
	}
}

func projectError(err error) (code, message string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	return apperror.CodeInternalError, err.Error()
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, requesterrors.ErrInvalidDateRange
	}
	return startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, requesterrors.ErrInvalidDateFormat
	}
	return t, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func mapToResponse(r LeaveRequest) RequestResponse {
	resp := RequestResponse{
		ID:         r.ID.String(),
		CompanyID:  r.CompanyID.String(),
		EmployeeID: r.EmployeeID.String(),
		PolicyID:   r.PolicyID.String(),
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		Days:       r.Days,
		Reason:     r.Reason,
		Status:     string(r.Status),
		CreatedBy:  r.CreatedBy.String(),
		AppliedAt:  r.AppliedAt.Format(time.RFC3339),
	}
	if r.ApprovedBy != nil {
		v := r.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if r.ApprovedAt != nil {
		v := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if r.RejectedAt != nil {
		v := r.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &v
	}
	if r.CancelledAt != nil {
		v := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &v
	}
	resp.RejectionReason = r.RejectionReason
	resp.CancellationReason = r.CancellationReason
	return resp
}
