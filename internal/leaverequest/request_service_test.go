package leaverequest_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance"
	balanceerrors "github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance/errors"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest"
	requesterrors "github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest/errors"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRequestRepository struct {
	withTxFn                      func(tx *sql.Tx) leaverequest.Repository
	createFn                      func(ctx context.Context, r *leaverequest.LeaveRequest) error
	findAllByCompanyFn            func(ctx context.Context, companyID string, filter leaverequest.ListFilter) ([]leaverequest.LeaveRequest, int64, error)
	findByIDAndCompanyFn          func(ctx context.Context, companyID, id string) (*leaverequest.LeaveRequest, error)
	findByIDAndCompanyForUpdateFn func(ctx context.Context, companyID, id string) (*leaverequest.LeaveRequest, error)
	updateFn                      func(ctx context.Context, r *leaverequest.LeaveRequest) error
	hasOverlappingPeriodFn        func(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error)
}

func (f *fakeRequestRepository) WithTx(tx *sql.Tx) leaverequest.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRequestRepository) Create(ctx context.Context, r *leaverequest.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, r)
	}
	return nil
}

func (f *fakeRequestRepository) FindAllByCompany(ctx context.Context, companyID string, filter leaverequest.ListFilter) ([]leaverequest.LeaveRequest, int64, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID, filter)
	}
	return nil, 0, nil
}

func (f *fakeRequestRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leaverequest.LeaveRequest, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRequestRepository) FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*leaverequest.LeaveRequest, error) {
	if f.findByIDAndCompanyForUpdateFn != nil {
		return f.findByIDAndCompanyForUpdateFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRequestRepository) Update(ctx context.Context, r *leaverequest.LeaveRequest) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, r)
	}
	return nil
}

func (f *fakeRequestRepository) HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error) {
	if f.hasOverlappingPeriodFn != nil {
		return f.hasOverlappingPeriodFn(ctx, companyID, employeeID, startDate, endDate, excludeID)
	}
	return false, nil
}

type fakeBalanceRepository struct {
	findByNaturalKeyFn          func(ctx context.Context, companyID, employeeID, policyID string, year int) (*leavebalance.LeaveBalance, error)
	findByNaturalKeyForUpdateFn func(ctx context.Context, companyID, employeeID, policyID string, year int) (*leavebalance.LeaveBalance, error)
	updateFn                    func(ctx context.Context, b *leavebalance.LeaveBalance) error
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) leavebalance.Repository { return f }

func (f *fakeBalanceRepository) Create(ctx context.Context, b *leavebalance.LeaveBalance) error {
	return nil
}

func (f *fakeBalanceRepository) FindAllByCompany(ctx context.Context, companyID string, filter leavebalance.ListFilter) ([]leavebalance.LeaveBalance, int64, error) {
	return nil, 0, nil
}

func (f *fakeBalanceRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leavebalance.LeaveBalance, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*leavebalance.LeaveBalance, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) FindByNaturalKey(ctx context.Context, companyID, employeeID, policyID string, year int) (*leavebalance.LeaveBalance, error) {
	if f.findByNaturalKeyFn != nil {
		return f.findByNaturalKeyFn(ctx, companyID, employeeID, policyID, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) FindByNaturalKeyForUpdate(ctx context.Context, companyID, employeeID, policyID string, year int) (*leavebalance.LeaveBalance, error) {
	if f.findByNaturalKeyForUpdateFn != nil {
		return f.findByNaturalKeyForUpdateFn(ctx, companyID, employeeID, policyID, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) Update(ctx context.Context, b *leavebalance.LeaveBalance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, b)
	}
	return nil
}

func (f *fakeBalanceRepository) DeleteByNaturalKey(ctx context.Context, companyID, employeeID, policyID string, year int) error {
	return nil
}

func (f *fakeBalanceRepository) SumPendingRequestDays(ctx context.Context, companyID, employeeID, policyID string, year int) (int, error) {
	return 0, nil
}

type fakePolicyRepository struct {
	findByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*leavepolicy.LeavePolicy, error)
}

func (f *fakePolicyRepository) WithTx(tx *sql.Tx) leavepolicy.Repository { return f }

func (f *fakePolicyRepository) Create(ctx context.Context, p *leavepolicy.LeavePolicy) error {
	return nil
}

func (f *fakePolicyRepository) FindAllByCompany(ctx context.Context, companyID string, activeOnly bool) ([]leavepolicy.LeavePolicy, error) {
	return nil, nil
}

func (f *fakePolicyRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leavepolicy.LeavePolicy, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return &leavepolicy.LeavePolicy{
		ID:          uuid.MustParse(id),
		CompanyID:   uuid.MustParse(companyID),
		LeaveType:   leavepolicy.TypeAnnual,
		DaysAllowed: 25,
		IsActive:    true,
	}, nil
}

func (f *fakePolicyRepository) Update(ctx context.Context, p *leavepolicy.LeavePolicy) error {
	return nil
}

func (f *fakePolicyRepository) HasActiveForType(ctx context.Context, companyID, leaveType string) (bool, error) {
	return false, nil
}

func (f *fakePolicyRepository) HasLedgerHistory(ctx context.Context, companyID, id string) (bool, error) {
	return false, nil
}

func (f *fakePolicyRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeEmployeeRepository struct {
	isActiveFn func(ctx context.Context, companyID, employeeID string) (bool, error)
}

func (f *fakeEmployeeRepository) IsActive(ctx context.Context, companyID, employeeID string) (bool, error) {
	if f.isActiveFn != nil {
		return f.isActiveFn(ctx, companyID, employeeID)
	}
	return true, nil
}

func (f *fakeEmployeeRepository) ListActiveIDs(ctx context.Context, companyID string) ([]string, error) {
	return nil, nil
}

type fakeOutboxRepository struct {
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type requestServiceDeps struct {
	db           *sql.DB
	sqlMock      sqlmock.Sqlmock
	service      leaverequest.Service
	repo         *fakeRequestRepository
	balanceRepo  *fakeBalanceRepository
	policyRepo   *fakePolicyRepository
	employeeRepo *fakeEmployeeRepository
	outbox       *fakeOutboxRepository
}

func setupRequestServiceTest(t *testing.T) *requestServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRequestRepository{}
	balanceRepo := &fakeBalanceRepository{}
	policyRepo := &fakePolicyRepository{}
	employeeRepo := &fakeEmployeeRepository{}
	outbox := &fakeOutboxRepository{}

	svc := leaverequest.NewService(db, repo, balanceRepo, policyRepo, employeeRepo, outbox, nil)

	return &requestServiceDeps{
		db:           db,
		sqlMock:      sqlMock,
		service:      svc,
		repo:         repo,
		balanceRepo:  balanceRepo,
		policyRepo:   policyRepo,
		employeeRepo: employeeRepo,
		outbox:       outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func balanceWith(allocated, used int) *leavebalance.LeaveBalance {
	b := &leavebalance.LeaveBalance{
		ID:            uuid.New(),
		AllocatedDays: allocated,
		UsedDays:      used,
	}
	b.Recompute()
	return b
}

func TestRequestService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()
	policyID := uuid.New().String()

	req := leaverequest.CreateRequestRequest{
		EmployeeID: employeeID,
		PolicyID:   policyID,
		StartDate:  "2031-03-10",
		EndDate:    "2031-03-14",
		Reason:     "family trip",
	}

	t.Run("success counts both endpoints", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			assert.Equal(t, 2031, year)
			return balanceWith(25, 0), nil
		}
		// pengajuan harus lewat baca terkunci supaya terserialisasi
		deps.balanceRepo.findByNaturalKeyFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			t.Fatal("submission must read the balance with a row lock")
			return nil, nil
		}

		var created *leaverequest.LeaveRequest
		deps.repo.createFn = func(ctx context.Context, r *leaverequest.LeaveRequest) error {
			created = r
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req)
		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, 5, resp.Days)
		assert.Equal(t, string(leaverequest.StatusPending), resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlapping active request", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(25, 0), nil
		}
		deps.repo.hasOverlappingPeriodFn = func(ctx context.Context, cid, eid string, startDate, endDate time.Time, excludeID *string) (bool, error) {
			assert.Nil(t, excludeID)
			return true, nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)
		assert.ErrorIs(t, err, requesterrors.ErrOverlappingRequest)
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(25, 21), nil
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	})

	t.Run("negative no balance row for the year", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Create(ctx, companyID, actorID, req)
		assert.ErrorIs(t, err, balanceerrors.ErrBalanceNotFound)
	})

	t.Run("negative start date in the past", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		past := req
		past.StartDate = "2020-01-01"
		past.EndDate = "2020-01-03"

		_, err := deps.service.Create(ctx, companyID, actorID, past)
		assert.ErrorIs(t, err, requesterrors.ErrStartDateInPast)
	})

	t.Run("negative inverted date range", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		bad := req
		bad.StartDate = "2031-03-14"
		bad.EndDate = "2031-03-10"

		_, err := deps.service.Create(ctx, companyID, actorID, bad)
		assert.ErrorIs(t, err, requesterrors.ErrInvalidDateRange)
	})
}

func pendingRequest(companyID, requestID string, days int) *leaverequest.LeaveRequest {
	start, _ := time.Parse("2006-01-02", "2031-03-10")
	return &leaverequest.LeaveRequest{
		ID:         uuid.MustParse(requestID),
		CompanyID:  uuid.MustParse(companyID),
		EmployeeID: uuid.New(),
		PolicyID:   uuid.New(),
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, days-1),
		Days:       days,
		Status:     leaverequest.StatusPending,
		CreatedBy:  uuid.New(),
	}
}

func TestRequestService_GetAll(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("success passes the status filter through", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByCompanyFn = func(ctx context.Context, cid string, filter leaverequest.ListFilter) ([]leaverequest.LeaveRequest, int64, error) {
			assert.Equal(t, "APPROVED", filter.Status)
			return []leaverequest.LeaveRequest{*pendingRequest(companyID, uuid.New().String(), 3)}, 1, nil
		}

		resp, total, err := deps.service.GetAll(ctx, companyID, leaverequest.ListFilter{Status: "APPROVED"})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, resp, 1)
	})

	t.Run("negative unknown status filter is rejected as invalid input", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByCompanyFn = func(ctx context.Context, cid string, filter leaverequest.ListFilter) ([]leaverequest.LeaveRequest, int64, error) {
			t.Fatal("repository must not be queried for an invalid status filter")
			return nil, 0, nil
		}

		_, _, err := deps.service.GetAll(ctx, companyID, leaverequest.ListFilter{Status: "WAITING"})
		assert.ErrorIs(t, err, requesterrors.ErrInvalidStatusFilter)
	})
}

func TestRequestService_Approve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	requestID := uuid.New().String()

	t.Run("success debits the balance in the same transaction", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		balance := balanceWith(25, 0)
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balance, nil
		}

		var savedBalance *leavebalance.LeaveBalance
		deps.balanceRepo.updateFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			savedBalance = b
			return nil
		}
		var savedRequest *leaverequest.LeaveRequest
		deps.repo.updateFn = func(ctx context.Context, r *leaverequest.LeaveRequest) error {
			savedRequest = r
			return nil
		}
		var decided []kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			decided = append(decided, event)
			return nil
		}

		resp, err := deps.service.Approve(ctx, companyID, actorID, requestID)
		assert.NoError(t, err)
		assert.Equal(t, string(leaverequest.StatusApproved), resp.Status)
		assert.NotNil(t, resp.ApprovedAt)
		assert.Equal(t, actorID, *resp.ApprovedBy)

		assert.Equal(t, 5, savedBalance.UsedDays)
		assert.Equal(t, 20, savedBalance.RemainingDays)
		assert.Equal(t, leaverequest.StatusApproved, savedRequest.Status)
		assert.NotEmpty(t, decided)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative second approval is rejected", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(companyID, requestID, 5)
			r.Status = leaverequest.StatusApproved
			return r, nil
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, requestID)
		assert.ErrorIs(t, err, requesterrors.ErrInvalidStatusTransition)
	})

	t.Run("negative balance cannot cover the request", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(25, 21), nil
		}

		_, err := deps.service.Approve(ctx, companyID, actorID, requestID)
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	})

	t.Run("negative request not found", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Approve(ctx, companyID, actorID, requestID)
		assert.ErrorIs(t, err, requesterrors.ErrRequestNotFound)
	})
}

func TestRequestService_Reject(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	requestID := uuid.New().String()

	t.Run("success does not touch the balance", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			t.Fatal("reject must not read the balance")
			return nil, nil
		}

		resp, err := deps.service.Reject(ctx, companyID, actorID, requestID, "coverage gap that week")
		assert.NoError(t, err)
		assert.Equal(t, string(leaverequest.StatusRejected), resp.Status)
		assert.NotNil(t, resp.RejectedAt)
		assert.Equal(t, "coverage gap that week", *resp.RejectionReason)
	})

	t.Run("negative reason required", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Reject(ctx, companyID, actorID, requestID, "")
		assert.ErrorIs(t, err, requesterrors.ErrRejectionReasonRequired)
	})
}

func TestRequestService_Cancel(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	requestID := uuid.New().String()

	t.Run("success cancelling approved releases the debit", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(companyID, requestID, 5)
			r.Status = leaverequest.StatusApproved
			return r, nil
		}
		balance := balanceWith(25, 5)
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balance, nil
		}
		var savedBalance *leavebalance.LeaveBalance
		deps.balanceRepo.updateFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			savedBalance = b
			return nil
		}

		resp, err := deps.service.Cancel(ctx, companyID, actorID, requestID, "plans changed")
		assert.NoError(t, err)
		assert.Equal(t, string(leaverequest.StatusCancelled), resp.Status)
		assert.NotNil(t, resp.CancelledAt)
		assert.Equal(t, "plans changed", *resp.CancellationReason)
		assert.Equal(t, 0, savedBalance.UsedDays)
		assert.Equal(t, 25, savedBalance.RemainingDays)
	})

	t.Run("success cancelling pending leaves the ledger alone", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			t.Fatal("cancelling a pending request must not read the balance")
			return nil, nil
		}

		resp, err := deps.service.Cancel(ctx, companyID, actorID, requestID, "")
		assert.NoError(t, err)
		assert.Equal(t, string(leaverequest.StatusCancelled), resp.Status)
	})

	t.Run("negative cancelling a rejected request", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(companyID, requestID, 5)
			r.Status = leaverequest.StatusRejected
			return r, nil
		}

		_, err := deps.service.Cancel(ctx, companyID, actorID, requestID, "")
		assert.ErrorIs(t, err, requesterrors.ErrInvalidStatusTransition)
	})
}

func TestRequestService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	requestID := uuid.New().String()

	t.Run("success reshapes a pending request", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(25, 0), nil
		}
		deps.repo.hasOverlappingPeriodFn = func(ctx context.Context, cid, eid string, startDate, endDate time.Time, excludeID *string) (bool, error) {
			assert.NotNil(t, excludeID)
			assert.Equal(t, requestID, *excludeID)
			return false, nil
		}

		resp, err := deps.service.Update(ctx, companyID, actorID, requestID, leaverequest.UpdateRequestRequest{
			StartDate: "2031-04-01",
			EndDate:   "2031-04-07",
			Reason:    "moved dates",
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, resp.Days)
	})

	t.Run("success old claim counts toward the new range", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		// sisa 3 saja, tapi klaim lama 5 hari ikut dihitung: 3+5 >= 7
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(3, 0), nil
		}

		resp, err := deps.service.Update(ctx, companyID, actorID, requestID, leaverequest.UpdateRequestRequest{
			StartDate: "2031-04-01",
			EndDate:   "2031-04-07",
		})
		assert.NoError(t, err)
		assert.Equal(t, 7, resp.Days)
	})

	t.Run("negative new range exceeds remaining plus old claim", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(companyID, requestID, 5), nil
		}
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(3, 0), nil
		}

		_, err := deps.service.Update(ctx, companyID, actorID, requestID, leaverequest.UpdateRequestRequest{
			StartDate: "2031-04-01",
			EndDate:   "2031-04-09",
		})
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	})

	t.Run("negative approved requests are immutable", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(companyID, requestID, 5)
			r.Status = leaverequest.StatusApproved
			return r, nil
		}

		_, err := deps.service.Update(ctx, companyID, actorID, requestID, leaverequest.UpdateRequestRequest{
			StartDate: "2031-04-01",
			EndDate:   "2031-04-07",
		})
		assert.ErrorIs(t, err, requesterrors.ErrPendingOnlyUpdate)
	})
}

func TestRequestService_BulkApprove(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()

	t.Run("best effort approves what it can in order", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		okA := uuid.New().String()
		missing := uuid.New().String()
		okB := uuid.New().String()

		// tiga item berarti tiga transaksi terpisah
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.findByIDAndCompanyForUpdateFn = func(ctx context.Context, cid, id string) (*leaverequest.LeaveRequest, error) {
			if id == missing {
				return nil, gorm.ErrRecordNotFound
			}
			return pendingRequest(companyID, id, 2), nil
		}
		deps.balanceRepo.findByNaturalKeyForUpdateFn = func(ctx context.Context, cid, eid, pid string, year int) (*leavebalance.LeaveBalance, error) {
			return balanceWith(25, 0), nil
		}

		resp, err := deps.service.BulkApprove(ctx, companyID, actorID, leaverequest.BulkApproveRequest{
			RequestIDs: []string{okA, missing, okB},
		})
		assert.NoError(t, err)

		assert.Equal(t, 3, resp.Summary.Total)
		assert.Equal(t, 2, resp.Summary.Approved)
		assert.Equal(t, 1, resp.Summary.Failed)
		assert.Equal(t, okA, resp.Approved[0].ID)
		assert.Equal(t, okB, resp.Approved[1].ID)
		assert.Equal(t, missing, resp.Errors[0].ID)
		assert.Equal(t, "REQUEST_NOT_FOUND", resp.Errors[0].Code)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
