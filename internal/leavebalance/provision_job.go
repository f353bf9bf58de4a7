package leavebalance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/employee"
	"github.com/Nambirajanmani/HRMS-sub000/internal/events"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/txutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	provisionLockKeyFormat = "leave:provision:%d"
	provisionLockTTL       = 30 * time.Minute
)

// ProvisionJob membuat ledger tahun baru untuk semua karyawan aktif. Job
// ini idempotent: baris yang sudah ada tidak disentuh, jadi aman dijalankan
// ulang setelah crash atau dari dua instance worker.
type ProvisionJob struct {
	db           *sql.DB
	repo         Repository
	policyRepo   leavepolicy.Repository
	employeeRepo employee.Repository
	redisClient  *redis.Client
	outbox       kafka.OutboxRepository
	logger       *zap.Logger
}

func NewProvisionJob(
	db *sql.DB,
	repo Repository,
	policyRepo leavepolicy.Repository,
	employeeRepo employee.Repository,
	redisClient *redis.Client,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) *ProvisionJob {
	l := zap.L().Named("leavebalance.provision")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.provision")
	}
	return &ProvisionJob{
		db:           db,
		repo:         repo,
		policyRepo:   policyRepo,
		employeeRepo: employeeRepo,
		redisClient:  redisClient,
		outbox:       outbox,
		logger:       l,
	}
}

// ProvisionYear menjalankan provisioning untuk satu tahun. Lock Redis
// mencegah dua worker memproses tahun yang sama bersamaan; worker yang
// kalah lock langsung selesai tanpa error.
func (j *ProvisionJob) ProvisionYear(ctx context.Context, year int) error {
	if year < minYear || year > maxYear {
		return fmt.Errorf("provision year %d out of range", year)
	}

	lockKey := fmt.Sprintf(provisionLockKeyFormat, year)
	acquired, err := j.redisClient.SetNX(ctx, lockKey, "1", provisionLockTTL).Result()
	if err != nil {
		return fmt.Errorf("acquire provision lock: %w", err)
	}
	if !acquired {
		j.logger.Info("provision already running elsewhere, skipping",
			zap.Int("year", year),
		)
		return nil
	}
	defer func() {
		if err := j.redisClient.Del(context.WithoutCancel(ctx), lockKey).Err(); err != nil {
			j.logger.Warn("release provision lock failed", zap.Error(err))
		}
	}()

	companyIDs, err := j.policyRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	j.logger.Info("provisioning started",
		zap.Int("year", year),
		zap.Int("companies", len(companyIDs)),
	)

	var failed int
	for _, companyID := range companyIDs {
		created, skipped, err := j.provisionCompany(ctx, companyID, year)
		if err != nil {
			failed++
			j.logger.Error("provision company failed",
				zap.String("company_id", companyID),
				zap.Int("year", year),
				zap.Error(err),
			)
			continue
		}

		j.publishProvisioned(ctx, companyID, year, created, skipped)
		j.logger.Info("provision company done",
			zap.String("company_id", companyID),
			zap.Int("year", year),
			zap.Int("created", created),
			zap.Int("skipped", skipped),
		)
	}

	if failed > 0 {
		return fmt.Errorf("provisioning finished with %d failed companies", failed)
	}
	return nil
}

// provisionCompany memproses satu company dalam satu transaksi. Baris yang
// sudah ada dilewati; sisanya dibuat dengan carry-forward dari tahun lalu,
// dipotong pada cap policy.
func (j *ProvisionJob) provisionCompany(ctx context.Context, companyID string, year int) (created, skipped int, err error) {
	policies, err := j.policyRepo.FindAllByCompany(ctx, companyID, true)
	if err != nil {
		return 0, 0, err
	}
	employeeIDs, err := j.employeeRepo.ListActiveIDs(ctx, companyID)
	if err != nil {
		return 0, 0, err
	}
	if len(policies) == 0 || len(employeeIDs) == 0 {
		return 0, 0, nil
	}

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return 0, 0, err
	}

	err = txutil.WithTransaction(ctx, j.db, func(tx *sql.Tx) error {
		qtx := j.repo.WithTx(tx)

		for _, policy := range policies {
			for _, employeeID := range employeeIDs {
				_, findErr := qtx.FindByNaturalKey(ctx, companyID, employeeID, policy.ID.String(), year)
				switch {
				case findErr == nil:
					skipped++
					continue
				case !errors.Is(findErr, gorm.ErrRecordNotFound):
					return findErr
				}

				carryForward, cfErr := j.carryForwardFor(ctx, qtx, companyID, employeeID, &policy, year)
				if cfErr != nil {
					return cfErr
				}

				b := &LeaveBalance{
					ID:               uuid.New(),
					CompanyID:        companyUUID,
					EmployeeID:       uuid.MustParse(employeeID),
					PolicyID:         policy.ID,
					Year:             year,
					AllocatedDays:    policy.DaysAllowed,
					CarryForwardDays: carryForward,
				}
				b.Recompute()

				if createErr := qtx.Create(ctx, b); createErr != nil {
					return mapRepositoryError(createErr)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}

func (j *ProvisionJob) carryForwardFor(
	ctx context.Context,
	qtx Repository,
	companyID, employeeID string,
	policy *leavepolicy.LeavePolicy,
	year int,
) (int, error) {
	if !policy.CarryForward {
		return 0, nil
	}

	prev, err := qtx.FindByNaturalKey(ctx, companyID, employeeID, policy.ID.String(), year-1)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if prev.RemainingDays <= 0 {
		return 0, nil
	}

	limit := policy.CarryForwardCap()
	if prev.RemainingDays > limit {
		return limit, nil
	}
	return prev.RemainingDays, nil
}

func (j *ProvisionJob) publishProvisioned(ctx context.Context, companyID string, year, created, skipped int) {
	event := events.BalanceProvisionedEvent{
		EventType:  "leave.balance.provisioned",
		CompanyID:  companyID,
		Year:       year,
		Created:    created,
		Skipped:    skipped,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		j.logger.Error("marshal provisioned event failed", zap.Error(err))
		return
	}

	outboxEvent := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "leave_balance",
		AggregateID:   companyID,
		EventType:     event.EventType,
		Topic:         events.LeaveBalanceTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
	if err := j.outbox.Create(ctx, outboxEvent); err != nil {
		j.logger.Error("enqueue provisioned event failed",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
	}
}
