package leavepolicy

import (
	"context"
	"database/sql"

	"github.com/Nambirajanmani/HRMS-sub000/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=policy_repo.go -destination=mock/policy_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *LeavePolicy) error
	FindAllByCompany(ctx context.Context, companyID string, activeOnly bool) ([]LeavePolicy, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeavePolicy, error)
	Update(ctx context.Context, p *LeavePolicy) error
	HasActiveForType(ctx context.Context, companyID, leaveType string) (bool, error)
	HasLedgerHistory(ctx context.Context, companyID, id string) (bool, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn mengembalikan sesi gorm yang terikat transaksi berjalan: ConnPool
// diarahkan ke *sql.Tx sehingga query ikut commit/rollback transaksi itu.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, p *LeavePolicy) error {
	return r.conn(ctx).Create(p).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, activeOnly bool) ([]LeavePolicy, error) {
	db := r.conn(ctx).Scopes(tenant.Scope(companyID))
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	var policies []LeavePolicy
	err := db.Order("leave_type ASC").Find(&policies).Error
	return policies, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeavePolicy, error) {
	var p LeavePolicy
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) Update(ctx context.Context, p *LeavePolicy) error {
	return r.conn(ctx).Save(p).Error
}

func (r *repository) HasActiveForType(ctx context.Context, companyID, leaveType string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&LeavePolicy{}).
		Scopes(tenant.Scope(companyID)).
		Where("leave_type = ?", leaveType).
		Where("is_active = ?", true).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HasLedgerHistory(ctx context.Context, companyID, id string) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Table("leave_balances").
		Where("company_id = ?", companyID).
		Where("policy_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.conn(ctx).
		Model(&LeavePolicy{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("company_id::text", &ids).Error
	return ids, err
}
