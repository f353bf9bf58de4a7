package leavebalance

import (
	"context"
	"database/sql"

	"github.com/Nambirajanmani/HRMS-sub000/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, b *LeaveBalance) error
	FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]LeaveBalance, int64, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveBalance, error)
	// FindByIDAndCompanyForUpdate mengunci baris balance (SELECT ... FOR
	// UPDATE) supaya dua mutasi concurrent tidak sama-sama lolos cek saldo.
	FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*LeaveBalance, error)
	FindByNaturalKey(ctx context.Context, companyID, employeeID, policyID string, year int) (*LeaveBalance, error)
	FindByNaturalKeyForUpdate(ctx context.Context, companyID, employeeID, policyID string, year int) (*LeaveBalance, error)
	Update(ctx context.Context, b *LeaveBalance) error
	DeleteByNaturalKey(ctx context.Context, companyID, employeeID, policyID string, year int) error
	// SumPendingRequestDays menjumlah hari semua request PENDING milik
	// (employee, policy) pada tahun tersebut; dipakai guard update alokasi.
	SumPendingRequestDays(ctx context.Context, companyID, employeeID, policyID string, year int) (int, error)
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
// Tanpa transaksi, sesi memakai pool biasa.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Create(b).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]LeaveBalance, int64, error) {
	db := r.conn(ctx).
		Model(&LeaveBalance{}).
		Scopes(tenant.Scope(companyID))

	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.PolicyID != "" {
		db = db.Where("policy_id = ?", filter.PolicyID)
	}
	if filter.Year != 0 {
		db = db.Where("year = ?", filter.Year)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	var balances []LeaveBalance
	err := db.
		Order("year DESC, employee_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&balances).Error
	return balances, total, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&b, "id = ?", id).Error
	return &b, err
}

func (r *repository) FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&b, "id = ?", id).Error
	return &b, err
}

func (r *repository) FindByNaturalKey(ctx context.Context, companyID, employeeID, policyID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("policy_id = ?", policyID).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindByNaturalKeyForUpdate(ctx context.Context, companyID, employeeID, policyID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("policy_id = ?", policyID).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) Update(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Save(b).Error
}

func (r *repository) DeleteByNaturalKey(ctx context.Context, companyID, employeeID, policyID string, year int) error {
	return r.conn(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("policy_id = ?", policyID).
		Where("year = ?", year).
		Delete(&LeaveBalance{}).Error
}

func (r *repository) SumPendingRequestDays(ctx context.Context, companyID, employeeID, policyID string, year int) (int, error) {
	var total sql.NullInt64
	err := r.conn(ctx).
		Table("leave_requests").
		Select("COALESCE(SUM(days), 0)").
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("policy_id = ?", policyID).
		Where("status = ?", "PENDING").
		Where("EXTRACT(YEAR FROM start_date) = ?", year).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}
