package leaverequest

import (
	"context"
	"database/sql"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=request_repo.go -destination=mock/request_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *LeaveRequest) error
	FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]LeaveRequest, int64, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	// FindByIDAndCompanyForUpdate mengunci baris request selama transisi
	// status supaya dua approval concurrent tidak lolos dua-duanya.
	FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	Update(ctx context.Context, r *LeaveRequest) error
	// HasOverlappingPeriod memeriksa apakah ada request PENDING/APPROVED
	// lain yang rentangnya beririsan (inklusif di kedua ujung).
	HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error)
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

func (r *repository) Create(ctx context.Context, req *LeaveRequest) error {
	return r.conn(ctx).Create(req).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]LeaveRequest, int64, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.Scope(companyID))

	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.PolicyID != "" {
		db = db.Where("policy_id = ?", filter.PolicyID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
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

	var requests []LeaveRequest
	err := db.
		Order("start_date DESC, created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&requests).Error
	return requests, total, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) FindByIDAndCompanyForUpdate(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) Update(ctx context.Context, req *LeaveRequest) error {
	return r.conn(ctx).Save(req).Error
}

func (r *repository) HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("status IN ?", []Status{StatusPending, StatusApproved}).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate)

	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}
