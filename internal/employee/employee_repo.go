package employee

import (
	"context"

	"github.com/Nambirajanmani/HRMS-sub000/internal/tenant"

	"gorm.io/gorm"
)

// Read model untuk kolaborator lain (leave, balance). Employee CRUD penuh
// hidup di servis admin terpisah.
//
//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	IsActive(ctx context.Context, companyID, employeeID string) (bool, error)
	ListActiveIDs(ctx context.Context, companyID string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IsActive(ctx context.Context, companyID, employeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", employeeID).
		Where("employment_status = ?", StatusActive).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListActiveIDs(ctx context.Context, companyID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("employment_status = ?", StatusActive).
		Order("created_at ASC").
		Pluck("id::text", &ids).Error
	return ids, err
}
