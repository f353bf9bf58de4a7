package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type Employee struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID  `gorm:"type:uuid;index"`
	DepartmentID     *uuid.UUID `gorm:"type:uuid"`
	PositionID       *uuid.UUID `gorm:"type:uuid"`
	FullName         string
	Email            string `gorm:"uniqueIndex"`
	EmploymentStatus string `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}
