package leaverequest

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Tabel transisi status. REJECTED dan CANCELLED terminal; APPROVED hanya
// bisa dibatalkan, dan pembatalan itu mengembalikan debit ledger.
var allowedTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// DaysInclusive menghitung panjang rentang cuti; kedua ujung dihitung,
// jadi satu hari cuti = 1.
func DaysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`
	PolicyID   uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Days      int       `gorm:"type:int;not null"`
	Reason    string    `gorm:"type:text"`
	Status    Status    `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`

	CreatedBy          uuid.UUID  `gorm:"type:uuid;not null"`
	AppliedAt          time.Time  `gorm:"not null"`
	ApprovedBy         *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt         *time.Time
	RejectedAt         *time.Time
	CancelledAt        *time.Time
	RejectionReason    *string `gorm:"type:text"`
	CancellationReason *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
