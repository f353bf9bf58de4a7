package leavepolicy

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeAnnual     = "ANNUAL"
	TypeSick       = "SICK"
	TypeMaternity  = "MATERNITY"
	TypePaternity  = "PATERNITY"
	TypeEmergency  = "EMERGENCY"
	TypeUnpaid     = "UNPAID"
	TypeSabbatical = "SABBATICAL"
)

var leaveTypes = map[string]struct{}{
	TypeAnnual:     {},
	TypeSick:       {},
	TypeMaternity:  {},
	TypePaternity:  {},
	TypeEmergency:  {},
	TypeUnpaid:     {},
	TypeSabbatical: {},
}

func IsValidLeaveType(t string) bool {
	_, ok := leaveTypes[t]
	return ok
}

type LeavePolicy struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_policies_company"`

	LeaveType       string `gorm:"type:varchar(30);not null"`
	DaysAllowed     int    `gorm:"type:int;not null"`
	CarryForward    bool   `gorm:"not null;default:false"`
	MaxCarryForward int    `gorm:"type:int;not null;default:0"`

	// Policies are soft-deactivated, never hard-deleted, once they have
	// ledger history.
	IsActive bool `gorm:"not null;default:true;index:idx_leave_policies_company"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CarryForwardCap returns the number of days a balance may carry into a new
// period under this policy.
func (p *LeavePolicy) CarryForwardCap() int {
	if !p.CarryForward {
		return 0
	}
	return p.MaxCarryForward
}

// AllowsCarryForward reports whether the given carry-forward day count is
// acceptable under this policy. Exactly the cap is accepted; one over is not.
func (p *LeavePolicy) AllowsCarryForward(days int) bool {
	if days == 0 {
		return true
	}
	if !p.CarryForward {
		return false
	}
	return days <= p.MaxCarryForward
}
