package leavebalance

import (
	"time"

	balanceerrors "github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance/errors"

	"github.com/google/uuid"
)

// LeaveBalance adalah ledger per (employee, policy, year). Baris ini hanya
// dimutasi lewat service di package ini atau lewat transisi approval di
// leaverequest; keduanya mengunci baris dulu.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_balances_company"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_policy_year"`
	PolicyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_policy_year"`
	Year       int       `gorm:"type:int;not null;uniqueIndex:uq_balance_employee_policy_year"`

	AllocatedDays    int `gorm:"type:int;not null;default:0"`
	CarryForwardDays int `gorm:"type:int;not null;default:0"`
	AdjustmentDays   int `gorm:"type:int;not null;default:0"`
	UsedDays         int `gorm:"type:int;not null;default:0"`
	RemainingDays    int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recompute menegakkan invariant aritmetika ledger:
// remaining = allocated + carryForward + adjustment - used
func (b *LeaveBalance) Recompute() {
	b.RemainingDays = b.AllocatedDays + b.CarryForwardDays + b.AdjustmentDays - b.UsedDays
}

// Reserve mendebit ledger untuk approval sebanyak days hari.
func (b *LeaveBalance) Reserve(days int) error {
	if days <= 0 {
		return balanceerrors.ErrInvalidDays
	}
	if b.RemainingDays < days {
		return balanceerrors.ErrInsufficientBalance
	}
	b.UsedDays += days
	b.Recompute()
	return nil
}

// Release mengembalikan debit approval, dipakai saat request APPROVED
// dibatalkan. Mengembalikan lebih dari yang terpakai berarti ledger korup.
func (b *LeaveBalance) Release(days int) error {
	if days <= 0 {
		return balanceerrors.ErrInvalidDays
	}
	if b.UsedDays < days {
		return balanceerrors.ErrReleaseExceedsUsage
	}
	b.UsedDays -= days
	b.Recompute()
	return nil
}

// Adjust menerapkan koreksi bertanda pada ledger.
func (b *LeaveBalance) Adjust(deltaDays int) error {
	b.AdjustmentDays += deltaDays
	b.Recompute()
	if b.RemainingDays < 0 {
		// rollback in-memory state so callers can keep using the struct
		b.AdjustmentDays -= deltaDays
		b.Recompute()
		return balanceerrors.ErrNegativeBalanceNotAllowed
	}
	return nil
}
