package leavepolicy

type CreatePolicyRequest struct {
	LeaveType       string `json:"leave_type" binding:"required,oneof=ANNUAL SICK MATERNITY PATERNITY EMERGENCY UNPAID SABBATICAL"`
	DaysAllowed     int    `json:"days_allowed" binding:"min=0"`
	CarryForward    bool   `json:"carry_forward"`
	MaxCarryForward int    `json:"max_carry_forward" binding:"min=0"`
}

type UpdatePolicyRequest struct {
	DaysAllowed     *int  `json:"days_allowed" binding:"omitempty,min=0"`
	CarryForward    *bool `json:"carry_forward"`
	MaxCarryForward *int  `json:"max_carry_forward" binding:"omitempty,min=0"`
	IsActive        *bool `json:"is_active"`
}

type PolicyResponse struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	LeaveType       string `json:"leave_type"`
	DaysAllowed     int    `json:"days_allowed"`
	CarryForward    bool   `json:"carry_forward"`
	MaxCarryForward int    `json:"max_carry_forward"`
	IsActive        bool   `json:"is_active"`
}

type PolicyOption struct {
	ID          string `json:"id"`
	LeaveType   string `json:"leave_type"`
	DaysAllowed int    `json:"days_allowed"`
}
