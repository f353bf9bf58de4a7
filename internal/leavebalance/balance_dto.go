package leavebalance

type CreateBalanceRequest struct {
	EmployeeID       string `json:"employee_id" binding:"required,uuid"`
	PolicyID         string `json:"policy_id" binding:"required,uuid"`
	Year             int    `json:"year" binding:"required"`
	AllocatedDays    int    `json:"allocated_days" binding:"min=0"`
	CarryForwardDays int    `json:"carry_forward_days" binding:"min=0"`
	AdjustmentDays   int    `json:"adjustment_days"`
	Reason           string `json:"reason"`
}

type AdjustBalanceRequest struct {
	DeltaDays int    `json:"delta_days" binding:"required"`
	Reason    string `json:"reason"`
}

type UpdateBalanceRequest struct {
	AllocatedDays    *int   `json:"allocated_days" binding:"omitempty,min=0"`
	CarryForwardDays *int   `json:"carry_forward_days" binding:"omitempty,min=0"`
	AdjustmentDays   *int   `json:"adjustment_days"`
	UsedDays         *int   `json:"used_days" binding:"omitempty,min=0"`
	Reason           string `json:"reason"`
}

type BulkBalanceItem struct {
	EmployeeID       string `json:"employee_id" binding:"required,uuid"`
	PolicyID         string `json:"policy_id" binding:"required,uuid"`
	AllocatedDays    int    `json:"allocated_days" binding:"min=0"`
	CarryForwardDays int    `json:"carry_forward_days" binding:"min=0"`
}

type BulkCreateBalancesRequest struct {
	Year              int               `json:"year" binding:"required"`
	OverwriteExisting bool              `json:"overwrite_existing"`
	Items             []BulkBalanceItem `json:"items" binding:"required,min=1,dive"`
}

// BulkViolation adalah satu pelanggaran pada validasi batch; seluruh batch
// ditolak jika daftar ini tidak kosong.
type BulkViolation struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employee_id"`
	PolicyID   string `json:"policy_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type BulkCreateBalancesResponse struct {
	Created []BalanceResponse `json:"created"`
	Summary BulkSummary       `json:"summary"`
}

type BulkSummary struct {
	Total       int `json:"total"`
	Created     int `json:"created,omitempty"`
	Overwritten int `json:"overwritten,omitempty"`
}

// ListFilter adalah kriteria terketik untuk listing; repository yang
// menerjemahkannya ke kondisi query.
type ListFilter struct {
	EmployeeID string
	PolicyID   string
	Year       int
	Page       int
	PageSize   int
}

type BalanceResponse struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	EmployeeID       string `json:"employee_id"`
	PolicyID         string `json:"policy_id"`
	Year             int    `json:"year"`
	AllocatedDays    int    `json:"allocated_days"`
	CarryForwardDays int    `json:"carry_forward_days"`
	AdjustmentDays   int    `json:"adjustment_days"`
	UsedDays         int    `json:"used_days"`
	RemainingDays    int    `json:"remaining_days"`
}
