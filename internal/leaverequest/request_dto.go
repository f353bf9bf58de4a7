package leaverequest

type CreateRequestRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	PolicyID   string `json:"policy_id" binding:"required,uuid"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Reason     string `json:"reason"`
}

// UpdateRequestRequest hanya berlaku untuk request PENDING; perubahan
// rentang tanggal divalidasi ulang terhadap overlap dan saldo.
type UpdateRequestRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

type RejectRequestRequest struct {
	RejectionReason string `json:"rejection_reason" binding:"required"`
}

type CancelRequestRequest struct {
	CancellationReason string `json:"cancellation_reason"`
}

type BulkApproveRequest struct {
	RequestIDs []string `json:"request_ids" binding:"required,min=1,dive,uuid"`
}

type BulkApproveError struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BulkApproveSummary struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Failed   int `json:"failed"`
}

// BulkApproveResponse memuat hasil per item: bulk approval best-effort,
// satu item gagal tidak membatalkan item lain.
type BulkApproveResponse struct {
	Approved []RequestResponse  `json:"approved"`
	Errors   []BulkApproveError `json:"errors"`
	Summary  BulkApproveSummary `json:"summary"`
}

// ListFilter adalah kriteria terketik untuk listing request.
type ListFilter struct {
	EmployeeID string
	PolicyID   string
	Status     string
	Page       int
	PageSize   int
}

type RequestResponse struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	EmployeeID      string  `json:"employee_id"`
	PolicyID        string  `json:"policy_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Days            int     `json:"days"`
	Reason          string  `json:"reason"`
	Status             string  `json:"status"`
	CreatedBy          string  `json:"created_by"`
	AppliedAt          string  `json:"applied_at"`
	ApprovedBy         *string `json:"approved_by,omitempty"`
	ApprovedAt         *string `json:"approved_at,omitempty"`
	RejectedAt         *string `json:"rejected_at,omitempty"`
	CancelledAt        *string `json:"cancelled_at,omitempty"`
	RejectionReason    *string `json:"rejection_reason,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}
