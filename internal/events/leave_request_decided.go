package events

import "time"

const LeaveRequestTopic = "hr.leave.request.v1"

type LeaveRequestDecidedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	EmployeeID string    `json:"employee_id"`
	CompanyID  string    `json:"company_id"`
	Status     string    `json:"status"`
	Days       int       `json:"days"`
	DecidedBy  string    `json:"decided_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
