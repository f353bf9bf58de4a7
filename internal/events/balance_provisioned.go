package events

import "time"

const LeaveBalanceTopic = "hr.leave.balance.v1"

type BalanceProvisionedEvent struct {
	EventType  string    `json:"event_type"`
	CompanyID  string    `json:"company_id"`
	Year       int       `json:"year"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}
