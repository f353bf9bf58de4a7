package events

import "time"

const AuditTopic = "hr.audit.v1"

type AuditRecordedEvent struct {
	EventType  string    `json:"event_type"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	CompanyID  string    `json:"company_id"`
	Before     any       `json:"before,omitempty"`
	After      any       `json:"after,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
