package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/events"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Entry struct {
	Actor     string
	Action    string
	Entity    string
	EntityID  string
	CompanyID string
	Before    any
	After     any
}

// Sink menerima jejak audit secara fire-and-forget. Kegagalan mencatat
// audit tidak boleh menggagalkan operasi utamanya.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// OutboxSink menulis entry audit ke outbox_events di luar transaksi domain;
// worker yang mengalirkannya ke Kafka.
type OutboxSink struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxSink(outbox kafka.OutboxRepository, logger ...*zap.Logger) *OutboxSink {
	l := zap.L().Named("audit.sink")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.sink")
	}
	return &OutboxSink{outbox: outbox, logger: l}
}

func (s *OutboxSink) Record(ctx context.Context, entry Entry) {
	event := events.AuditRecordedEvent{
		EventType:  "audit.recorded",
		Actor:      entry.Actor,
		Action:     entry.Action,
		Entity:     entry.Entity,
		EntityID:   entry.EntityID,
		CompanyID:  entry.CompanyID,
		Before:     entry.Before,
		After:      entry.After,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal audit entry failed", zap.Error(err))
		return
	}

	outboxEvent := kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: entry.Entity,
		AggregateID:   entry.EntityID,
		EventType:     event.EventType,
		Topic:         events.AuditTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}

	if err := s.outbox.Create(ctx, outboxEvent); err != nil {
		// Audit gagal dicatat: log dan lanjut, operasi utama tetap sukses.
		s.logger.Error("record audit entry failed",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

// LogSink adalah fallback yang hanya menulis ke zap (dipakai saat outbox
// belum tersedia, mis. di test atau shutdown hook).
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (l *LogSink) Record(ctx context.Context, entry Entry) {
	zap.L().Named("audit").Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("actor", entry.Actor),
		zap.String("action", entry.Action),
		zap.String("entity", entry.Entity),
		zap.String("entity_id", entry.EntityID),
		zap.Any("before", entry.Before),
		zap.Any("after", entry.After),
	)
}
