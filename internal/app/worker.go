package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Nambirajanmani/HRMS-sub000/internal/employee"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka/producer"
	"github.com/Nambirajanmani/HRMS-sub000/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker menjalankan dua loop background: publisher outbox ke Kafka dan
// job provisioning saldo tahunan.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	provisionJob := leavebalance.NewProvisionJob(
		sqlDB,
		leavebalance.NewRepository(gormDB),
		leavepolicy.NewRepository(gormDB),
		employee.NewRepository(gormDB),
		redisClient,
		outboxRepo,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)
	go runProvisioningLoop(ctx, provisionJob, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}

// runProvisioningLoop menjalankan provisioning sekali saat start lalu tiap
// interval. Job-nya idempotent, jadi dijalankan berulang tidak apa-apa.
// Mulai November, tahun berikutnya ikut diprovisikan supaya saldo sudah
// siap sebelum 1 Januari.
func runProvisioningLoop(ctx context.Context, job *leavebalance.ProvisionJob, logger *zap.Logger) {
	interval := 24 * time.Hour
	if raw := os.Getenv("PROVISION_INTERVAL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			interval = time.Duration(hours) * time.Hour
		}
	}

	run := func() {
		now := time.Now().UTC()
		years := []int{now.Year()}
		if now.Month() >= time.November {
			years = append(years, now.Year()+1)
		}

		for _, year := range years {
			if err := job.ProvisionYear(ctx, year); err != nil {
				logger.Error("provision year failed",
					zap.Int("year", year),
					zap.Error(err),
				)
			}
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("provisioning loop stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
