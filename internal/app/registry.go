package app

import (
	"database/sql"
	"path/filepath"

	"github.com/Nambirajanmani/HRMS-sub000/internal/audit"
	"github.com/Nambirajanmani/HRMS-sub000/internal/employee"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leavepolicy"
	"github.com/Nambirajanmani/HRMS-sub000/internal/leaverequest"
	"github.com/Nambirajanmani/HRMS-sub000/internal/messaging/kafka"
	"github.com/Nambirajanmani/HRMS-sub000/internal/middleware"
	"github.com/Nambirajanmani/HRMS-sub000/internal/rbac"
	"github.com/Nambirajanmani/HRMS-sub000/internal/rbac/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	policyRepo := leavepolicy.NewRepository(gormDB)
	balanceRepo := leavebalance.NewRepository(gormDB)
	requestRepo := leaverequest.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Audit ---
	auditSink := audit.NewOutboxSink(outboxRepo, logger)

	// --- Services ---
	policyService := leavepolicy.NewService(db, policyRepo, auditSink, rdb, logger)
	balanceService := leavebalance.NewService(db, balanceRepo, policyRepo, employeeRepo, auditSink, logger)
	requestService := leaverequest.NewService(db, requestRepo, balanceRepo, policyRepo, employeeRepo, outboxRepo, auditSink, logger)

	// --- Handlers ---
	policyHandler := leavepolicy.NewHandler(policyService, logger)
	balanceHandler := leavebalance.NewHandler(balanceService, logger)
	requestHandler := leaverequest.NewHandler(requestService, logger)

	// --- Global Middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(logger))
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		leavepolicy.RegisterRoutes(api, policyHandler, rbacService)
		leavebalance.RegisterRoutes(api, balanceHandler, rbacService, rdb)
		leaverequest.RegisterRoutes(api, requestHandler, rbacService, rdb)
	}

	return nil
}
