package leaverequest

import (
	"github.com/Nambirajanmani/HRMS-sub000/internal/middleware"
	"github.com/Nambirajanmani/HRMS-sub000/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.GET("", middleware.RBACAuthorize(rbacService, "leave_request", "read"), handler.GetAll)
		requests.GET("/:id", middleware.RBACAuthorize(rbacService, "leave_request", "read"), handler.GetById)
		requests.POST("", middleware.RBACAuthorize(rbacService, "leave_request", "create"), handler.Create)
		requests.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave_request", "create"), handler.Update)
		requests.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave_request", "approve"), handler.Approve)
		requests.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave_request", "approve"), handler.Reject)
		requests.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave_request", "create"), handler.Cancel)
		requests.POST("/bulk-approve",
			middleware.RBACAuthorize(rbacService, "leave_request", "approve"),
			middleware.Idempotency(rdb),
			handler.BulkApprove,
		)
	}
}
