package leavebalance

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
	balances := r.Group("/leave-balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("", middleware.RBACAuthorize(rbacService, "leave_balance", "read"), handler.GetAll)
		balances.GET("/:id", middleware.RBACAuthorize(rbacService, "leave_balance", "read"), handler.GetById)
		balances.POST("", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.Create)
		balances.POST("/bulk",
			middleware.RBACAuthorize(rbacService, "leave_balance", "manage"),
			middleware.Idempotency(rdb),
			handler.BulkCreate,
		)
		balances.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.Update)
		balances.POST("/:id/adjust", middleware.RBACAuthorize(rbacService, "leave_balance", "manage"), handler.Adjust)
	}
}
