package leavepolicy

import (
	"github.com/Nambirajanmani/HRMS-sub000/internal/middleware"
	"github.com/Nambirajanmani/HRMS-sub000/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	policies := r.Group("/leave-policies")
	policies.Use(middleware.AuthMiddleware())
	{
		policies.GET("", middleware.RBACAuthorize(rbacService, "leave_policy", "read"), handler.GetAll)
		policies.GET("/options", middleware.RBACAuthorize(rbacService, "leave_policy", "read"), handler.GetOptions)
		policies.GET("/:id", middleware.RBACAuthorize(rbacService, "leave_policy", "read"), handler.GetById)
		policies.POST("", middleware.RBACAuthorize(rbacService, "leave_policy", "manage"), handler.Create)
		policies.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave_policy", "manage"), handler.Update)
		policies.DELETE("/:id", middleware.RBACAuthorize(rbacService, "leave_policy", "manage"), handler.Deactivate)
	}
}
