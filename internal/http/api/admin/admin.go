package admin

import (
	"github.com/gin-gonic/gin"
	handlers "github.com/stakemine/StakeMineBusiness/internal/http/api/admin/handlers"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes and handlers.
//
// Authentication for the admin surface is handled by an external gateway and
// is deliberately absent here.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	planHandler := handlers.NewPlanHandler(db)
	adminGroup.POST("/plans", planHandler.Create)
	adminGroup.GET("/plans", planHandler.List)
	adminGroup.GET("/plans/:id", planHandler.Get)
	adminGroup.PUT("/plans/:id", planHandler.Update)
	adminGroup.DELETE("/plans/:id", planHandler.Delete)
	adminGroup.POST("/plans/:id/enable", planHandler.Enable)
	adminGroup.POST("/plans/:id/disable", planHandler.Disable)
}
