package front

import (
	"github.com/gin-gonic/gin"
	handlers "github.com/stakemine/StakeMineBusiness/internal/http/api/front/handlers"
	"github.com/stakemine/StakeMineBusiness/internal/plans"
)

// RegisterFrontRoutes registers investor-facing routes and handlers.
func RegisterFrontRoutes(r *gin.Engine, service *plans.Service) {
	if r == nil || service == nil {
		return
	}

	planHandler := handlers.NewPlanFrontHandler(service)
	frontGroup := r.Group("/v0/plans")
	frontGroup.GET("", planHandler.List)
	frontGroup.GET("/status", planHandler.Status)
	frontGroup.POST("/activate", planHandler.Activate)
	frontGroup.POST("/upgrade", planHandler.Upgrade)
	frontGroup.POST("/collect", planHandler.Collect)
	frontGroup.POST("/renew", planHandler.Renew)
}
