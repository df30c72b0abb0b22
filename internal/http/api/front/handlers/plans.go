package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stakemine/StakeMineBusiness/internal/models"
	"github.com/stakemine/StakeMineBusiness/internal/plans"
)

// userIDHeader carries the authenticated user ID set by the external gateway.
const userIDHeader = "X-User-ID"

// PlanFrontHandler serves plan lifecycle endpoints for investors.
type PlanFrontHandler struct {
	service *plans.Service
}

// NewPlanFrontHandler constructs a PlanFrontHandler.
func NewPlanFrontHandler(service *plans.Service) *PlanFrontHandler {
	return &PlanFrontHandler{service: service}
}

// List returns purchasable plans in display order.
func (h *PlanFrontHandler) List(c *gin.Context) {
	rows, errList := h.service.ListPlans(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, plan := range rows {
		out = append(out, gin.H{
			"id":            plan.ID,
			"name":          plan.Name,
			"min_amount":    plan.MinAmount,
			"max_amount":    plan.MaxAmount,
			"yield_type":    plan.YieldType,
			"yield_value":   plan.YieldValue,
			"duration_days": plan.DurationDays,
			"metadata":      plan.Metadata,
			"sort_order":    plan.SortOrder,
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Status returns the caller's balances and active instance.
func (h *PlanFrontHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, instance, errStatus := h.service.Status(c.Request.Context(), userID)
	if errStatus != nil {
		respondServiceError(c, errStatus)
		return
	}

	payload := gin.H{
		"wallet_balance": user.WalletBalance,
		"bonus_balance":  user.BonusBalance,
	}
	if instance != nil {
		payload["instance"] = formatInstance(instance)
	}
	c.JSON(http.StatusOK, payload)
}

// activateRequest captures the payload for plan activation.
type activateRequest struct {
	PlanID uint64   `json:"plan_id"` // Plan to activate.
	Amount *float64 `json:"amount"`  // Principal to invest.
}

// Activate purchases a plan for the caller.
func (h *PlanFrontHandler) Activate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body activateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.PlanID == 0 || body.Amount == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id and amount are required"})
		return
	}

	result, errActivate := h.service.Activate(c.Request.Context(), userID, body.PlanID, *body.Amount)
	if errActivate != nil {
		respondServiceError(c, errActivate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"instance":    formatInstance(result.Instance),
		"bonus_used":  result.BonusUsed,
		"wallet_used": result.WalletUsed,
	})
}

// upgradeRequest captures the payload for plan upgrade.
type upgradeRequest struct {
	PlanID uint64 `json:"plan_id"` // Target higher-tier plan.
}

// Upgrade moves the caller's active instance to a higher tier.
func (h *PlanFrontHandler) Upgrade(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body upgradeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id is required"})
		return
	}

	instance, errUpgrade := h.service.Upgrade(c.Request.Context(), userID, body.PlanID)
	if errUpgrade != nil {
		respondServiceError(c, errUpgrade)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instance": formatInstance(instance)})
}

// Collect pays out one day of profit for the caller's active instance.
func (h *PlanFrontHandler) Collect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	instance, errCollect := h.service.Collect(c.Request.Context(), userID)
	if errCollect != nil {
		respondServiceError(c, errCollect)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"collected": instance.DailyProfit,
		"instance":  formatInstance(instance),
	})
}

// renewRequest captures the payload for plan renewal.
type renewRequest struct {
	InstanceID uint64 `json:"instance_id"` // Expired instance to renew.
}

// Renew re-activates one of the caller's expired instances.
func (h *PlanFrontHandler) Renew(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var body renewRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.InstanceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instance_id is required"})
		return
	}

	instance, errRenew := h.service.Renew(c.Request.Context(), userID, body.InstanceID)
	if errRenew != nil {
		respondServiceError(c, errRenew)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instance": formatInstance(instance)})
}

// currentUserID extracts the caller's user ID from the gateway header.
func currentUserID(c *gin.Context) (uint64, bool) {
	raw := strings.TrimSpace(c.GetHeader(userIDHeader))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return 0, false
	}
	id, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

// respondServiceError maps lifecycle errors onto HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	var cooldown *plans.CooldownError
	switch {
	case errors.Is(err, plans.ErrUserNotFound),
		errors.Is(err, plans.ErrPlanNotFound),
		errors.Is(err, plans.ErrInstanceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, plans.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, plans.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.As(err, &cooldown):
		c.JSON(http.StatusConflict, gin.H{
			"error":           cooldown.Error(),
			"remaining_hours": cooldown.Remaining.Hours(),
		})
	case errors.Is(err, plans.ErrActivePlanExists),
		errors.Is(err, plans.ErrNoActivePlan),
		errors.Is(err, plans.ErrPlanExpired),
		errors.Is(err, plans.ErrInstanceNotExpired),
		errors.Is(err, plans.ErrNotHigherTier):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, plans.ErrConfigurationMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "commission configuration missing"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}

// formatInstance converts a plan instance into a response payload.
func formatInstance(i *models.PlanInstance) gin.H {
	return gin.H{
		"id":                i.ID,
		"plan_id":           i.PlanID,
		"invested_amount":   i.InvestedAmount,
		"daily_profit":      i.DailyProfit,
		"start_date":        i.StartDate,
		"end_date":          i.EndDate,
		"last_collected_at": i.LastCollectedAt,
		"total_collected":   i.TotalCollected,
		"status":            i.Status,
	}
}
