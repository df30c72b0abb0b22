package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stakemine/StakeMineBusiness/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanHandler manages admin CRUD endpoints for plan tiers.
type PlanHandler struct {
	db *gorm.DB // Database handle for plan records.
}

// NewPlanHandler constructs a plan handler.
func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// planMetadata defines the optional display fields in the metadata payload.
type planMetadata struct {
	ImageURL string `json:"image_url"` // Plan image URL.
	HashRate string `json:"hash_rate"` // Hash-rate label.
}

// normalizePlanMetadata validates and normalizes the metadata JSON payload.
func normalizePlanMetadata(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON([]byte("{}")), nil
	}
	var meta planMetadata
	if errUnmarshal := json.Unmarshal(raw, &meta); errUnmarshal != nil {
		return nil, errors.New("invalid metadata")
	}
	meta.ImageURL = strings.TrimSpace(meta.ImageURL)
	meta.HashRate = strings.TrimSpace(meta.HashRate)
	normalized, errMarshal := json.Marshal(meta)
	if errMarshal != nil {
		return nil, errMarshal
	}
	return datatypes.JSON(normalized), nil
}

// validYieldType reports whether the yield type is supported.
func validYieldType(t string) bool {
	switch models.PlanYieldType(t) {
	case models.PlanYieldFixed, models.PlanYieldPercentage:
		return true
	default:
		return false
	}
}

// createPlanRequest captures the payload for creating a plan.
type createPlanRequest struct {
	Name         string          `json:"name"`          // Plan name.
	MinAmount    *float64        `json:"min_amount"`    // Minimum investable principal.
	MaxAmount    *float64        `json:"max_amount"`    // Maximum investable principal.
	YieldType    string          `json:"yield_type"`    // Yield model: fixed or percentage.
	YieldValue   *float64        `json:"yield_value"`   // Flat amount or percentage per day.
	DurationDays *int            `json:"duration_days"` // Plan lifetime in days.
	Metadata     json.RawMessage `json:"metadata"`      // Optional display metadata.
	SortOrder    int             `json:"sort_order"`    // Display order.
	IsEnabled    *bool           `json:"is_enabled"`    // Optional active flag.
}

// Create validates input and inserts a new plan.
func (h *PlanHandler) Create(c *gin.Context) {
	var body createPlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if body.MinAmount == nil || body.MaxAmount == nil || body.YieldValue == nil || body.DurationDays == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_amount, max_amount, yield_value and duration_days are required"})
		return
	}
	if *body.MinAmount <= 0 || *body.MaxAmount < *body.MinAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount range"})
		return
	}
	if !validYieldType(body.YieldType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "yield_type must be fixed or percentage"})
		return
	}
	if *body.YieldValue <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "yield_value must be positive"})
		return
	}
	if *body.DurationDays < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_days must be at least 1"})
		return
	}

	metadata, errMetadata := normalizePlanMetadata(body.Metadata)
	if errMetadata != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metadata"})
		return
	}

	isEnabled := true
	if body.IsEnabled != nil {
		isEnabled = *body.IsEnabled
	}

	now := time.Now().UTC()
	plan := models.Plan{
		Name:         strings.TrimSpace(body.Name),
		MinAmount:    *body.MinAmount,
		MaxAmount:    *body.MaxAmount,
		YieldType:    models.PlanYieldType(body.YieldType),
		YieldValue:   *body.YieldValue,
		DurationDays: *body.DurationDays,
		Metadata:     metadata,
		SortOrder:    body.SortOrder,
		IsEnabled:    isEnabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&plan).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create plan failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatPlan(&plan))
}

// List returns all plans, optionally filtered by enabled flag.
func (h *PlanHandler) List(c *gin.Context) {
	enabledQ := strings.TrimSpace(c.Query("is_enabled"))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Plan{})
	if enabledQ != "" {
		if enabledQ == "true" || enabledQ == "1" {
			q = q.Where("is_enabled = ?", true)
		} else if enabledQ == "false" || enabledQ == "0" {
			q = q.Where("is_enabled = ?", false)
		}
	}

	var rows []models.Plan
	if errFind := q.Order("sort_order ASC, created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatPlan(&row))
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Get fetches a plan by ID.
func (h *PlanHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var plan models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).First(&plan, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatPlan(&plan))
}

// updatePlanRequest captures optional fields for plan updates.
type updatePlanRequest struct {
	Name         *string          `json:"name"`          // Optional name update.
	MinAmount    *float64         `json:"min_amount"`    // Optional minimum principal.
	MaxAmount    *float64         `json:"max_amount"`    // Optional maximum principal.
	YieldType    *string          `json:"yield_type"`    // Optional yield model.
	YieldValue   *float64         `json:"yield_value"`   // Optional yield value.
	DurationDays *int             `json:"duration_days"` // Optional duration.
	Metadata     *json.RawMessage `json:"metadata"`      // Optional display metadata.
	SortOrder    *int             `json:"sort_order"`    // Optional display order.
	IsEnabled    *bool            `json:"is_enabled"`    // Optional active flag.
}

// Update applies an allow-listed partial merge over an existing plan.
func (h *PlanHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updatePlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}

	if body.Name != nil {
		n := strings.TrimSpace(*body.Name)
		if n == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = n
	}

	// Validate the amount range against the merged result, not each field alone.
	mergedMin := existing.MinAmount
	mergedMax := existing.MaxAmount
	if body.MinAmount != nil {
		mergedMin = *body.MinAmount
		updates["min_amount"] = *body.MinAmount
	}
	if body.MaxAmount != nil {
		mergedMax = *body.MaxAmount
		updates["max_amount"] = *body.MaxAmount
	}
	if mergedMin <= 0 || mergedMax < mergedMin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount range"})
		return
	}

	if body.YieldType != nil {
		if !validYieldType(*body.YieldType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "yield_type must be fixed or percentage"})
			return
		}
		updates["yield_type"] = *body.YieldType
	}
	if body.YieldValue != nil {
		if *body.YieldValue <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "yield_value must be positive"})
			return
		}
		updates["yield_value"] = *body.YieldValue
	}
	if body.DurationDays != nil {
		if *body.DurationDays < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration_days must be at least 1"})
			return
		}
		updates["duration_days"] = *body.DurationDays
	}
	if body.Metadata != nil {
		metadata, errMetadata := normalizePlanMetadata(*body.Metadata)
		if errMetadata != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metadata"})
			return
		}
		updates["metadata"] = metadata
	}
	if body.SortOrder != nil {
		updates["sort_order"] = *body.SortOrder
	}
	if body.IsEnabled != nil {
		updates["is_enabled"] = *body.IsEnabled
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Plan{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a plan unless any instance on it is still active.
//
// Existing instances keep their frozen terms, so removing the catalog entry
// never affects historical integrity.
func (h *PlanHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var activeHolders int64
	if errCount := h.db.WithContext(c.Request.Context()).Model(&models.PlanInstance{}).
		Where("plan_id = ? AND status = ?", id, models.InstanceStatusActive).
		Count(&activeHolders).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if activeHolders > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "plan in use"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.Plan{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Enable marks a plan as enabled.
func (h *PlanHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable marks a plan as disabled.
func (h *PlanHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

// setEnabled toggles the enabled state for a plan.
func (h *PlanHandler) setEnabled(c *gin.Context, enabled bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.Plan{}).Where("id = ?", id).
		Updates(map[string]any{"is_enabled": enabled, "updated_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// formatPlan converts a plan model into a response payload.
func (h *PlanHandler) formatPlan(p *models.Plan) gin.H {
	return gin.H{
		"id":            p.ID,
		"name":          p.Name,
		"min_amount":    p.MinAmount,
		"max_amount":    p.MaxAmount,
		"yield_type":    p.YieldType,
		"yield_value":   p.YieldValue,
		"duration_days": p.DurationDays,
		"metadata":      p.Metadata,
		"sort_order":    p.SortOrder,
		"is_enabled":    p.IsEnabled,
		"created_at":    p.CreatedAt,
		"updated_at":    p.UpdatedAt,
	}
}
