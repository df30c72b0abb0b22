package models

import (
	"time"

	"gorm.io/datatypes"
)

// PlanYieldType selects how a plan computes daily profit.
type PlanYieldType string

// PlanYieldType constants define the supported yield models.
const (
	// PlanYieldFixed pays a flat amount per day.
	PlanYieldFixed PlanYieldType = "fixed"
	// PlanYieldPercentage pays a percentage of the invested principal per day.
	PlanYieldPercentage PlanYieldType = "percentage"
)

// Plan represents an investment plan tier in the catalog.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name      string  `gorm:"type:varchar(255);not null"`  // Plan name.
	MinAmount float64 `gorm:"type:decimal(20,2);not null"` // Minimum investable principal.
	MaxAmount float64 `gorm:"type:decimal(20,2);not null"` // Maximum investable principal.

	YieldType    PlanYieldType `gorm:"type:varchar(32);not null"`   // Daily yield model.
	YieldValue   float64       `gorm:"type:decimal(20,2);not null"` // Flat amount or percentage per day.
	DurationDays int           `gorm:"not null"`                    // Plan lifetime in days.

	Metadata datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Display metadata (image URL, hash-rate label).

	SortOrder int  `gorm:"not null;default:0"`    // Display ordering weight.
	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan can be purchased.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
