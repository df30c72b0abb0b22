package models

import "time"

// InstanceStatus represents the lifecycle state of a purchased plan.
type InstanceStatus string

// InstanceStatus constants define plan instance states.
const (
	// InstanceStatusActive marks an instance accruing daily profit.
	InstanceStatusActive InstanceStatus = "active"
	// InstanceStatusExpired marks an instance past its end date or superseded by an upgrade.
	InstanceStatusExpired InstanceStatus = "expired"
)

// PlanInstance records one purchase of a plan by a user.
//
// Instances are never deleted; expired rows remain as history so a user can
// renew them later. DailyProfit is computed once at creation from the plan's
// yield fields and is immutable afterwards.
type PlanInstance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"` // Owning user record.

	PlanID uint64 `gorm:"not null;index"`    // Purchased plan ID.
	Plan   Plan   `gorm:"foreignKey:PlanID"` // Purchased plan record.

	InvestedAmount float64 `gorm:"type:decimal(20,2);not null"` // Principal committed at purchase.
	DailyProfit    float64 `gorm:"type:decimal(20,2);not null"` // Frozen daily payout.

	StartDate       time.Time `gorm:"not null"` // Activation time.
	EndDate         time.Time `gorm:"not null"` // StartDate plus the plan duration.
	LastCollectedAt time.Time `gorm:"not null"` // Last profit collection time, defaults to StartDate.

	TotalCollected float64 `gorm:"type:decimal(20,2);not null;default:0"` // Cumulative collected profit.

	Status InstanceStatus `gorm:"type:varchar(32);not null;index"` // Current lifecycle state.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
