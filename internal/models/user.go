package models

import "time"

// User represents an investor account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Email    string `gorm:"type:text;uniqueIndex"`          // Email address.

	WalletBalance float64 `gorm:"type:decimal(20,2);not null;default:0"` // Withdrawable wallet balance.
	BonusBalance  float64 `gorm:"type:decimal(20,2);not null;default:0"` // Promotional balance, spendable on activation only.

	InvitedByID *uint64 `gorm:"index"`                  // Referring user ID.
	InvitedBy   *User   `gorm:"foreignKey:InvitedByID"` // Referring user.

	// ActiveInstanceID references plan_instances without a declared
	// association; the tables reference each other and a declared foreign
	// key in both directions cannot be migrated in order.
	ActiveInstanceID *uint64 `gorm:"index"` // Current active plan instance ID.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
