package models

import "time"

// Setting stores a single key/value configuration row.
type Setting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Key   string `gorm:"type:varchar(255);not null;uniqueIndex"` // Config key.
	Value string `gorm:"type:text;not null"`                     // Config value.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
