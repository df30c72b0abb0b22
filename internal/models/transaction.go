package models

import "time"

// TransactionType classifies ledger entries.
type TransactionType string

// TransactionType constants define ledger entry kinds.
const (
	// TransactionTypeInvestment records principal leaving the wallet.
	TransactionTypeInvestment TransactionType = "investment"
	// TransactionTypeCommission records a referral payout.
	TransactionTypeCommission TransactionType = "commission"
	// TransactionTypeCollection records a daily profit payout.
	TransactionTypeCollection TransactionType = "collection"
)

// Transaction is an append-only ledger row for wallet movements.
//
// Amount is signed: negative values are wallet debits, positive values are
// credits. Rows are never updated or deleted, so for any user the sum of
// Amount since account creation equals the net wallet-balance change.
type Transaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   User   `gorm:"foreignKey:UserID"` // Owning user record.

	Type        TransactionType `gorm:"type:varchar(32);not null;index"` // Ledger entry kind.
	Amount      float64         `gorm:"type:decimal(20,2);not null"`     // Signed amount, negative = debit.
	Description string          `gorm:"type:text"`                       // Human-readable context.

	RelatedUserID *uint64 `gorm:"index"` // Downstream user for commission rows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
