package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/stakemine/StakeMineBusiness/internal/models"
	"gorm.io/gorm"
)

// ErrInsufficientFunds indicates a debit would drive a balance negative.
var ErrInsufficientFunds = errors.New("ledger: insufficient funds")

// ErrInvalidAmount indicates a non-positive or non-finite amount.
var ErrInvalidAmount = errors.New("ledger: invalid amount")

// FundingSplit resolves how an invested amount is funded from the two balances.
//
// Bonus balance is consumed first up to the full amount; the remainder must
// come from the wallet. The split is all-or-nothing: when bonus plus wallet
// cannot cover the amount, no portion is considered spent and
// ErrInsufficientFunds is returned. Pure function, no persistence involved.
func FundingSplit(bonusBalance, walletBalance, amount float64) (bonusUsed, walletUsed float64, err error) {
	if !isFiniteAmount(amount) || amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if bonusBalance < 0 || walletBalance < 0 {
		return 0, 0, fmt.Errorf("ledger: negative balance (bonus=%.2f wallet=%.2f)", bonusBalance, walletBalance)
	}

	bonusUsed = amount
	if bonusBalance < amount {
		bonusUsed = bonusBalance
	}
	walletUsed = amount - bonusUsed
	if walletUsed > walletBalance {
		return 0, 0, ErrInsufficientFunds
	}
	return bonusUsed, walletUsed, nil
}

// isFiniteAmount reports whether the amount is a usable number.
func isFiniteAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DebitWallet atomically subtracts amount from the user's wallet balance.
//
// The update predicate guards against a concurrent writer draining the
// balance: zero rows affected means the funds are no longer there and the
// debit fails closed with no partial mutation.
func DebitWallet(tx *gorm.DB, userID uint64, amount float64) error {
	return debitBalance(tx, userID, "wallet_balance", amount)
}

// DebitBonus atomically subtracts amount from the user's bonus balance.
func DebitBonus(tx *gorm.DB, userID uint64, amount float64) error {
	return debitBalance(tx, userID, "bonus_balance", amount)
}

func debitBalance(tx *gorm.DB, userID uint64, column string, amount float64) error {
	if tx == nil {
		return errors.New("ledger: nil tx")
	}
	if !isFiniteAmount(amount) || amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND "+column+" >= ?", userID, amount).
		Updates(map[string]any{
			column:       gorm.Expr(column+" - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("ledger: debit %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// CreditWallet atomically adds amount to the user's wallet balance.
func CreditWallet(tx *gorm.DB, userID uint64, amount float64) error {
	if tx == nil {
		return errors.New("ledger: nil tx")
	}
	if !isFiniteAmount(amount) || amount < 0 {
		return ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("ledger: credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("ledger: credit wallet: user %d not found", userID)
	}
	return nil
}

// Record appends a signed ledger row for a wallet movement.
//
// Only wallet movements are ledgered; bonus-balance spend on activation is
// intentionally not recorded, so the per-user sum of Amount always equals
// the net wallet-balance change.
func Record(tx *gorm.DB, userID uint64, txType models.TransactionType, amount float64, description string, relatedUserID *uint64) error {
	if tx == nil {
		return errors.New("ledger: nil tx")
	}
	row := models.Transaction{
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		Description:   description,
		RelatedUserID: relatedUserID,
		CreatedAt:     time.Now().UTC(),
	}
	if errCreate := tx.Create(&row).Error; errCreate != nil {
		return fmt.Errorf("ledger: record %s: %w", txType, errCreate)
	}
	return nil
}

// Round2 rounds a currency amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
