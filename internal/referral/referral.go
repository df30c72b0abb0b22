package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/stakemine/StakeMineBusiness/internal/ledger"
	"github.com/stakemine/StakeMineBusiness/internal/models"
	"github.com/stakemine/StakeMineBusiness/internal/settings"
	"gorm.io/gorm"
)

// Engine disburses single-hop referral commissions.
//
// Commission payouts run in their own transaction after the downstream
// user's operation has committed. They are best-effort by contract: callers
// log failures and never roll back the primary mutation.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs an Engine.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// PayActivationCommission credits the inviter after a downstream activation.
//
// Paid whenever the inviter exists, regardless of the inviter's own plan
// status. Returns nil when the user has no inviter.
func (e *Engine) PayActivationCommission(ctx context.Context, user *models.User, investedAmount float64, cfg settings.CommissionConfig) error {
	if e == nil || e.db == nil {
		return errors.New("referral: not initialized")
	}
	if user == nil || user.InvitedByID == nil {
		return nil
	}

	amount := ledger.Round2(investedAmount * cfg.ReferralRate / 100)
	if amount <= 0 {
		return nil
	}
	description := fmt.Sprintf("activation commission from user %d", user.ID)
	return e.credit(ctx, *user.InvitedByID, user.ID, amount, description)
}

// PayDailyCommission credits the inviter after a downstream daily collection.
//
// Paid only while the inviter currently holds an active plan instance.
func (e *Engine) PayDailyCommission(ctx context.Context, user *models.User, dailyProfit float64, cfg settings.CommissionConfig) error {
	if e == nil || e.db == nil {
		return errors.New("referral: not initialized")
	}
	if user == nil || user.InvitedByID == nil {
		return nil
	}

	active, errActive := e.inviterHasActiveInstance(ctx, *user.InvitedByID)
	if errActive != nil {
		return errActive
	}
	if !active {
		return nil
	}

	amount := ledger.Round2(dailyProfit * cfg.DailyRate / 100)
	if amount <= 0 {
		return nil
	}
	description := fmt.Sprintf("daily commission from user %d", user.ID)
	return e.credit(ctx, *user.InvitedByID, user.ID, amount, description)
}

// inviterHasActiveInstance reports whether the inviter holds an active instance.
//
// The stored status is authoritative: expiry is evaluated lazily on the
// inviter's own collections, not here.
func (e *Engine) inviterHasActiveInstance(ctx context.Context, inviterID uint64) (bool, error) {
	var inviter models.User
	if errFind := e.db.WithContext(ctx).First(&inviter, inviterID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("referral: load inviter %d: %w", inviterID, errFind)
	}
	if inviter.ActiveInstanceID == nil {
		return false, nil
	}

	var count int64
	if errCount := e.db.WithContext(ctx).Model(&models.PlanInstance{}).
		Where("id = ? AND status = ?", *inviter.ActiveInstanceID, models.InstanceStatusActive).
		Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("referral: check inviter instance: %w", errCount)
	}
	return count > 0, nil
}

// credit applies the commission atomically: wallet credit plus ledger row.
func (e *Engine) credit(ctx context.Context, inviterID, downstreamID uint64, amount float64, description string) error {
	related := downstreamID
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCredit := ledger.CreditWallet(tx, inviterID, amount); errCredit != nil {
			return errCredit
		}
		return ledger.Record(tx, inviterID, models.TransactionTypeCommission, amount, description, &related)
	})
}
