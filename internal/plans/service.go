package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stakemine/StakeMineBusiness/internal/db"
	"github.com/stakemine/StakeMineBusiness/internal/ledger"
	"github.com/stakemine/StakeMineBusiness/internal/models"
	"github.com/stakemine/StakeMineBusiness/internal/referral"
	"github.com/stakemine/StakeMineBusiness/internal/settings"
	"github.com/stakemine/StakeMineBusiness/internal/userlock"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// collectionCooldown is the minimum gap between two profit collections.
const collectionCooldown = 24 * time.Hour

// Service executes plan lifecycle operations against the shared store.
//
// Each operation runs as one atomic unit for the primary user: a per-user
// in-process lock plus a FOR UPDATE lock on the user row (where the dialect
// supports it) serialize concurrent requests, and all validation happens
// before any mutation inside a single transaction. Referral payouts run
// afterwards as an independent best-effort step.
type Service struct {
	db        *gorm.DB
	locks     *userlock.Registry
	referrals *referral.Engine
	nowFn     func() time.Time
}

// NewService constructs a Service with default dependencies when nil.
func NewService(conn *gorm.DB, referrals *referral.Engine) *Service {
	if referrals == nil {
		referrals = referral.NewEngine(conn)
	}
	return &Service{
		db:        conn,
		locks:     userlock.NewRegistry(),
		referrals: referrals,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock, for tests.
func (s *Service) SetNowFunc(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// ActivationResult reports how an activation was funded.
type ActivationResult struct {
	Instance   *models.PlanInstance // Created active instance.
	BonusUsed  float64              // Portion funded from the bonus balance.
	WalletUsed float64              // Portion funded from the wallet balance.
}

// Activate purchases a plan for a user with bonus-first funding.
func (s *Service) Activate(ctx context.Context, userID, planID uint64, amount float64) (*ActivationResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cfg, errCfg := settings.LoadCommissionConfig(s.db.WithContext(ctx))
	if errCfg != nil {
		return nil, errCfg
	}

	var (
		user   models.User
		result ActivationResult
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errUser := loadUserForUpdate(tx, userID, &user); errUser != nil {
			return errUser
		}
		if user.ActiveInstanceID != nil {
			return ErrActivePlanExists
		}

		var plan models.Plan
		if errPlan := loadPurchasablePlan(tx, planID, &plan); errPlan != nil {
			return errPlan
		}

		if amount < plan.MinAmount || amount > plan.MaxAmount {
			return fmt.Errorf("%w: %.2f outside [%.2f, %.2f]", ErrInvalidAmount, amount, plan.MinAmount, plan.MaxAmount)
		}

		bonusUsed, walletUsed, errSplit := ledger.FundingSplit(user.BonusBalance, user.WalletBalance, amount)
		if errSplit != nil {
			return mapLedgerError(errSplit)
		}

		if errDebit := ledger.DebitBonus(tx, userID, bonusUsed); errDebit != nil {
			return mapLedgerError(errDebit)
		}
		if errDebit := ledger.DebitWallet(tx, userID, walletUsed); errDebit != nil {
			return mapLedgerError(errDebit)
		}

		instance, errCreate := s.createInstance(tx, &user, &plan, amount)
		if errCreate != nil {
			return errCreate
		}

		// Only the wallet portion is ledgered; bonus spend has no row.
		if walletUsed > 0 {
			description := fmt.Sprintf("invested in plan %s", plan.Name)
			if errRecord := ledger.Record(tx, userID, models.TransactionTypeInvestment, -walletUsed, description, nil); errRecord != nil {
				return errRecord
			}
		}

		result = ActivationResult{Instance: instance, BonusUsed: bonusUsed, WalletUsed: walletUsed}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	if errPay := s.referrals.PayActivationCommission(ctx, &user, amount, cfg); errPay != nil {
		log.WithError(errPay).WithField("user_id", userID).Warn("plans: activation commission failed")
	}
	return &result, nil
}

// Upgrade moves a user's active instance to a strictly higher tier.
//
// The user pays only the difference between the tier minimums; the new
// instance's principal is pegged to the new plan's minimum amount.
func (s *Service) Upgrade(ctx context.Context, userID, newPlanID uint64) (*models.PlanInstance, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, errCfg := settings.LoadCommissionConfig(s.db.WithContext(ctx)); errCfg != nil {
		return nil, errCfg
	}

	var created *models.PlanInstance
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errUser := loadUserForUpdate(tx, userID, &user); errUser != nil {
			return errUser
		}
		if user.ActiveInstanceID == nil {
			return ErrNoActivePlan
		}

		var current models.PlanInstance
		if errFind := tx.First(&current, *user.ActiveInstanceID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrInstanceNotFound
			}
			return fmt.Errorf("plans: load active instance: %w", errFind)
		}

		var oldPlan models.Plan
		if errFind := tx.First(&oldPlan, current.PlanID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return fmt.Errorf("plans: load current plan: %w", errFind)
		}

		var newPlan models.Plan
		if errPlan := loadPurchasablePlan(tx, newPlanID, &newPlan); errPlan != nil {
			return errPlan
		}

		// Tiers compare by minimum amount, not by what the user invested.
		if newPlan.MinAmount <= oldPlan.MinAmount {
			return ErrNotHigherTier
		}

		priceDifference := ledger.Round2(newPlan.MinAmount - oldPlan.MinAmount)
		if errDebit := ledger.DebitWallet(tx, userID, priceDifference); errDebit != nil {
			return mapLedgerError(errDebit)
		}

		if errExpire := expireInstance(tx, current.ID, s.nowFn()); errExpire != nil {
			return errExpire
		}

		instance, errCreate := s.createInstance(tx, &user, &newPlan, newPlan.MinAmount)
		if errCreate != nil {
			return errCreate
		}

		description := fmt.Sprintf("upgraded to plan %s", newPlan.Name)
		if errRecord := ledger.Record(tx, userID, models.TransactionTypeInvestment, -priceDifference, description, nil); errRecord != nil {
			return errRecord
		}

		created = instance
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return created, nil
}

// Collect pays out one day of profit after the cooldown has elapsed.
//
// Expiry is evaluated lazily here: an instance past its end date is flipped
// to expired, the user's active reference is cleared, and the committed flip
// is reported as ErrPlanExpired with no payout.
func (s *Service) Collect(ctx context.Context, userID uint64) (*models.PlanInstance, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cfg, errCfg := settings.LoadCommissionConfig(s.db.WithContext(ctx))
	if errCfg != nil {
		return nil, errCfg
	}

	var (
		user     models.User
		instance models.PlanInstance
		expired  bool
	)
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errUser := loadUserForUpdate(tx, userID, &user); errUser != nil {
			return errUser
		}
		if user.ActiveInstanceID == nil {
			return ErrNoActivePlan
		}
		if errFind := tx.First(&instance, *user.ActiveInstanceID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrInstanceNotFound
			}
			return fmt.Errorf("plans: load active instance: %w", errFind)
		}

		now := s.nowFn()
		if now.After(instance.EndDate) {
			if errExpire := expireInstance(tx, instance.ID, now); errExpire != nil {
				return errExpire
			}
			if errClear := clearActiveInstance(tx, userID, now); errClear != nil {
				return errClear
			}
			// Commit the flip; the caller still sees a failure.
			expired = true
			return nil
		}

		nextEligible := instance.LastCollectedAt.Add(collectionCooldown)
		if now.Before(nextEligible) {
			return &CooldownError{Remaining: nextEligible.Sub(now)}
		}

		if errCredit := ledger.CreditWallet(tx, userID, instance.DailyProfit); errCredit != nil {
			return errCredit
		}
		// The row is held under the per-user lock, so the read-modify-write is
		// safe; rounding before the write keeps the stored total identical to
		// the reported one across many collections.
		newTotal := ledger.Round2(instance.TotalCollected + instance.DailyProfit)
		res := tx.Model(&models.PlanInstance{}).
			Where("id = ?", instance.ID).
			Updates(map[string]any{
				"last_collected_at": now,
				"total_collected":   newTotal,
				"updated_at":        now,
			})
		if res.Error != nil {
			return fmt.Errorf("plans: update collection clock: %w", res.Error)
		}

		description := fmt.Sprintf("daily profit for plan instance %d", instance.ID)
		if errRecord := ledger.Record(tx, userID, models.TransactionTypeCollection, instance.DailyProfit, description, nil); errRecord != nil {
			return errRecord
		}

		instance.LastCollectedAt = now
		instance.TotalCollected = newTotal
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	if expired {
		return nil, ErrPlanExpired
	}

	if errPay := s.referrals.PayDailyCommission(ctx, &user, instance.DailyProfit, cfg); errPay != nil {
		log.WithError(errPay).WithField("user_id", userID).Warn("plans: daily commission failed")
	}
	return &instance, nil
}

// Renew re-activates an expired instance, funded entirely from the wallet.
//
// The renewal cost and the new daily profit come from the plan's current
// catalog entry, not from the expired instance's frozen terms.
func (s *Service) Renew(ctx context.Context, userID, instanceID uint64) (*models.PlanInstance, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, errCfg := settings.LoadCommissionConfig(s.db.WithContext(ctx)); errCfg != nil {
		return nil, errCfg
	}

	var created *models.PlanInstance
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errUser := loadUserForUpdate(tx, userID, &user); errUser != nil {
			return errUser
		}

		var old models.PlanInstance
		if errFind := tx.First(&old, instanceID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrInstanceNotFound
			}
			return fmt.Errorf("plans: load instance: %w", errFind)
		}
		if old.UserID != userID {
			return ErrInstanceNotFound
		}
		if old.Status != models.InstanceStatusExpired {
			return ErrInstanceNotExpired
		}
		if user.ActiveInstanceID != nil {
			return ErrActivePlanExists
		}

		var plan models.Plan
		if errFind := tx.First(&plan, old.PlanID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return fmt.Errorf("plans: load plan: %w", errFind)
		}

		renewalCost := plan.MinAmount
		if errDebit := ledger.DebitWallet(tx, userID, renewalCost); errDebit != nil {
			return mapLedgerError(errDebit)
		}

		instance, errCreate := s.createInstance(tx, &user, &plan, renewalCost)
		if errCreate != nil {
			return errCreate
		}

		description := fmt.Sprintf("renewed plan %s", plan.Name)
		if errRecord := ledger.Record(tx, userID, models.TransactionTypeInvestment, -renewalCost, description, nil); errRecord != nil {
			return errRecord
		}

		created = instance
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return created, nil
}

// ListPlans returns the purchasable catalog in display order.
func (s *Service) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var rows []models.Plan
	if errFind := s.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Order("sort_order ASC, created_at DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("plans: list: %w", errFind)
	}
	return rows, nil
}

// Status returns the user's balances and active instance, if any.
func (s *Service) Status(ctx context.Context, userID uint64) (*models.User, *models.PlanInstance, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("plans: load user: %w", errFind)
	}
	if user.ActiveInstanceID == nil {
		return &user, nil, nil
	}
	var instance models.PlanInstance
	if errFind := s.db.WithContext(ctx).First(&instance, *user.ActiveInstanceID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return &user, nil, nil
		}
		return nil, nil, fmt.Errorf("plans: load active instance: %w", errFind)
	}
	return &user, &instance, nil
}

// createInstance inserts a new active instance and points the user at it.
func (s *Service) createInstance(tx *gorm.DB, user *models.User, plan *models.Plan, amount float64) (*models.PlanInstance, error) {
	now := s.nowFn()
	instance := models.PlanInstance{
		UserID:          user.ID,
		PlanID:          plan.ID,
		InvestedAmount:  ledger.Round2(amount),
		DailyProfit:     DailyProfit(plan, amount),
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, plan.DurationDays),
		LastCollectedAt: now,
		TotalCollected:  0,
		Status:          models.InstanceStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if errCreate := tx.Create(&instance).Error; errCreate != nil {
		return nil, fmt.Errorf("plans: create instance: %w", errCreate)
	}

	res := tx.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"active_instance_id": instance.ID, "updated_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("plans: set active instance: %w", res.Error)
	}
	return &instance, nil
}

// DailyProfit computes the frozen daily payout for a plan and principal.
func DailyProfit(plan *models.Plan, amount float64) float64 {
	if plan.YieldType == models.PlanYieldPercentage {
		return ledger.Round2(amount * plan.YieldValue / 100)
	}
	return ledger.Round2(plan.YieldValue)
}

// loadUserForUpdate loads and row-locks the user for the transaction.
func loadUserForUpdate(tx *gorm.DB, userID uint64, out *models.User) error {
	if errFind := db.LockForUpdate(tx).First(out, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("plans: load user: %w", errFind)
	}
	return nil
}

// loadPurchasablePlan loads a plan that exists and is enabled for purchase.
func loadPurchasablePlan(tx *gorm.DB, planID uint64, out *models.Plan) error {
	if errFind := tx.First(out, planID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("plans: load plan: %w", errFind)
	}
	if !out.IsEnabled {
		return ErrPlanNotFound
	}
	return nil
}

// expireInstance flips an instance to expired.
func expireInstance(tx *gorm.DB, instanceID uint64, now time.Time) error {
	res := tx.Model(&models.PlanInstance{}).
		Where("id = ?", instanceID).
		Updates(map[string]any{"status": models.InstanceStatusExpired, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("plans: expire instance: %w", res.Error)
	}
	return nil
}

// clearActiveInstance detaches the user from their active instance.
func clearActiveInstance(tx *gorm.DB, userID uint64, now time.Time) error {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"active_instance_id": nil, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("plans: clear active instance: %w", res.Error)
	}
	return nil
}
