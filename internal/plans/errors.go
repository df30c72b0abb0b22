package plans

import (
	"errors"
	"fmt"
	"time"

	"github.com/stakemine/StakeMineBusiness/internal/ledger"
	"github.com/stakemine/StakeMineBusiness/internal/settings"
)

// Errors returned by lifecycle operations. Validation always precedes
// mutation, so any of these means the primary user's records are untouched
// (except ErrPlanExpired, which commits the lazy expiry flip).
var (
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("plans: user not found")
	// ErrPlanNotFound indicates the plan is absent from the catalog or disabled.
	ErrPlanNotFound = errors.New("plans: plan not found")
	// ErrInstanceNotFound indicates the plan instance does not exist or belongs to another user.
	ErrInstanceNotFound = errors.New("plans: plan instance not found")
	// ErrActivePlanExists indicates the user already holds an active instance.
	ErrActivePlanExists = errors.New("plans: user already has an active plan")
	// ErrNoActivePlan indicates the user holds no active instance.
	ErrNoActivePlan = errors.New("plans: user has no active plan")
	// ErrPlanExpired indicates the active instance passed its end date; it has been flipped to expired.
	ErrPlanExpired = errors.New("plans: plan has expired")
	// ErrInstanceNotExpired indicates a renewal target that is still active.
	ErrInstanceNotExpired = errors.New("plans: plan instance is not expired")
	// ErrNotHigherTier indicates an upgrade target whose minimum amount is not strictly greater.
	ErrNotHigherTier = errors.New("plans: upgrade target is not a higher tier")

	// ErrInvalidAmount indicates a non-positive, non-finite, or out-of-range amount.
	ErrInvalidAmount = errors.New("plans: invalid amount")
	// ErrInsufficientFunds indicates the user's balances cannot cover the operation.
	ErrInsufficientFunds = errors.New("plans: insufficient funds")
	// ErrConfigurationMissing mirrors the settings failure for absent commission rates.
	ErrConfigurationMissing = settings.ErrConfigurationMissing
)

// mapLedgerError translates ledger sentinels into this package's errors so
// callers see plans-prefixed messages for plans operations.
func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, ledger.ErrInvalidAmount):
		return ErrInvalidAmount
	default:
		return err
	}
}

// CooldownError reports a collection attempted before the 24h cooldown elapsed.
type CooldownError struct {
	Remaining time.Duration // Time left until the next collection is allowed.
}

// Error implements the error interface.
func (e *CooldownError) Error() string {
	return fmt.Sprintf("plans: collection available in %.1f hours", e.Remaining.Hours())
}
