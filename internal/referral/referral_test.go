package referral

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stakemine/StakeMineBusiness/internal/db"
	"github.com/stakemine/StakeMineBusiness/internal/models"
	"github.com/stakemine/StakeMineBusiness/internal/settings"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "referral-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username string, invitedBy *uint64) *models.User {
	t.Helper()
	user := models.User{Username: username, InvitedByID: invitedBy}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user %s: %v", username, errCreate)
	}
	return &user
}

func walletOf(t *testing.T, conn *gorm.DB, id uint64) float64 {
	t.Helper()
	var user models.User
	if errFind := conn.First(&user, id).Error; errFind != nil {
		t.Fatalf("load user %d: %v", id, errFind)
	}
	return user.WalletBalance
}

func testConfig() settings.CommissionConfig {
	return settings.CommissionConfig{ReferralRate: 10, DailyRate: 5}
}

func TestPayActivationCommission_CreditsInviter(t *testing.T) {
	conn := openTestDB(t)
	engine := NewEngine(conn)

	inviter := createUser(t, conn, "inviter", nil)
	downstream := createUser(t, conn, "downstream", &inviter.ID)

	if err := engine.PayActivationCommission(context.Background(), downstream, 1000, testConfig()); err != nil {
		t.Fatalf("pay activation commission: %v", err)
	}
	if got := walletOf(t, conn, inviter.ID); got != 100 {
		t.Fatalf("expected inviter wallet=100, got %.2f", got)
	}

	var row models.Transaction
	if errFind := conn.Where("user_id = ?", inviter.ID).First(&row).Error; errFind != nil {
		t.Fatalf("load commission transaction: %v", errFind)
	}
	if row.Type != models.TransactionTypeCommission || row.Amount != 100 {
		t.Fatalf("unexpected transaction row: %+v", row)
	}
	if row.RelatedUserID == nil || *row.RelatedUserID != downstream.ID {
		t.Fatalf("commission must reference the downstream user")
	}
}

func TestPayActivationCommission_NoInviterIsNoop(t *testing.T) {
	conn := openTestDB(t)
	engine := NewEngine(conn)

	orphan := createUser(t, conn, "orphan", nil)
	if err := engine.PayActivationCommission(context.Background(), orphan, 1000, testConfig()); err != nil {
		t.Fatalf("pay activation commission: %v", err)
	}

	var count int64
	if errCount := conn.Model(&models.Transaction{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count transactions: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no transactions, got %d", count)
	}
}

func TestPayActivationCommission_IgnoresInviterPlanStatus(t *testing.T) {
	conn := openTestDB(t)
	engine := NewEngine(conn)

	// The inviter holds no plan at all; activation commission is still owed.
	inviter := createUser(t, conn, "idle-inviter", nil)
	downstream := createUser(t, conn, "downstream", &inviter.ID)

	if err := engine.PayActivationCommission(context.Background(), downstream, 500, testConfig()); err != nil {
		t.Fatalf("pay activation commission: %v", err)
	}
	if got := walletOf(t, conn, inviter.ID); got != 50 {
		t.Fatalf("expected inviter wallet=50, got %.2f", got)
	}
}

func TestPayDailyCommission_RequiresActiveInviterInstance(t *testing.T) {
	conn := openTestDB(t)
	engine := NewEngine(conn)

	inviter := createUser(t, conn, "inviter", nil)
	downstream := createUser(t, conn, "downstream", &inviter.ID)

	// No active instance: nothing is paid and no error is raised.
	if err := engine.PayDailyCommission(context.Background(), downstream, 20, testConfig()); err != nil {
		t.Fatalf("pay daily commission: %v", err)
	}
	if got := walletOf(t, conn, inviter.ID); got != 0 {
		t.Fatalf("inactive inviter must not be paid, wallet=%.2f", got)
	}

	// Give the inviter an active instance.
	plan := models.Plan{Name: "P", MinAmount: 100, MaxAmount: 1000, YieldType: models.PlanYieldFixed, YieldValue: 1, DurationDays: 30, Metadata: []byte("{}"), IsEnabled: true}
	if errCreate := conn.Create(&plan).Error; errCreate != nil {
		t.Fatalf("create plan: %v", errCreate)
	}
	now := time.Now().UTC()
	instance := models.PlanInstance{
		UserID:          inviter.ID,
		PlanID:          plan.ID,
		InvestedAmount:  100,
		DailyProfit:     1,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, 30),
		LastCollectedAt: now,
		Status:          models.InstanceStatusActive,
	}
	if errCreate := conn.Create(&instance).Error; errCreate != nil {
		t.Fatalf("create instance: %v", errCreate)
	}
	if errUpdate := conn.Model(&models.User{}).Where("id = ?", inviter.ID).
		Update("active_instance_id", instance.ID).Error; errUpdate != nil {
		t.Fatalf("set active instance: %v", errUpdate)
	}

	if err := engine.PayDailyCommission(context.Background(), downstream, 20, testConfig()); err != nil {
		t.Fatalf("pay daily commission: %v", err)
	}
	if got := walletOf(t, conn, inviter.ID); got != 1 {
		t.Fatalf("expected 5%% of 20 = 1, got %.2f", got)
	}

	// Flip the instance to expired; the stored status is authoritative.
	if errUpdate := conn.Model(&models.PlanInstance{}).Where("id = ?", instance.ID).
		Update("status", models.InstanceStatusExpired).Error; errUpdate != nil {
		t.Fatalf("expire instance: %v", errUpdate)
	}
	if err := engine.PayDailyCommission(context.Background(), downstream, 20, testConfig()); err != nil {
		t.Fatalf("pay daily commission: %v", err)
	}
	if got := walletOf(t, conn, inviter.ID); got != 1 {
		t.Fatalf("expired inviter must not be paid, wallet=%.2f", got)
	}
}

func TestPayDailyCommission_ZeroRatePaysNothing(t *testing.T) {
	conn := openTestDB(t)
	engine := NewEngine(conn)

	inviter := createUser(t, conn, "inviter", nil)
	downstream := createUser(t, conn, "downstream", &inviter.ID)

	cfg := settings.CommissionConfig{ReferralRate: 0, DailyRate: 0}
	if err := engine.PayActivationCommission(context.Background(), downstream, 1000, cfg); err != nil {
		t.Fatalf("pay activation commission: %v", err)
	}
	if got := walletOf(t, conn, inviter.ID); got != 0 {
		t.Fatalf("zero rate must pay nothing, wallet=%.2f", got)
	}
}
