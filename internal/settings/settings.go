package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stakemine/StakeMineBusiness/internal/models"
	"gorm.io/gorm"
)

// ErrConfigurationMissing indicates required commission settings are absent.
//
// Every lifecycle operation loads the commission config first and fails fast
// on this error; commissions are never silently skipped.
var ErrConfigurationMissing = errors.New("settings: commission configuration missing")

// CommissionConfig is the commission-rate snapshot passed into lifecycle operations.
type CommissionConfig struct {
	ReferralRate float64 // Activation commission, percent of invested amount.
	DailyRate    float64 // Daily commission, percent of collected profit.
}

// LoadCommissionConfig reads commission rates from the settings table.
func LoadCommissionConfig(conn *gorm.DB) (CommissionConfig, error) {
	if conn == nil {
		return CommissionConfig{}, fmt.Errorf("settings: nil connection")
	}

	referralRate, errReferral := loadRate(conn, ReferralCommissionRateKey)
	if errReferral != nil {
		return CommissionConfig{}, errReferral
	}
	dailyRate, errDaily := loadRate(conn, DailyCommissionRateKey)
	if errDaily != nil {
		return CommissionConfig{}, errDaily
	}
	return CommissionConfig{ReferralRate: referralRate, DailyRate: dailyRate}, nil
}

// loadRate reads one percentage setting, failing closed when absent or invalid.
func loadRate(conn *gorm.DB, key string) (float64, error) {
	var row models.Setting
	errFind := conn.Where("key = ?", key).First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrConfigurationMissing, key)
		}
		return 0, fmt.Errorf("settings: read %s: %w", key, errFind)
	}

	rate, errParse := strconv.ParseFloat(strings.TrimSpace(row.Value), 64)
	if errParse != nil || rate < 0 {
		return 0, fmt.Errorf("%w: %s has invalid value %q", ErrConfigurationMissing, key, row.Value)
	}
	return rate, nil
}
