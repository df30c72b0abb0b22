package db

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/stakemine/StakeMineBusiness/internal/models"
	internalsettings "github.com/stakemine/StakeMineBusiness/internal/settings"
	"gorm.io/gorm"
)

// Migrate applies the schema and seeds required settings rows.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.Plan{},
		&models.User{},
		&models.PlanInstance{},
		&models.Transaction{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureCommissionSettings(conn); errSeed != nil {
		return errSeed
	}

	if errIndex := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_plan_instances_plan_status
		ON plan_instances (plan_id, status)
	`).Error; errIndex != nil {
		return fmt.Errorf("db: create instance index: %w", errIndex)
	}
	return nil
}

// ensureCommissionSettings seeds default commission rates when missing.
func ensureCommissionSettings(conn *gorm.DB) error {
	defaults := map[string]float64{
		internalsettings.ReferralCommissionRateKey: internalsettings.DefaultReferralCommissionRate,
		internalsettings.DailyCommissionRateKey:    internalsettings.DefaultDailyCommissionRate,
	}
	for key, value := range defaults {
		var existing models.Setting
		errFind := conn.Where("key = ?", key).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: read setting %s: %w", key, errFind)
		}
		row := models.Setting{
			Key:   key,
			Value: strconv.FormatFloat(value, 'f', -1, 64),
		}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: seed setting %s: %w", key, errCreate)
		}
	}
	return nil
}
