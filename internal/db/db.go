package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by the DSN.
//
// DSNs beginning with "file:" or ending in ".db" open an embedded SQLite
// database; anything else is treated as a PostgreSQL connection string.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if isSQLiteDSN(dsn) {
		conn, err := gorm.Open(sqlite.Open(sqliteDSNWithOptions(dsn)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", err)
		}
		return conn, nil
	}

	conn, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("db: open postgres: %w", err)
	}
	return conn, nil
}

// isSQLiteDSN reports whether the DSN targets an embedded SQLite file.
func isSQLiteDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return false
	}
	if strings.HasPrefix(lower, "file:") || lower == ":memory:" {
		return true
	}
	trimmed := lower
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.HasSuffix(trimmed, ".db") || strings.HasSuffix(trimmed, ".sqlite")
}

// sqliteDSNWithOptions appends busy-timeout and journal options when absent.
func sqliteDSNWithOptions(dsn string) string {
	if strings.Contains(dsn, "_pragma") || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
