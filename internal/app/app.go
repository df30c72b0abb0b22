package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stakemine/StakeMineBusiness/internal/config"
	"github.com/stakemine/StakeMineBusiness/internal/db"
	"github.com/stakemine/StakeMineBusiness/internal/http/api/admin"
	"github.com/stakemine/StakeMineBusiness/internal/http/api/front"
	"github.com/stakemine/StakeMineBusiness/internal/plans"
	"github.com/stakemine/StakeMineBusiness/internal/referral"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful HTTP shutdown on context cancellation.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the investment-plan API server.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	service := plans.NewService(conn, referral.NewEngine(conn))

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	admin.RegisterAdminRoutes(engine, conn)
	front.RegisterFrontRoutes(engine, service)

	addr := config.LoadListenAddr(configPath)
	server := &http.Server{Addr: addr, Handler: engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Infof("listening on %s with config=%s", addr, configPath)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return ctx.Err()
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
