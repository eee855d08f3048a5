// Package markreview wires the configured stores, notification bus and
// server client into the App consumed by commands and the TUI.
package markreview

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/markreview/internal/core/config"
	"github.com/colonyops/markreview/internal/core/jobs"
	"github.com/colonyops/markreview/internal/core/logging"
	"github.com/colonyops/markreview/internal/core/tools"
	"github.com/colonyops/markreview/internal/data/db"
	"github.com/colonyops/markreview/internal/data/stores"
	"github.com/colonyops/markreview/internal/markreview/sweep"
	"github.com/colonyops/markreview/internal/remote"
	tuinotify "github.com/colonyops/markreview/internal/tui/notify"
)

const sweepInterval = 5 * time.Minute

// App is the central entry point for all markreview operations.
// Commands and the TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config *config.Config
	DB     *db.DB
	KV     *stores.KVStore
	Bus    *tuinotify.Bus

	// History is nil when notifications.persist is off.
	History *stores.NotifyStore

	// Remote, Jobs and Tools are nil when no server is configured.
	Remote *remote.Client
	Jobs   *jobs.Service
	Tools  *tools.Service

	log       zerolog.Logger
	stopSweep context.CancelFunc
}

// Open builds an App from cfg. A corrupted database is moved aside and
// recreated.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg, log: logging.Component("app")}

	database, err := openDB(cfg, app.log)
	if err != nil {
		return nil, err
	}
	app.DB = database
	app.KV = stores.NewKVStore(database)

	var store *stores.NotifyStore
	if cfg.PersistNotifications() {
		store = stores.NewNotifyStore(database)
		app.History = store
		cutoff := time.Now().Add(-cfg.Notifications.Retention)
		if n, err := store.Prune(ctx, cutoff); err != nil {
			app.log.Warn().Err(err).Msg("prune notification history")
		} else if n > 0 {
			app.log.Debug().Int64("removed", n).Msg("pruned notification history")
		}
	}
	if store != nil {
		app.Bus = tuinotify.NewBus(store)
	} else {
		app.Bus = tuinotify.NewBus(nil)
	}

	if cfg.Server.BaseURL != "" {
		client, err := remote.New(remote.Options{
			BaseURL: cfg.Server.BaseURL,
			Timeout: cfg.HTTP.Timeout,
			Cookies: stores.NewCookieStore(app.KV, cfg.Server.SessionTTL),
		})
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("create server client: %w", err)
		}
		if err := client.Restore(ctx); err != nil {
			app.log.Warn().Err(err).Msg("restore server session")
		}
		app.Remote = client
		app.Jobs = jobs.NewService(client, logging.Component("jobs"))
		app.Tools = tools.NewService(client, app.Bus, logging.Component("tools"))
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	app.stopSweep = cancel
	go sweep.Start(sweepCtx, app.KV, sweepInterval)

	return app, nil
}

func openDB(cfg *config.Config, log zerolog.Logger) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil {
		return database, nil
	}
	if !stores.IsCorruptionError(err) {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database corrupted, starting fresh")
	if err := stores.RecoverFromCorruption(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("recover database: %w", err)
	}

	database, err = db.Open(cfg.DataDir, opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return database, nil
}

// RequireRemote returns the server client or an error naming the missing
// configuration.
func (a *App) RequireRemote() (*remote.Client, error) {
	if err := a.Config.RequireServer(); err != nil {
		return nil, err
	}
	if a.Remote == nil {
		return nil, fmt.Errorf("server client not initialised")
	}
	return a.Remote, nil
}

// Close stops background work and closes the database.
func (a *App) Close() error {
	if a.stopSweep != nil {
		a.stopSweep()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
