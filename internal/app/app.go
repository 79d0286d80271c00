package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_quill/internal/ai"
	"github.com/bassista/go_quill/internal/config"
	"github.com/bassista/go_quill/internal/logger"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/bassista/go_quill/internal/settings"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config       *config.Config
	DB           *repository.DB
	SettingsRepo settings.Repository
	Settings     settings.AppStore
	AI           ai.Suggester

	BaseCtx context.Context
	Cancel  context.CancelFunc

	persisted <-chan struct{}
}

func New(cfg *config.Config, db *repository.DB, repo settings.Repository, store settings.AppStore, suggester ai.Suggester) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("database is nil")
	}
	if repo == nil {
		return nil, errors.New("settings repo is nil")
	}
	if store == nil {
		return nil, errors.New("settings store is nil")
	}
	if suggester == nil {
		suggester = ai.Noop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:       cfg,
		DB:           db,
		SettingsRepo: repo,
		Settings:     store,
		AI:           suggester,
		BaseCtx:      ctx,
		Cancel:       cancel,
	}, nil
}

// StartWatchers starts the settings file watcher and the persistence scheduler.
// Both stop when BaseCtx is cancelled.
func (a *App) StartWatchers() error {
	if err := a.SettingsRepo.StartWatcher(a.BaseCtx, a.Settings); err != nil {
		return fmt.Errorf("cannot start settings file watcher: %w", err)
	}
	a.persisted = settings.StartPersistenceScheduler(a.BaseCtx, a.Settings, a.SettingsRepo, a.Config.Data.PersistInterval)
	return nil
}

// Shutdown cancels background work, waits for the final settings flush and
// closes the database.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	if a.persisted != nil {
		<-a.persisted
	}
	if err := a.DB.Close(); err != nil {
		logger.WithComponent("app").Warnf("close database: %v", err)
	}
}
