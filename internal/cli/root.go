// Package cli implements the console's commands: serve, report, and seed.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pantrylabs/console/internal/config"
	"github.com/pantrylabs/console/internal/funnel"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "console",
	Short: "Record inspector and analytics console",
	Long:  "Schema-driven console over heterogeneous nutrition records: browse, edit, and analyze collections from one binary.",
}

func newLogger(cfg *config.Config) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// openStore builds the configured record backend. The returned cleanup
// closes whatever the engine opened.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Engine {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "remote":
		return storage.NewRemoteStore(cfg.Storage.RemoteURL, cfg.Storage.RemoteTimeout, logger), func() {}, nil
	default:
		db, err := sql.Open("sqlite", "file:"+cfg.Storage.DBPath+"?_pragma=journal_mode(WAL)")
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		db.SetMaxOpenConns(1)
		store := storage.NewSQLiteStore(db, logger)
		if err := store.Init(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("initializing schema: %w", err)
		}
		return store, func() { db.Close() }, nil
	}
}

// funnelSource picks measured counts when an event pipeline is configured,
// otherwise estimates from the live signup record set.
func funnelSource(cfg *config.Config, store storage.Store, logger *zap.Logger) funnel.Source {
	if cfg.Analytics.FunnelEventsURL != "" {
		return funnel.NewPipelineSource(cfg.Analytics.FunnelEventsURL, logger)
	}
	return funnel.EstimatedSource{
		CountSignups: func(ctx context.Context) (int, error) {
			records, err := store.FetchCollection(ctx, "signup")
			if err != nil {
				return 0, err
			}
			return len(records), nil
		},
	}
}

func loadRegistry() (*schema.Registry, error) {
	reg, err := schema.Load()
	if err != nil {
		return nil, fmt.Errorf("loading schema catalog: %w", err)
	}
	return reg, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
