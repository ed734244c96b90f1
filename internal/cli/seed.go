package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pantrylabs/console/internal/config"
	"github.com/pantrylabs/console/internal/seed"
)

func init() {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo records into the configured backend",
		Run:   runSeed,
	}
	RootCmd.AddCommand(cmd)
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		exitErr("open store", err)
	}
	defer cleanup()

	backend, ok := store.(seed.Backend)
	if !ok {
		exitErr("seed", fmt.Errorf("storage engine %q does not accept inserts", cfg.Storage.Engine))
	}
	if err := seed.Run(ctx, backend, logger); err != nil {
		exitErr("seed", err)
	}
}
