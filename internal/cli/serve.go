package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pantrylabs/console/internal/config"
	"github.com/pantrylabs/console/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP server",
		Run:   runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		exitErr("open store", err)
	}
	defer cleanup()

	reg, err := loadRegistry()
	if err != nil {
		exitErr("load schema", err)
	}
	logger.Info("schema catalog loaded", zap.Strings("kinds", reg.Kinds()))

	srv := server.New(store, reg, funnelSource(cfg, store, logger), logger)
	if err := srv.Run(ctx, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitErr("serve", err)
	}
}
