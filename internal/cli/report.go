package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pantrylabs/console/internal/analytics"
	"github.com/pantrylabs/console/internal/config"
)

var (
	reportRange       string
	reportGranularity string
)

func init() {
	cmd := &cobra.Command{
		Use:   "report [kind]",
		Short: "Print a one-shot analytics report for an entity kind",
		Args:  cobra.ExactArgs(1),
		Run:   runReport,
	}
	cmd.Flags().StringVar(&reportRange, "range", "all", "Date range: day, week, month, year, all")
	cmd.Flags().StringVar(&reportGranularity, "granularity", "day", "Trend buckets: day, week, month")
	RootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, args []string) {
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

	reg, err := loadRegistry()
	if err != nil {
		exitErr("load schema", err)
	}

	kind := args[0]
	es, ok := reg.Schema(kind)
	if !ok {
		exitErr("report", fmt.Errorf("unknown entity kind %q", kind))
	}

	records, err := store.FetchCollection(ctx, kind)
	if err != nil {
		exitErr("fetch records", err)
	}

	now := time.Now()
	report := map[string]any{
		"summary": analytics.Summarize(es, records, analytics.DateRange(reportRange), now),
		"trend":   analytics.BuildTrend(records, analytics.Granularity(reportGranularity), now),
	}
	if kind == "signup" {
		counts, err := funnelSource(cfg, store, logger).StageCounts(ctx)
		if err != nil {
			exitErr("funnel counts", err)
		}
		report["funnel"] = analytics.BuildFunnel(counts)
	}

	b, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(b))
}
