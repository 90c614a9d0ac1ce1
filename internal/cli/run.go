package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quotewatch/internal/aggregate"
	"quotewatch/internal/alerts"
	"quotewatch/internal/feed"
	"quotewatch/internal/ingest"
	"quotewatch/internal/models"
	"quotewatch/internal/notify"
	"quotewatch/internal/series"
	"quotewatch/internal/stream"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine against the simulated feed",
		Long: `Seed historical candles for the configured symbols, then stream synthetic
quotes and trades through normalization, the series cache, the timeframe
aggregator and the alert pipeline until interrupted.`,
		Example: `  quotewatch run
  quotewatch run --symbols BTC/USD,ETH/USD`,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols, _ := cmd.Flags().GetStringSlice("symbols")
			if len(symbols) == 0 {
				symbols = app.Config.Feed.Symbols
			}
			return runEngine(cmd.Context(), app, symbols)
		},
	}
	cmd.Flags().StringSlice("symbols", nil, "symbols to feed (default: config feed.symbols)")
	return cmd
}

func runEngine(parent context.Context, app *App, symbols []string) error {
	cfg := app.Config
	logger := app.Logger

	store := series.NewStore(
		series.WithBulkCap(cfg.Engine.BulkCap),
		series.WithTickCap(cfg.Engine.TickCap),
	)
	engine := aggregate.NewEngine(store, logger)
	defer engine.Close()

	board := ingest.NewQuoteBoard()
	hub := stream.NewHub()
	defer hub.Close()

	router := ingest.NewRouter(store, board, hub, logger)

	registry := alerts.NewRegistry()
	for _, rule := range cfg.Alerts {
		if err := registry.Add(rule.ToAlert()); err != nil {
			return err
		}
	}

	processor := alerts.NewProcessorWithConfig(alerts.ProcessorConfig{
		Interval:     cfg.Engine.BatchInterval,
		MaxBatchSize: cfg.Engine.MaxBatchSize,
	}, registry, board, logger)

	notifier := notify.NewTerminalNotifier(logger)
	processor.SetOnTrigger(func(alert models.Alert) {
		// Synchronous by contract; delivery errors are the notifier's to log.
		if err := notifier.AlertTriggered(parent, alert); err != nil {
			logger.Error().Err(err).Str("alert", alert.ID).Msg("alert delivery failed")
		}
	})
	hub.RegisterConsumer(processor)

	sim := feed.NewSimulator(symbols, cfg.Feed.TickInterval, router, logger)
	if err := sim.SeedHistory(cfg.Feed.HistoryBars, models.Timeframe(cfg.Feed.Timeframe)); err != nil {
		return err
	}

	processor.Start()
	defer processor.Stop()

	// Stale-data pruning is the embedder's job, so the CLI schedules it.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(cfg.Engine.CleanupMaxAge / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				processor.CleanupStaleData(cfg.Engine.CleanupMaxAge)
			}
		}
	}()

	logger.Info().
		Strs("symbols", symbols).
		Int("alerts", registry.Count()).
		Dur("batch_interval", cfg.Engine.BatchInterval).
		Msg("engine running")

	if err := sim.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info().Msg("engine stopped")
	return nil
}
