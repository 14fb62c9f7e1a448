// Command cambiovivo runs the live exchange dashboard: a refresh engine
// that reconciles USD quotes with CRM sales and purchase orders, plus the
// HTTP dashboard that presents each cycle's snapshot.
//
// Usage:
//
//	cambiovivo --config config.yaml
//	cambiovivo (uses CLI arguments)
//	cambiovivo setup (interactive configuration wizard)
//
// The record store URI comes from the MONGO_URI environment variable or a
// .env file next to the binary.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ruanmelo/cambiovivo/config"
	"github.com/ruanmelo/cambiovivo/dashboard"
	"github.com/ruanmelo/cambiovivo/internal/app"
	"github.com/ruanmelo/cambiovivo/internal/services/feed"
	"github.com/ruanmelo/cambiovivo/internal/services/schedule"
	"github.com/ruanmelo/cambiovivo/internal/setup"
	"github.com/ruanmelo/cambiovivo/internal/storage/records"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunWizard(); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := records.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("record store connection failed", zap.Error(err))
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	store := records.NewStore(client.Database(cfg.Database), logger)

	feedOpts := []feed.Option{feed.WithHistoryLimit(cfg.HistoryLimit)}
	if cfg.FeedBaseURL != "" {
		feedOpts = append(feedOpts, feed.WithBaseURL(cfg.FeedBaseURL))
	}
	quotes := feed.NewClient(cfg.Pair, feedOpts...)

	var gate app.Gate
	if cfg.GateEnabled {
		gate = schedule.NewGate(cfg.Timezone)
	}

	engine := app.NewEngine(app.Params{
		Feed:            quotes,
		Loader:          store,
		Gate:            gate,
		Logger:          logger,
		Location:        cfg.Timezone,
		RefreshInterval: cfg.RefreshInterval,
		IdleInterval:    cfg.IdleInterval,
		ReloadRecords:   cfg.ReloadRecords,
	})

	if err := engine.Bootstrap(ctx); err != nil {
		logger.Fatal("no usable seed data, refusing to start", zap.Error(err))
	}

	server := dashboard.NewServer(cfg.DashboardAddr, engine, engine)
	go func() {
		var srvErr error
		if len(cfg.TLSDomains) > 0 {
			srvErr = server.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.TLSCacheDir)
		} else {
			srvErr = server.Start(ctx)
		}
		if srvErr != nil {
			logger.Error("dashboard server stopped", zap.Error(srvErr))
		}
	}()

	logger.Info("refresh engine starting",
		zap.String("pair", cfg.Pair.String()),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Bool("gate_enabled", cfg.GateEnabled),
		zap.Bool("reload_records", cfg.ReloadRecords))

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("refresh engine stopped", zap.Error(err))
	}
}
