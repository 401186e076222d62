package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/climabot/config"
	"github.com/alejandrodnm/climabot/internal/adapters/kalshi"
	"github.com/alejandrodnm/climabot/internal/adapters/notify"
	"github.com/alejandrodnm/climabot/internal/adapters/storage"
	"github.com/alejandrodnm/climabot/internal/adapters/weather"
	"github.com/alejandrodnm/climabot/internal/domain"
	"github.com/alejandrodnm/climabot/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("climabot starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"min_edge", cfg.Scanner.MinEdge,
		"once", *once,
	)

	locations := weather.NewDirectory()

	client := kalshi.NewClient(cfg.API.KalshiBase)
	markets := kalshi.NewMarketProvider(client, locations)

	nws := weather.NewNWS(cfg.API.NWSAPIBase, cfg.API.NWSProductBase, cfg.API.NWSUserAgent)
	observations := weather.NewProvider(nws, locations)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	scanCfg := scanner.DefaultConfig()
	scanCfg.ScanInterval = cfg.ScanInterval()
	scanCfg.Bankroll = cfg.Scanner.Bankroll
	scanCfg.KellyFraction = cfg.Scanner.KellyFraction
	scanCfg.MinEdge = cfg.Scanner.MinEdge
	scanCfg.MinLiquidity = cfg.Scanner.MinLiquidity
	scanCfg.HedgeBudget = cfg.Scanner.HedgeBudget
	scanCfg.MaxHedgeLegs = cfg.Scanner.MaxHedgeLegs
	scanCfg.Workers = cfg.Scanner.Workers
	scanCfg.Once = *once
	scanCfg.Model = domain.ModelParams{
		SaturationDistance: cfg.Model.SaturationDistance,
		UncertaintyBand:    cfg.Model.UncertaintyBand,
		ConfidencePenalty:  cfg.Model.ConfidencePenalty,
		MaxProbability:     cfg.Model.MaxProbability,
	}

	s := scanner.New(scanCfg, markets, observations, store, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		slog.Error("scanner exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("climabot stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
