package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/api"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/collector"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/config"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/metrics"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/redisfeed"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/scan"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/schemes"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/venues"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/venues/p2p"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.DebugLevel),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("signal received, shutting down")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger)

	adapters := venues.Select(venues.Registry(cfg.CallTimeout()), cfg.Venues)
	col := collector.New(adapters, cfg.CallTimeout(), cfg.RoundTimeout(), cfg.Collector.Workers, logger)

	p2pClients := []p2p.Client{
		p2p.NewBinanceP2P("", cfg.CallTimeout()),
		p2p.NewBybitOTC("", cfg.CallTimeout()),
	}

	var store *schemes.Store
	var runner *scan.Runner
	if cfg.Postgres.DSN != "" {
		store, err = schemes.NewStore(cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal("postgres init failed", zap.Error(err))
		}
		defer store.Close()

		var feedPub *redisfeed.Publisher
		if cfg.Redis.Addr != "" {
			feedPub = redisfeed.NewPublisher(cfg)
			defer feedPub.Close()
		}
		maxAge := time.Duration(cfg.Cron.MaxAgeHours) * time.Hour
		if feedPub != nil {
			runner = scan.NewRunner(col, store, feedPub, maxAge, cfg.Cron.MinKeepPct, logger)
		} else {
			runner = scan.NewRunner(col, store, nil, maxAge, cfg.Cron.MinKeepPct, logger)
		}
	} else {
		logger.Warn("postgres not configured; /schemes endpoints disabled")
	}

	srv := api.New(cfg, col, p2pClients, store, runner, logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api shutdown error", zap.Error(err))
		}
	}()

	logger.Info("api started",
		zap.String("listen", cfg.Listen),
		zap.Int("venues", len(adapters)))

	if err := srv.Start(); err != nil && ctx.Err() == nil {
		logger.Fatal("api server error", zap.Error(err))
	}
}
