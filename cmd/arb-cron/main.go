// arb-cron is the scheduled sweep: invoked by an external scheduler, it
// collects a round per configured crypto, stores schemes that clear the
// scan policy and prunes stale rows. One shot per invocation, no daemon.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/collector"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/config"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/redisfeed"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/scan"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/schemes"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/venues"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall sweep deadline")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if cfg.Postgres.DSN == "" {
		logger.Fatal("postgres dsn is required for the cron sweep")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := schemes.NewStore(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}
	defer store.Close()

	adapters := venues.Select(venues.Registry(cfg.CallTimeout()), cfg.Venues)
	col := collector.New(adapters, cfg.CallTimeout(), cfg.RoundTimeout(), cfg.Collector.Workers, logger)

	var runner *scan.Runner
	maxAge := time.Duration(cfg.Cron.MaxAgeHours) * time.Hour
	if cfg.Redis.Addr != "" {
		feed := redisfeed.NewPublisher(cfg)
		defer feed.Close()
		runner = scan.NewRunner(col, store, feed, maxAge, cfg.Cron.MinKeepPct, logger)
	} else {
		runner = scan.NewRunner(col, store, nil, maxAge, cfg.Cron.MinKeepPct, logger)
	}

	sum, err := runner.Sweep(ctx, cfg.Cron.Cryptos)
	if err != nil {
		logger.Error("sweep failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("sweep finished",
		zap.Int("new_schemes", sum.NewSchemes),
		zap.Int64("deleted_schemes", sum.DeletedSchemes),
		zap.Strings("errors", sum.Errors))
}
