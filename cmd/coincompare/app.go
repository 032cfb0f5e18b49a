package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"CoinCompare/internal/aggregator"
	"CoinCompare/internal/cache"
	"CoinCompare/internal/collector"
	"CoinCompare/internal/config"
	"CoinCompare/internal/logging"
	"CoinCompare/internal/metrics"
	"CoinCompare/internal/model"
	"CoinCompare/internal/notifier"
	"CoinCompare/internal/report"
	"CoinCompare/internal/scheduler"
	"CoinCompare/internal/server"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// setup loads .env, the config file and the logger shared by every command.
func setup(c *cli.Context, logOutput string) (*config.Config, *logging.Logger, error) {
	if err := godotenv.Load(c.String(envFlag)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.Load(c.String(configFlag))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	output := cfg.Logging.Output
	if logOutput != "" && output == "stdout" {
		output = logOutput
	}
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, output)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func newFetchers(cfg *config.Config, mock bool) (collector.Fetcher, collector.Fetcher) {
	if mock {
		return &collector.MockFetcher{Src: model.SourceCoinGecko, Price: decimal.NewFromInt(100)},
			&collector.MockFetcher{Src: model.SourceCryptoCompare, Price: decimal.RequireFromString("100.5")}
	}
	return collector.NewCoinGeckoFetcher(cfg.Sources.CoinGecko.BaseURL, cfg.Sources.CoinGecko.Timeout, cfg.Proxy),
		collector.NewCryptoCompareFetcher(cfg.Sources.CryptoCompare.BaseURL, cfg.Sources.CryptoCompare.Timeout, cfg.Proxy)
}

func newStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (cache.Store, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	store := cache.NewRedisStore(client, cfg.Cache.TTL)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Cache.Redis.Addr, err)
	}
	logger.Info("using redis cache", "addr", cfg.Cache.Redis.Addr, "ttl", cfg.Cache.TTL)
	return store, nil
}

func newComparer(ctx context.Context, cfg *config.Config, mock bool, logger *logging.Logger) (*cache.Comparer, cache.Store, error) {
	primary, secondary := newFetchers(cfg, mock)
	logger.Info("data sources", "primary", primary.Name(), "secondary", secondary.Name())

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	agg := aggregator.New(primary, secondary, logger)
	return cache.NewComparer(agg, store, logger), store, nil
}

func serveAction(c *cli.Context) error {
	cfg, logger, err := setup(c, "")
	if err != nil {
		return err
	}
	logger.Info("CoinCompare starting", "addr", cfg.Server.Addr, "coins", cfg.Coins.Names())

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsEnabled() {
		metrics.Init()
	}

	comparer, store, err := newComparer(ctx, cfg, c.Bool(mockFlag), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sched := scheduler.NewScheduler(ctx, comparer, cfg.Coins, cfg.Schedule.RefreshDays, logger)
	if cfg.AlertsEnabled() {
		sched.Notifier = notifier.NewTelegramNotifier(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID, cfg.Proxy)
		logger.Info("telegram alerts enabled")
	}
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	warmed := make(chan struct{})
	go func() {
		defer close(warmed)
		sched.RefreshAll(ctx)
	}()
	// runs before sched.Stop and store.Close
	defer func() { <-warmed }()

	srv := server.New(comparer, cfg.Coins, server.Options{
		Addr:           cfg.Server.Addr,
		MetricsEnabled: cfg.MetricsEnabled(),
		MetricsPath:    cfg.Metrics.Path,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("CoinCompare stopped")
	return nil
}

func compareAction(c *cli.Context) error {
	// the report goes to stdout, keep logs off it
	cfg, logger, err := setup(c, "stderr")
	if err != nil {
		return err
	}

	coin, ok := cfg.Coins.Lookup(c.String(coinFlag))
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown coin %q, available: %v", c.String(coinFlag), cfg.Coins.Names()), 2)
	}
	days := c.Int(daysFlag)
	if days < model.MinDays || days > model.MaxDays {
		return cli.Exit(fmt.Sprintf("days must be between %d and %d", model.MinDays, model.MaxDays), 2)
	}

	comparer, store, err := newComparer(c.Context, cfg, c.Bool(mockFlag), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	cmp := comparer.Compare(c.Context, coin, days)
	fmt.Fprint(c.App.Writer, report.FormatComparison(cmp, c.Bool(rawFlag)))
	if err := report.Check(cmp); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func coinsAction(c *cli.Context) error {
	cfg, _, err := setup(c, "stderr")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\t%s\t%s\n", model.SourceCoinGecko, model.SourceCryptoCompare)
	for _, coin := range cfg.Coins {
		fmt.Fprintf(w, "%s\t%s\t%s\n", coin.Name, coin.ID(model.SourceCoinGecko), coin.ID(model.SourceCryptoCompare))
	}
	return w.Flush()
}
