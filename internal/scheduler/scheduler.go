package scheduler

import (
	"context"
	"fmt"
	"strings"

	"CoinCompare/internal/logging"
	"CoinCompare/internal/metrics"
	"CoinCompare/internal/model"
	"CoinCompare/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Refresher recomputes and stores a comparison. *cache.Comparer satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, coin model.CoinIdentity, days int) model.Comparison
}

// Scheduler keeps the comparison cache warm for every configured coin.
type Scheduler struct {
	Cron      *cron.Cron
	Refresher Refresher
	Coins     model.CoinRegistry
	Days      int
	Notifier  notifier.Notifier
	Logger    *logging.Logger
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r Refresher, coins model.CoinRegistry, days int, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Refresher: r,
		Coins:     coins,
		Days:      days,
		Logger:    logger,
		Ctx:       ctx,
	}
}

// Register adds the refresh job on the given six-field cron spec.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", "coins", len(s.Coins), "days", s.Days)
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RefreshAll re-fetches every configured coin and returns how many came back
// without any data. A run cut short by ctx is recorded as cancelled and raises no alert.
func (s *Scheduler) RefreshAll(ctx context.Context) int {
	failed := 0
	var missing []string
	for _, coin := range s.Coins {
		if ctx.Err() != nil {
			break
		}
		cmp := s.Refresher.Refresh(ctx, coin, s.Days)
		if ctx.Err() != nil {
			break
		}
		if cmp.NoData() {
			failed++
			missing = append(missing, coin.Name)
			s.Logger.Warn("refresh produced no data", "coin", coin.Name, "days", s.Days)
			continue
		}
		s.Logger.Debug("refreshed", "coin", coin.Name, "points", len(cmp.Combined))
	}

	if ctx.Err() != nil {
		metrics.RecordRefresh("cancelled")
		s.Logger.Info("refresh cancelled", "error", ctx.Err())
		return failed
	}

	switch {
	case failed == 0:
		metrics.RecordRefresh("ok")
	case failed == len(s.Coins):
		metrics.RecordRefresh("failed")
	default:
		metrics.RecordRefresh("partial")
	}
	if failed > 0 {
		s.trySend(ctx, fmt.Sprintf("❌ No price data from either source for %s (%d days)", strings.Join(missing, ", "), s.Days))
	}
	return failed
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.Logger.Error("send alert", "error", err)
	}
}

func (s *Scheduler) refreshTask() {
	s.Logger.Info("running refresh task")
	if failed := s.RefreshAll(s.Ctx); failed > 0 {
		s.Logger.Warn("refresh task finished with gaps", "failed", failed, "total", len(s.Coins))
	}
}
