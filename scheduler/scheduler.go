// Package scheduler drives the oracle over wall-clock time: a fixed-cadence
// price loop and a daily job stream, each trigger running through a bounded
// retry loop. An ordinary source outage never crashes the process; an
// exhausted retry budget logs and waits for the next natural trigger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

// Defaults for the keeper loops.
const (
	DefaultPriceUpdateFrequency = 12 * time.Hour
	DefaultRetryDelay           = 15 * time.Minute
	DefaultMaxRetries           = 3

	// DefaultDailySpec triggers the daily stream at 02:00.
	DefaultDailySpec = "0 2 * * *"
)

// PriceUpdater triggers a refresh pass when prices are stale.
type PriceUpdater interface {
	UpdateAllPricesIfNeeded(ctx context.Context) (bool, error)
}

// ConfigSyncer re-synchronizes externally cached token configuration before
// a cycle acts on it.
type ConfigSyncer interface {
	SyncConfiguration(ctx context.Context) error
}

// StakeRunner performs any pending asset-staking action in the daily stream.
type StakeRunner interface {
	ProcessPending(ctx context.Context) error
}

// Config holds the configuration for the Scheduler.
type Config struct {
	Updater PriceUpdater
	Syncer  ConfigSyncer

	// Staker is optional; the daily stream then only syncs configuration.
	Staker StakeRunner

	Logger   *slog.Logger
	Registry prometheus.Registerer

	// PriceUpdateFrequency is the fixed sleep between price cycles,
	// measured from the end of one cycle to the start of the next.
	PriceUpdateFrequency time.Duration

	// DailySpec is the cron expression for the daily stream.
	DailySpec string

	// MaxRetries bounds the total attempts per trigger: a job that fails
	// MaxRetries consecutive times stops until its next natural trigger.
	MaxRetries int

	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
}

// validate checks if the configuration is valid and fills defaults.
func (c *Config) validate() error {
	if c.Updater == nil {
		return errors.New("config: Updater is required")
	}
	if c.Syncer == nil {
		return errors.New("config: Syncer is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.Registry == nil {
		return errors.New("config: Registry is required")
	}
	if c.PriceUpdateFrequency <= 0 {
		c.PriceUpdateFrequency = DefaultPriceUpdateFrequency
	}
	if c.DailySpec == "" {
		c.DailySpec = DefaultDailySpec
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return nil
}

// Scheduler multiplexes the two job streams onto one process. The streams
// are logically concurrent and never serialize with respect to each other's
// external calls.
type Scheduler struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:     cfg,
		logger:  cfg.Logger,
		metrics: NewMetrics(cfg.Registry),
	}, nil
}

// Run blocks, driving both job streams until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.DailySpec, func() {
		s.runJob(ctx, "daily", s.dailyCycle)
	}); err != nil {
		return fmt.Errorf("register daily job: %w", err)
	}
	c.Start()
	defer c.Stop()

	s.priceLoop(ctx)
	return ctx.Err()
}

// priceLoop runs forever: one cycle, then a fixed sleep regardless of how
// long the cycle itself took.
func (s *Scheduler) priceLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			s.logger.Info("price loop context canceled, shutting down")
			return
		}

		s.runJob(ctx, "price", s.priceCycle)

		timer := time.NewTimer(s.cfg.PriceUpdateFrequency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("price loop context canceled, shutting down")
			return
		}
	}
}

// priceCycle re-syncs configuration, then refreshes prices if they are
// stale. Per-token resolution failures are contained below this boundary; an
// error here means the cycle itself could not run.
func (s *Scheduler) priceCycle(ctx context.Context) error {
	if err := s.cfg.Syncer.SyncConfiguration(ctx); err != nil {
		return fmt.Errorf("sync configuration: %w", err)
	}
	updated, err := s.cfg.Updater.UpdateAllPricesIfNeeded(ctx)
	if err != nil {
		return fmt.Errorf("update prices: %w", err)
	}
	s.logger.Info("price cycle finished", "updated", updated)
	return nil
}

// dailyCycle refreshes configuration, then runs any pending staking action.
func (s *Scheduler) dailyCycle(ctx context.Context) error {
	if err := s.cfg.Syncer.SyncConfiguration(ctx); err != nil {
		return fmt.Errorf("sync configuration: %w", err)
	}
	if s.cfg.Staker == nil {
		return nil
	}
	if err := s.cfg.Staker.ProcessPending(ctx); err != nil {
		return fmt.Errorf("process pending stake: %w", err)
	}
	return nil
}

// runJob executes one trigger of a job stream: an explicit bounded retry
// loop with a fixed delay between attempts, holding its own timer so
// shutdown cancels a pending retry. Exhausting the budget logs and returns
// the stream to idle until its next trigger.
func (s *Scheduler) runJob(ctx context.Context, name string, body func(context.Context) error) {
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := body(ctx)
		s.metrics.observeRun(name, time.Since(start), err)

		if err == nil {
			if attempt > 1 {
				s.logger.Info("job recovered", "job", name, "attempt", attempt)
			}
			return
		}
		if ctx.Err() != nil {
			s.logger.Info("job interrupted by shutdown", "job", name, "error", err)
			return
		}
		if attempt >= s.cfg.MaxRetries {
			s.logger.Error("job failed, giving up until next trigger",
				"job", name, "attempts", attempt, "error", err)
			return
		}

		s.logger.Warn("job failed, will retry",
			"job", name, "attempt", attempt, "delay", s.cfg.RetryDelay, "error", err)
		s.metrics.observeRetry(name)

		timer := time.NewTimer(s.cfg.RetryDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("retry wait interrupted by shutdown", "job", name)
			return
		}
	}
}
