package auditlog

import (
	"context"
	"sync"
	"time"

	"github.com/nekoko-ai/platform/internal/app/metrics"
	"github.com/nekoko-ai/platform/internal/app/system"
	"github.com/nekoko-ai/platform/pkg/logger"
)

// StatsCollector periodically publishes call-log aggregates as gauges.
type StatsCollector struct {
	service  *Service
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*StatsCollector)(nil)

// NewStatsCollector creates a collector polling at the given interval
// (default 30s).
func NewStatsCollector(service *Service, interval time.Duration, log *logger.Logger) *StatsCollector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("auditlog-stats")
	}
	return &StatsCollector{service: service, interval: interval, log: log}
}

func (c *StatsCollector) Name() string { return "auditlog-stats" }

func (c *StatsCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		c.tick(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				c.tick(runCtx)
			}
		}
	}()

	c.log.Info("stats collector started")
	return nil
}

func (c *StatsCollector) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (c *StatsCollector) tick(ctx context.Context) {
	stats, err := c.service.Stats(ctx)
	if err != nil {
		c.log.WithError(err).Warn("collect call log stats")
		return
	}
	metrics.SetPlatformStats(stats.TotalCalls, stats.TotalRevenue, stats.SuccessRate)
}
