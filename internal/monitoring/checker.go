package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ridgeline-health/notegen/internal/config"
)

// Checker periodically summarizes the audit log and raises alerts while the
// server runs.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	lookback  int
	log       *zap.Logger
}

// NewChecker creates a background audit-health checker. Zero or negative
// interval and lookback values fall back to 5 minutes and 24 hours.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	interval := time.Duration(cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	lookback := cfg.LookbackWindowHours
	if lookback <= 0 {
		lookback = 24
	}
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  interval,
		lookback:  lookback,
		log:       zap.L().With(zap.String("component", "audit_checker")),
	}
}

// Run blocks until ctx is cancelled. The first check runs immediately so a
// failure backlog already in the audit log is surfaced at startup instead of
// one interval later.
func (c *Checker) Run(ctx context.Context) {
	c.log.Info("audit health checks started",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("audit health checks stopped")
			return
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

// runOnce performs one collect/evaluate/send cycle. A quiet window (no audit
// rows at all) skips evaluation entirely; rate thresholds over zero samples
// mean nothing.
func (c *Checker) runOnce(ctx context.Context) {
	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		c.log.Error("audit snapshot failed", zap.Error(err))
		return
	}
	if snap.GenerationTotal == 0 {
		c.log.Debug("no generation activity in window")
		return
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	c.log.Info("audit health check raised alerts",
		zap.Int("triggered", len(alerts)),
		zap.Int("sent", sent),
		zap.Float64("fail_rate", snap.GenerationFailRate),
	)
}
