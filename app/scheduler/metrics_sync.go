// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"log"
	"time"

	businessflow "github.com/templaito/templaito/business_flow"
)

// MetricsSyncScheduler periodically refreshes cached campaign statistics from
// the ESP for recently sent campaigns.
type MetricsSyncScheduler struct {
	metricsFlow businessflow.MetricsFlow
	logger      *log.Logger
	interval    time.Duration
	lookback    time.Duration
}

func NewMetricsSyncScheduler(metricsFlow businessflow.MetricsFlow, logger *log.Logger, interval, lookback time.Duration) *MetricsSyncScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if lookback <= 0 {
		lookback = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}

	return &MetricsSyncScheduler{
		metricsFlow: metricsFlow,
		logger:      logger,
		interval:    interval,
		lookback:    lookback,
	}
}

// Start launches the sync loop and returns a cancel function
func (s *MetricsSyncScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *MetricsSyncScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.metricsFlow.SyncCampaignStatistics(ctx, s.lookback); err != nil {
		s.logger.Printf("scheduler: campaign statistics sync failed: %v", err)
		return
	}
	s.logger.Printf("scheduler: campaign statistics sync completed in %s", time.Since(start))
}
