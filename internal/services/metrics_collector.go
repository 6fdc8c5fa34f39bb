package services

import (
	"context"
	"sync"
	"time"

	"repair-backend/internal/logger"
	"repair-backend/internal/metrics"
)

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	Total       int32
	Idle        int32
	Acquired    int32
	AcquireWait time.Duration
}

// MetricsCollector samples connection pool usage into Prometheus gauges.
type MetricsCollector struct {
	stats           func() PoolStats
	collectInterval time.Duration
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

func NewMetricsCollector(stats func() PoolStats, interval time.Duration) *MetricsCollector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &MetricsCollector{
		stats:           stats,
		collectInterval: interval,
		stopChan:        make(chan struct{}),
	}
}

// Start begins periodic collection
func (c *MetricsCollector) Start(ctx context.Context) {
	ctx = logger.WithName(ctx, "metrics-collector")
	logger.Debugf(ctx, "Starting metrics collector")

	// Collect immediately on start
	c.Collect()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.collectInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-ctx.Done():
				return
			case <-c.stopChan:
				logger.Debugf(ctx, "Stopping metrics collector")
				return
			}
		}
	}()
}

// Stop stops the metrics collection
func (c *MetricsCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
}

// Collect takes one sample
func (c *MetricsCollector) Collect() {
	s := c.stats()
	metrics.DBPoolConnections.WithLabelValues("total").Set(float64(s.Total))
	metrics.DBPoolConnections.WithLabelValues("idle").Set(float64(s.Idle))
	metrics.DBPoolConnections.WithLabelValues("acquired").Set(float64(s.Acquired))
	metrics.DBPoolAcquireWaitSeconds.Set(s.AcquireWait.Seconds())
}
