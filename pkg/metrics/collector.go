package metrics

import (
	"context"
	"time"
)

// Counter exposes the store counts the collector polls.
// Satisfied by store.Store.
type Counter interface {
	CountRecords(ctx context.Context) (int64, error)
	CountUnarchivedRecords(ctx context.Context) (int64, error)
	CountWebsites(ctx context.Context) (int64, error)
}

// Collector periodically refreshes the backlog gauges from the database
type Collector struct {
	counts   Counter
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(counts Counter) *Collector {
	return &Collector{
		counts:   counts,
		interval: 15 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if n, err := c.counts.CountRecords(ctx); err == nil {
		RecordsTotal.Set(float64(n))
	}
	if n, err := c.counts.CountUnarchivedRecords(ctx); err == nil {
		UnarchivedRecords.Set(float64(n))
	}
	if n, err := c.counts.CountWebsites(ctx); err == nil {
		WebsitesTotal.Set(float64(n))
	}
}
