package framework

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/logbarn/logbarn/pkg/client"
)

// Waiter provides utilities for waiting on conditions with timeouts
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a new Waiter with the given timeout and polling interval
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter with sensible defaults (30s timeout, 1s interval)
func DefaultWaiter() *Waiter {
	return NewWaiter(30*time.Second, 1*time.Second)
}

// WaitFor waits for a condition to become true
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// WaitForHealthy waits for the service to answer its health endpoint
func (w *Waiter) WaitForHealthy(ctx context.Context, c *client.Client) error {
	return w.WaitFor(ctx, func() bool {
		return c.Health(ctx) == nil
	}, "service to report healthy")
}

// WaitForWebsite waits until the service knows domain
func (w *Waiter) WaitForWebsite(ctx context.Context, c *client.Client, domain string) error {
	return w.WaitFor(ctx, func() bool {
		_, err := c.GetWebsite(ctx, domain)
		return err == nil
	}, fmt.Sprintf("website %s to exist", domain))
}

// WaitForWebsiteGone waits until domain no longer resolves
func (w *Waiter) WaitForWebsiteGone(ctx context.Context, c *client.Client, domain string) error {
	return w.WaitFor(ctx, func() bool {
		_, err := c.GetWebsite(ctx, domain)
		var apiErr *client.APIError
		return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
	}, fmt.Sprintf("website %s to be deleted", domain))
}
