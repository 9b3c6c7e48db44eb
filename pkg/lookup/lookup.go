package lookup

import (
	"context"
	"fmt"
	"sync"

	"github.com/logbarn/logbarn/pkg/metrics"
	"github.com/logbarn/logbarn/pkg/types"
)

// Resolver is the store surface the caches need
type Resolver interface {
	EnsureHost(ctx context.Context, hostname string) (int64, error)
	EnsureHTTPCode(ctx context.Context, code string) (int64, error)
	ListHosts(ctx context.Context) ([]*types.Host, error)
	ListHTTPCodes(ctx context.Context) ([]*types.HTTPCode, error)
}

// Caches maps hostnames and HTTP code strings to their table ids.
// Lookup rows are never deleted, so cached ids cannot go stale.
type Caches struct {
	resolver Resolver

	hostMu sync.RWMutex
	hosts  map[string]int64

	codeMu sync.RWMutex
	codes  map[string]int64
}

// NewCaches creates empty caches over the resolver
func NewCaches(resolver Resolver) *Caches {
	return &Caches{
		resolver: resolver,
		hosts:    make(map[string]int64),
		codes:    make(map[string]int64),
	}
}

// Warm seeds both caches from the lookup tables. Called once at boot so
// steady-state ingest starts with zero misses.
func (c *Caches) Warm(ctx context.Context) error {
	hosts, err := c.resolver.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm host cache: %w", err)
	}
	codes, err := c.resolver.ListHTTPCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm http code cache: %w", err)
	}

	c.hostMu.Lock()
	for _, h := range hosts {
		c.hosts[h.Hostname] = h.ID
	}
	hostCount := len(c.hosts)
	c.hostMu.Unlock()

	c.codeMu.Lock()
	for _, code := range codes {
		c.codes[code.Code] = code.ID
	}
	codeCount := len(c.codes)
	c.codeMu.Unlock()

	metrics.LookupCacheEntries.WithLabelValues("host").Set(float64(hostCount))
	metrics.LookupCacheEntries.WithLabelValues("http_code").Set(float64(codeCount))
	return nil
}

// HostID resolves a hostname to its id, inserting the row on first sight.
// The write lock is held across the find-or-create pair so each process
// issues at most one insert per name.
func (c *Caches) HostID(ctx context.Context, hostname string) (int64, error) {
	c.hostMu.RLock()
	id, ok := c.hosts[hostname]
	c.hostMu.RUnlock()
	if ok {
		return id, nil
	}

	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if id, ok := c.hosts[hostname]; ok {
		return id, nil
	}

	id, err := c.resolver.EnsureHost(ctx, hostname)
	if err != nil {
		return 0, err
	}
	c.hosts[hostname] = id
	metrics.LookupCacheMisses.WithLabelValues("host").Inc()
	metrics.LookupCacheEntries.WithLabelValues("host").Set(float64(len(c.hosts)))
	return id, nil
}

// CodeID resolves an HTTP code string to its id. Empty and "N/A" resolve
// to the reserved id 0 without touching the cache or the database.
func (c *Caches) CodeID(ctx context.Context, code string) (int64, error) {
	if code == "" || code == types.CodeNotApplicable {
		return types.CodeIDNotApplicable, nil
	}

	c.codeMu.RLock()
	id, ok := c.codes[code]
	c.codeMu.RUnlock()
	if ok {
		return id, nil
	}

	c.codeMu.Lock()
	defer c.codeMu.Unlock()
	if id, ok := c.codes[code]; ok {
		return id, nil
	}

	id, err := c.resolver.EnsureHTTPCode(ctx, code)
	if err != nil {
		return 0, err
	}
	c.codes[code] = id
	metrics.LookupCacheMisses.WithLabelValues("http_code").Inc()
	metrics.LookupCacheEntries.WithLabelValues("http_code").Set(float64(len(c.codes)))
	return id, nil
}
