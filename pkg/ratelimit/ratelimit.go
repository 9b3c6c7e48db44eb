package ratelimit

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/metrics"
)

// Limiter applies a per-client-IP request budget before authentication.
// Limiter state lives in an LRU so the tracked-IP set has a hard memory
// bound regardless of how many addresses hit the service.
type Limiter struct {
	cfg       config.RateLimit
	perSecond rate.Limit
	burst     int
	limiters  *lru.Cache
	allowIPs  []net.IP
	allowNets []*net.IPNet
	logger    zerolog.Logger
}

// New builds the limiter from configuration. Invalid allowlist entries are
// logged and skipped rather than failing startup.
func New(cfg config.RateLimit) (*Limiter, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = config.DefaultRateLimitCache
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter cache: %w", err)
	}

	l := &Limiter{
		cfg:      cfg,
		burst:    cfg.Max,
		limiters: cache,
		logger:   log.WithComponent("ratelimit"),
	}
	if cfg.Window > 0 {
		l.perSecond = rate.Limit(float64(cfg.Max) / cfg.Window.Seconds())
	}

	for _, entry := range cfg.Allowlist {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				l.logger.Warn().Str("entry", entry).Msg("Skipping invalid allowlist CIDR")
				continue
			}
			l.allowNets = append(l.allowNets, ipNet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			l.logger.Warn().Str("entry", entry).Msg("Skipping invalid allowlist IP")
			continue
		}
		l.allowIPs = append(l.allowIPs, ip)
	}

	return l, nil
}

// Middleware enforces the budget. Runs before auth so unauthenticated
// clients cannot drive the bcrypt key scan.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if !l.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)
		if l.allowlisted(clientIP) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.allow(clientIP) {
			metrics.RateLimited.Inc()
			l.logger.Warn().Str("remote", clientIP).Msg("Rate limit exceeded")
			l.reject(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) allow(clientIP string) bool {
	v, ok := l.limiters.Get(clientIP)
	if !ok {
		// A racing first request may allocate twice; the loser is evicted
		v = rate.NewLimiter(l.perSecond, l.burst)
		l.limiters.Add(clientIP, v)
	}
	return v.(*rate.Limiter).Allow()
}

func (l *Limiter) allowlisted(clientIP string) bool {
	if len(l.allowIPs) == 0 && len(l.allowNets) == 0 {
		return false
	}
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	for _, allowed := range l.allowIPs {
		if ip.Equal(allowed) {
			return true
		}
	}
	for _, ipNet := range l.allowNets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

func (l *Limiter) reject(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.cfg.Window.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "rate_limited",
		"message": "too many requests",
	})
}

// ClientIP extracts the originating address, preferring proxy headers.
// X-Forwarded-For carries the full chain; the first hop is the client.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
