/*
Package ratelimit applies a per-client-IP request budget ahead of auth.

Authentication costs a bcrypt scan over all active keys, so it must sit
behind something cheap. This limiter is that something: a token bucket
per client IP, sized from RATE_LIMIT_MAX per RATE_LIMIT_WINDOW, rejecting
with 429 before any credentials are examined.

# Mechanics

	request ─▶ resolve client IP ─▶ allowlisted? ──yes──▶ next
	                   │                 no
	                   ▼
	         bucket from LRU (create on first sight)
	                   │
	          Allow() ──no──▶ 429 + Retry-After
	                   │ yes
	                   ▼
	                 next

Buckets live in a fixed-size LRU keyed by IP. An address flood can evict
idle buckets but can never grow memory past RATE_LIMIT_CACHE entries; an
evicted-and-returning IP simply starts a fresh bucket.

The client IP comes from X-Forwarded-For (first hop), then X-Real-IP,
then the socket address. The headers are trusted as-is, which assumes the
usual deployment behind a terminating proxy; exposed directly to the
internet, a client could rotate forged headers to dodge the limit.

RATE_LIMIT_ALLOWLIST entries (exact IPs or CIDR blocks) bypass limiting
entirely, for internal monitors and the upstream hierarchy's own traffic.

# Integration Points

  - pkg/api: mounted before auth on the /api router; /health and /metrics
    are outside it.
  - pkg/metrics: every 429 increments the rate-limited counter.

# See Also

  - pkg/auth for why pre-auth limiting is required
*/
package ratelimit
