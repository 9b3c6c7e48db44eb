/*
Package auth implements bearer API key authentication for the HTTP surface.

Every protected endpoint sits behind Middleware, which resolves the
Authorization header to a principal or rejects with a generic 401.

# Request Flow

	Authorization: Bearer <key>
	        │
	        ▼
	prefix + format check ──fail──▶ 401 (no database touched)
	        │
	        ▼
	load active key hashes
	        │
	        ▼
	bcrypt verify, first match wins ──none──▶ 401
	        │
	        ▼
	principal → context; last_used_at updated off-path; next handler

The verify step is a linear scan over all active keys because the
plaintext key cannot be used as a lookup index; only its bcrypt hash is
stored, and bcrypt hashes of the same key differ per salt. The format
pre-check plus the rate limiter in front of this middleware keep the scan
cost from being an amplification vector.

# Rejection Policy

All 401 responses share one body. Whether the header was missing, the
format was wrong, or the key was simply unknown is recorded in logs, never
in the response. Key material itself never appears in logs or errors.

A failure to update last_used_at is logged and otherwise ignored; the
column is advisory (key hygiene audits), not part of the auth decision.

# Usage

	authn := auth.NewAuthenticator(st)
	r.Use(authn.Middleware)

	// In handlers:
	principal, ok := auth.PrincipalFrom(r.Context())

# Integration Points

  - pkg/security: format validation and hash verification.
  - pkg/store: ActiveAPIKeys and TouchAPIKey.
  - pkg/api: mounts Middleware after the rate limiter, before handlers.
  - pkg/metrics: rejected requests increment the auth failure counter.

# See Also

  - pkg/ratelimit for the pre-auth limiter this package assumes
*/
package auth
