package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/metrics"
	"github.com/logbarn/logbarn/pkg/security"
	"github.com/logbarn/logbarn/pkg/types"
)

// bearerPrefix is matched case-sensitively
const bearerPrefix = "Bearer "

// touchTimeout bounds the detached last_used_at update
const touchTimeout = 5 * time.Second

// KeyStore is the store surface the authenticator needs
type KeyStore interface {
	ActiveAPIKeys(ctx context.Context) ([]*types.APIKey, error)
	TouchAPIKey(ctx context.Context, id int64) error
}

// Authenticator validates bearer API keys against stored hashes
type Authenticator struct {
	keys   KeyStore
	logger zerolog.Logger
}

// NewAuthenticator creates an authenticator over the key store
func NewAuthenticator(keys KeyStore) *Authenticator {
	return &Authenticator{
		keys:   keys,
		logger: log.WithComponent("auth"),
	}
}

// Middleware rejects requests without a valid API key. On success the
// principal is attached to the request context and last_used_at is updated
// off the request path.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok || !security.ValidKeyFormat(token) {
			// Cheap rejection; garbage never reaches the bcrypt scan
			metrics.AuthFailures.Inc()
			a.logger.Warn().
				Str("remote", r.RemoteAddr).
				Msg("Rejected request with malformed credentials")
			unauthorized(w)
			return
		}

		keys, err := a.keys.ActiveAPIKeys(r.Context())
		if err != nil {
			a.logger.Error().Err(err).Msg("Failed to load active api keys")
			serverError(w)
			return
		}

		for _, key := range keys {
			if security.VerifyKey(key.KeyHash, token) {
				principal := types.Principal{APIKeyID: key.ID, Description: key.Description}
				go a.touch(key.ID)
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
				return
			}
		}

		metrics.AuthFailures.Inc()
		a.logger.Warn().
			Str("remote", r.RemoteAddr).
			Msg("Rejected request with unknown api key")
		unauthorized(w)
	})
}

// touch runs detached from the request; a failed update never fails auth
func (a *Authenticator) touch(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
	defer cancel()
	if err := a.keys.TouchAPIKey(ctx, id); err != nil {
		a.logger.Warn().Err(err).Int64("api_key_id", id).Msg("Failed to update key last_used_at")
	}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}

// principalKey is the context key for the authenticated principal
type principalKey struct{}

func withPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached by Middleware
func PrincipalFrom(ctx context.Context) (types.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(types.Principal)
	return p, ok
}

// The 401 body is identical for every rejection cause; which cause fired
// is visible in logs only.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": "invalid or missing api key",
	})
}

func serverError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "internal",
		"message": "internal server error",
	})
}
