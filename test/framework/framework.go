// Package framework provides utilities for end-to-end tests against a
// live logbarn instance. The suite is opt-in: tests skip unless the
// target service is configured through the environment.
package framework

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/logbarn/logbarn/pkg/client"
)

// Environment variables selecting the service under test
const (
	// EnvServer is the base URL of the instance, e.g. http://127.0.0.1:8080
	EnvServer = "LOGBARN_E2E_SERVER"
	// EnvAPIKey is a valid agent API key for that instance
	EnvAPIKey = "LOGBARN_E2E_API_KEY"
)

// Env is a connection to the live service under test
type Env struct {
	BaseURL string
	APIKey  string
	Client  *client.Client
}

// FromEnv builds the test environment, skipping the test when no target
// service is configured
func FromEnv(t testing.TB) *Env {
	t.Helper()

	baseURL := os.Getenv(EnvServer)
	apiKey := os.Getenv(EnvAPIKey)
	if baseURL == "" || apiKey == "" {
		t.Skipf("%s and %s not set, skipping end-to-end test", EnvServer, EnvAPIKey)
	}

	return &Env{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  client.New(baseURL, apiKey, client.WithTimeout(30*time.Second)),
	}
}

// NewClient returns another client against the same service, for tests
// that need different credentials or options
func (e *Env) NewClient(apiKey string, opts ...client.Option) *client.Client {
	return client.New(e.BaseURL, apiKey, opts...)
}

// CleanupWebsite registers a best-effort delete of domain when the test
// ends, so repeated runs do not accumulate rows
func (e *Env) CleanupWebsite(t testing.TB, domain string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Client.DeleteWebsite(ctx, domain)
	})
}

var domainSeq atomic.Int64

// UniqueDomain returns a domain no concurrent test run can collide with.
// The .e2e.invalid suffix makes leftovers recognizable if cleanup fails.
func UniqueDomain(prefix string) string {
	return fmt.Sprintf("%s-%d-%d.e2e.invalid", prefix, time.Now().UnixNano(), domainSeq.Add(1))
}

// AccessRecord builds a wire-shaped access log record for domain
func AccessRecord(domain, host string, ts time.Time, code int) json.RawMessage {
	rec := map[string]interface{}{
		"source_file":   fmt.Sprintf("/var/www/%s/logs/access.log", domain),
		"host":          host,
		"log_timestamp": ts.UTC().Format("2006-01-02 15:04:05"),
		"remote":        "203.0.113.10",
		"code":          code,
	}
	data, _ := json.Marshal(rec)
	return data
}

// ErrorRecord builds a wire-shaped error log record for domain
func ErrorRecord(domain, host string, ts time.Time) json.RawMessage {
	rec := map[string]interface{}{
		"source_file":   fmt.Sprintf("/var/www/%s/logs/error.log", domain),
		"host":          host,
		"log_timestamp": ts.UTC().Format("2006-01-02 15:04:05"),
		"code":          "N/A",
	}
	data, _ := json.Marshal(rec)
	return data
}
