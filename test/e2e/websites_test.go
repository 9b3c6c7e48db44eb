package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/logbarn/logbarn/pkg/client"
	"github.com/logbarn/logbarn/pkg/types"
	"github.com/logbarn/logbarn/test/framework"
)

// TestWebsiteLifecycle drives a website through provisioning, update,
// and delete via the admin API
func TestWebsiteLifecycle(t *testing.T) {
	env := framework.FromEnv(t)
	ctx := context.Background()
	waiter := framework.DefaultWaiter()

	domain := framework.UniqueDomain("admin")
	env.CleanupWebsite(t, domain)

	if _, err := env.Client.SendLogs(ctx, []json.RawMessage{
		framework.AccessRecord(domain, "web-1", time.Now(), 200),
	}); err != nil {
		t.Fatalf("Failed to seed website: %v", err)
	}
	if err := waiter.WaitForWebsite(ctx, env.Client, domain); err != nil {
		t.Fatal(err)
	}

	t.Run("Update", func(t *testing.T) {
		isDev := true
		owner := "owner@example.com"
		updated, err := env.Client.UpdateWebsite(ctx, domain, types.WebsiteUpdate{
			IsDev:      &isDev,
			OwnerEmail: &owner,
		})
		if err != nil {
			t.Fatalf("Failed to update website: %v", err)
		}
		if !updated.IsDev {
			t.Fatal("Expected is_dev to be set")
		}
		if updated.OwnerEmail == nil || *updated.OwnerEmail != owner {
			t.Fatalf("Expected owner email %q, got %v", owner, updated.OwnerEmail)
		}
	})

	t.Run("List", func(t *testing.T) {
		websites, err := env.Client.ListWebsites(ctx, 100, 0)
		if err != nil {
			t.Fatalf("Failed to list websites: %v", err)
		}
		if len(websites) == 0 {
			t.Fatal("Expected at least one website in the listing")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := env.Client.DeleteWebsite(ctx, domain); err != nil {
			t.Fatalf("Failed to delete website: %v", err)
		}
		if err := waiter.WaitForWebsiteGone(ctx, env.Client, domain); err != nil {
			t.Fatal(err)
		}
	})
}

// TestRejectsUnknownKey verifies a well-formed but unknown key is
// rejected with the uniform 401 body
func TestRejectsUnknownKey(t *testing.T) {
	env := framework.FromEnv(t)
	ctx := context.Background()

	bad := env.NewClient(strings.Repeat("A", 40), client.WithTimeout(10*time.Second))
	domain := framework.UniqueDomain("authz")

	_, err := bad.SendLogs(ctx, []json.RawMessage{
		framework.AccessRecord(domain, "web-1", time.Now(), 200),
	})

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected an api error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "unauthorized" {
		t.Fatalf("Expected error code unauthorized, got %q", apiErr.Code)
	}
}

// TestMissingWebsiteAnswers404 checks the stable not-found shape
func TestMissingWebsiteAnswers404(t *testing.T) {
	env := framework.FromEnv(t)
	ctx := context.Background()

	_, err := env.Client.GetWebsite(ctx, framework.UniqueDomain("ghost"))

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected an api error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "not_found" {
		t.Fatalf("Expected error code not_found, got %q", apiErr.Code)
	}
}
