package e2e

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/logbarn/logbarn/test/framework"
)

// TestIngestFlow sends records for a fresh domain and verifies the
// website is provisioned with its activity advanced
func TestIngestFlow(t *testing.T) {
	env := framework.FromEnv(t)
	ctx := context.Background()
	waiter := framework.DefaultWaiter()

	if err := waiter.WaitForHealthy(ctx, env.Client); err != nil {
		t.Fatalf("Service not healthy: %v", err)
	}

	domain := framework.UniqueDomain("ingest")
	env.CleanupWebsite(t, domain)

	now := time.Now().UTC().Truncate(time.Second)
	records := []json.RawMessage{
		framework.AccessRecord(domain, "web-1", now.Add(-2*time.Minute), 200),
		framework.AccessRecord(domain, "web-1", now.Add(-time.Minute), 404),
		framework.ErrorRecord(domain, "web-1", now),
	}

	result, err := env.Client.SendLogs(ctx, records)
	if err != nil {
		t.Fatalf("Failed to send logs: %v", err)
	}
	if result.Received != 3 || result.Processed != 3 {
		t.Fatalf("Expected 3/3 records accepted, got received=%d processed=%d",
			result.Received, result.Processed)
	}

	if err := waiter.WaitForWebsite(ctx, env.Client, domain); err != nil {
		t.Fatal(err)
	}

	website, err := env.Client.GetWebsite(ctx, domain)
	if err != nil {
		t.Fatalf("Failed to fetch website: %v", err)
	}
	if website.Domain != domain {
		t.Fatalf("Expected domain %s, got %s", domain, website.Domain)
	}
	if website.LastActivityAt == nil {
		t.Fatal("Expected last activity to be set after ingest")
	}
}

// TestIngestSkipsInvalidRecords mixes valid and unusable records in one
// payload; the service must accept the payload and count the skips
func TestIngestSkipsInvalidRecords(t *testing.T) {
	env := framework.FromEnv(t)
	ctx := context.Background()

	domain := framework.UniqueDomain("skip")
	env.CleanupWebsite(t, domain)

	records := []json.RawMessage{
		framework.AccessRecord(domain, "web-1", time.Now(), 200),
		// Path outside the web root; no domain can be derived
		json.RawMessage(`{"source_file":"/etc/passwd","host":"web-1","code":200}`),
		// Missing host
		json.RawMessage(`{"source_file":"/var/www/` + domain + `/logs/access.log","code":200}`),
	}

	result, err := env.Client.SendLogs(ctx, records)
	if err != nil {
		t.Fatalf("Failed to send logs: %v", err)
	}
	if result.Received != 3 {
		t.Fatalf("Expected received=3, got %d", result.Received)
	}
	if result.Processed != 1 {
		t.Fatalf("Expected processed=1, got %d", result.Processed)
	}
}

// TestBatchReplay delivers the same batch twice; the second delivery
// must not duplicate records and must answer with the recorded counts
func TestBatchReplay(t *testing.T) {
	env := framework.FromEnv(t)
	ctx := context.Background()

	domain := framework.UniqueDomain("batch")
	env.CleanupWebsite(t, domain)

	now := time.Now().UTC()
	records := []json.RawMessage{
		framework.AccessRecord(domain, "edge-1", now.Add(-time.Minute), 200),
		framework.AccessRecord(domain, "edge-1", now, 301),
	}

	batchUUID := uuid.New()
	first, err := env.Client.SendBatch(ctx, batchUUID, "e2e-tester", records)
	if err != nil {
		t.Fatalf("First delivery failed: %v", err)
	}
	if first.Processed != 2 {
		t.Fatalf("Expected 2 records processed on first delivery, got %d", first.Processed)
	}

	replay, err := env.Client.SendBatch(ctx, batchUUID, "e2e-tester", records)
	if err != nil {
		t.Fatalf("Replay delivery failed: %v", err)
	}
	if replay.Processed != first.Processed {
		t.Fatalf("Replay answered processed=%d, first delivery answered %d",
			replay.Processed, first.Processed)
	}
}
