package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logbarn/logbarn/pkg/auth"
	"github.com/logbarn/logbarn/pkg/client"
	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/ingest"
	"github.com/logbarn/logbarn/pkg/lookup"
	"github.com/logbarn/logbarn/pkg/ratelimit"
	"github.com/logbarn/logbarn/pkg/security"
	"github.com/logbarn/logbarn/pkg/store"
	"github.com/logbarn/logbarn/pkg/types"
)

// fakeStore covers the slice of store.Store the HTTP layer exercises.
// Methods outside that slice panic through the embedded nil interface.
type fakeStore struct {
	store.Store

	mu       sync.Mutex
	websites map[string]*types.Website
	nextID   int64

	inserted   []*types.LogRecord
	insertErr  error
	dedups     []types.BatchDedup
	replay     bool
	replayPrev int64

	gotLimit  int
	gotOffset int
	gotUpdate *types.WebsiteUpdate
	listErr   error
	pingErr   error

	keys []*types.APIKey
}

func newFakeStore() *fakeStore {
	return &fakeStore{websites: make(map[string]*types.Website)}
}

func (f *fakeStore) seedWebsite(domain string) *types.Website {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	w := &types.Website{ID: f.nextID, Domain: domain, CreatedAt: time.Now().UTC()}
	f.websites[domain] = w
	return w
}

func (f *fakeStore) FindOrCreateWebsite(ctx context.Context, domain string) (*types.Website, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.websites[domain]; ok {
		return w, false, nil
	}
	f.nextID++
	w := &types.Website{ID: f.nextID, Domain: domain, CreatedAt: time.Now().UTC()}
	f.websites[domain] = w
	return w, true, nil
}

func (f *fakeStore) InsertLogRecords(ctx context.Context, records []*types.LogRecord) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, records...)
	return int64(len(records)), nil
}

func (f *fakeStore) InsertLogRecordsDeduped(ctx context.Context, dedup types.BatchDedup, records []*types.LogRecord) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dedups = append(f.dedups, dedup)
	if f.replay {
		return f.replayPrev, true, nil
	}
	f.inserted = append(f.inserted, records...)
	return int64(len(records)), false, nil
}

func (f *fakeStore) UpdateLastActivity(ctx context.Context, activity map[int64]time.Time) error {
	return nil
}

func (f *fakeStore) GetWebsiteByDomain(ctx context.Context, domain string) (*types.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.websites[domain]
	if !ok {
		return nil, store.ErrNotFound
	}
	return w, nil
}

func (f *fakeStore) ListWebsites(ctx context.Context, limit, offset int) ([]*types.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotLimit, f.gotOffset = limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*types.Website, 0, len(f.websites))
	for _, w := range f.websites {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateWebsite(ctx context.Context, domain string, upd types.WebsiteUpdate) (*types.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.websites[domain]
	if !ok {
		return nil, store.ErrNotFound
	}
	f.gotUpdate = &upd
	if upd.IsSSL != nil {
		w.IsSSL = *upd.IsSSL
	}
	if upd.IsDev != nil {
		w.IsDev = *upd.IsDev
	}
	if upd.OwnerEmail != nil {
		w.OwnerEmail = upd.OwnerEmail
	}
	if upd.AdminEmail != nil {
		w.AdminEmail = upd.AdminEmail
	}
	return w, nil
}

func (f *fakeStore) DeleteWebsite(ctx context.Context, domain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.websites[domain]; !ok {
		return store.ErrNotFound
	}
	delete(f.websites, domain)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) ActiveAPIKeys(ctx context.Context) ([]*types.APIKey, error) {
	return f.keys, nil
}

func (f *fakeStore) TouchAPIKey(ctx context.Context, id int64) error {
	return nil
}

// fakeResolver backs the lookup caches without a database
type fakeResolver struct{}

func (fakeResolver) EnsureHost(ctx context.Context, hostname string) (int64, error) {
	return int64(len(hostname)), nil
}

func (fakeResolver) EnsureHTTPCode(ctx context.Context, code string) (int64, error) {
	return 1, nil
}

func (fakeResolver) ListHosts(ctx context.Context) ([]*types.Host, error) {
	return nil, nil
}

func (fakeResolver) ListHTTPCodes(ctx context.Context) ([]*types.HTTPCode, error) {
	return nil, nil
}

func newTestServer(tb testing.TB, fs *fakeStore) *Server {
	tb.Helper()
	limiter, err := ratelimit.New(config.RateLimit{Enabled: true, Max: 1000, Window: time.Second, CacheSize: 64})
	require.NoError(tb, err)

	cfg := config.Server{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second, ShutdownGrace: time.Second}
	svc := ingest.NewService(fs, lookup.NewCaches(fakeResolver{}))
	return NewServer(cfg, fs, svc, auth.NewAuthenticator(fs), limiter)
}

func ingestPayload() []byte {
	return []byte(`[
		{"source_file":"/var/www/example.com/logs/access.log","host":"web-1","log_timestamp":"2025-06-01 12:00:00","remote":"203.0.113.7","code":200},
		{"source_file":"/var/www/example.com/logs/error.log","host":"web-1","log_timestamp":"2025-06-01 12:00:05","client":"203.0.113.8:443","code":"N/A"}
	]`)
}

// websiteRequest builds a request carrying the chi {domain} route param
func websiteRequest(method, target, domain string, body []byte) *http.Request {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("domain", domain)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ingestBody struct {
	Status    string `json:"status"`
	Received  int    `json:"received"`
	Processed int    `json:"processed"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.GreaterOrEqual(t, body.Uptime, int64(0))
}

func TestHandleReady(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		s := newTestServer(t, newFakeStore())

		w := httptest.NewRecorder()
		s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		fs := newFakeStore()
		fs.pingErr = assert.AnError
		s := newTestServer(t, fs)

		w := httptest.NewRecorder()
		s.handleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "not_ready", body.Error)
	})
}

func TestHandleIngest(t *testing.T) {
	fs := newFakeStore()
	s := newTestServer(t, fs)

	req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(ingestPayload()))
	w := httptest.NewRecorder()
	s.handleIngest(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body ingestBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Received)
	assert.Equal(t, 2, body.Processed)
	assert.Len(t, fs.inserted, 2)
}

func TestHandleIngestRejectsNonArrayBody(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	tests := []struct {
		name string
		body string
	}{
		{name: "object body", body: `{"host":"web-1"}`},
		{name: "truncated json", body: `[{"host":`},
		{name: "plain text", body: `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.handleIngest(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeError(t, w).Error)
		})
	}
}

func TestHandleIngestRejectsEmptyArray(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`[]`))
	w := httptest.NewRecorder()
	s.handleIngest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "non-empty array")
}

func TestHandleIngestGzipBody(t *testing.T) {
	fs := newFakeStore()
	s := newTestServer(t, fs)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(ingestPayload())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/logs", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.handleIngest(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, fs.inserted, 2)
}

func TestHandleIngestRejectsBadGzip(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader("not gzip at all"))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.handleIngest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "gzip")
}

func TestHandleIngestRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(bytes.Repeat([]byte("a"), maxBodyBytes+1)))
	w := httptest.NewRecorder()
	s.handleIngest(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "too_large", decodeError(t, w).Error)
}

func TestHandleIngestStoreFailure(t *testing.T) {
	fs := newFakeStore()
	fs.insertErr = assert.AnError
	s := newTestServer(t, fs)

	req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(ingestPayload()))
	w := httptest.NewRecorder()
	s.handleIngest(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal", decodeError(t, w).Error)
}

func TestHandleIngestBatch(t *testing.T) {
	fs := newFakeStore()
	s := newTestServer(t, fs)
	batchUUID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/logs/batch", bytes.NewReader(ingestPayload()))
	req.Header.Set(client.HeaderBatchUUID, batchUUID.String())
	req.Header.Set(client.HeaderSourceInstance, "edge-fra-1")
	w := httptest.NewRecorder()
	s.handleIngestBatch(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body ingestBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 2, body.Received)
	assert.Equal(t, 2, body.Processed)

	require.Len(t, fs.dedups, 1)
	dedup := fs.dedups[0]
	assert.Equal(t, batchUUID, dedup.BatchUUID)
	assert.Equal(t, "edge-fra-1", dedup.SourceInstance)
	assert.Equal(t, 2, dedup.RecordCount)
	assert.WithinDuration(t, time.Now().UTC(), dedup.ReceivedAt, 5*time.Second)
}

func TestHandleIngestBatchHeaderValidation(t *testing.T) {
	tests := []struct {
		name     string
		uuid     string
		source   string
		wantWord string
	}{
		{name: "missing uuid", uuid: "", source: "edge-1", wantWord: "X-Batch-UUID"},
		{name: "short uuid", uuid: "abc123", source: "edge-1", wantWord: "X-Batch-UUID"},
		{name: "garbage uuid", uuid: strings.Repeat("z", 36), source: "edge-1", wantWord: "X-Batch-UUID"},
		{name: "missing source", uuid: uuid.NewString(), source: "", wantWord: "X-Source-Instance"},
		{name: "blank source", uuid: uuid.NewString(), source: "   ", wantWord: "X-Source-Instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore()
			s := newTestServer(t, fs)

			req := httptest.NewRequest(http.MethodPost, "/api/logs/batch", bytes.NewReader(ingestPayload()))
			if tt.uuid != "" {
				req.Header.Set(client.HeaderBatchUUID, tt.uuid)
			}
			if tt.source != "" {
				req.Header.Set(client.HeaderSourceInstance, tt.source)
			}
			w := httptest.NewRecorder()
			s.handleIngestBatch(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w).Message, tt.wantWord)
			assert.Empty(t, fs.dedups)
		})
	}
}

func TestHandleIngestBatchReplay(t *testing.T) {
	fs := newFakeStore()
	fs.replay = true
	fs.replayPrev = 7
	s := newTestServer(t, fs)

	req := httptest.NewRequest(http.MethodPost, "/api/logs/batch", bytes.NewReader(ingestPayload()))
	req.Header.Set(client.HeaderBatchUUID, uuid.NewString())
	req.Header.Set(client.HeaderSourceInstance, "edge-fra-1")
	w := httptest.NewRecorder()
	s.handleIngestBatch(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body ingestBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 7, body.Processed)
	assert.Empty(t, fs.inserted)
}

func TestHandleListWebsites(t *testing.T) {
	fs := newFakeStore()
	fs.seedWebsite("a.example.com")
	fs.seedWebsite("b.example.com")
	fs.seedWebsite("c.example.com")
	s := newTestServer(t, fs)

	t.Run("defaults", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleListWebsites(w, httptest.NewRequest(http.MethodGet, "/api/websites", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, defaultPageLimit, fs.gotLimit)
		assert.Equal(t, 0, fs.gotOffset)

		var body struct {
			Websites []*types.Website `json:"websites"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body.Websites, 3)
		assert.Equal(t, "a.example.com", body.Websites[0].Domain)
	})

	t.Run("explicit paging", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleListWebsites(w, httptest.NewRequest(http.MethodGet, "/api/websites?limit=2&offset=4", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, fs.gotLimit)
		assert.Equal(t, 4, fs.gotOffset)
	})

	t.Run("limit clamped", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleListWebsites(w, httptest.NewRequest(http.MethodGet, "/api/websites?limit=9999", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, maxPageLimit, fs.gotLimit)
	})
}

func TestHandleListWebsitesRejectsBadPaging(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	tests := []struct {
		name  string
		query string
	}{
		{name: "non-numeric limit", query: "?limit=abc"},
		{name: "zero limit", query: "?limit=0"},
		{name: "negative limit", query: "?limit=-5"},
		{name: "non-numeric offset", query: "?offset=abc"},
		{name: "negative offset", query: "?offset=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.handleListWebsites(w, httptest.NewRequest(http.MethodGet, "/api/websites"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", decodeError(t, w).Error)
		})
	}
}

func TestHandleGetWebsite(t *testing.T) {
	fs := newFakeStore()
	fs.seedWebsite("example.com")
	s := newTestServer(t, fs)

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleGetWebsite(w, websiteRequest(http.MethodGet, "/api/websites/example.com", "example.com", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var body types.Website
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "example.com", body.Domain)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleGetWebsite(w, websiteRequest(http.MethodGet, "/api/websites/ghost.example", "ghost.example", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "not_found", body.Error)
		assert.Equal(t, "website not found", body.Message)
	})
}

func TestHandleUpdateWebsite(t *testing.T) {
	t.Run("applies set fields", func(t *testing.T) {
		fs := newFakeStore()
		fs.seedWebsite("example.com")
		s := newTestServer(t, fs)

		w := httptest.NewRecorder()
		s.handleUpdateWebsite(w, websiteRequest(http.MethodPut, "/api/websites/example.com", "example.com", []byte(`{"is_dev":true}`)))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body types.Website
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.True(t, body.IsDev)

		require.NotNil(t, fs.gotUpdate)
		require.NotNil(t, fs.gotUpdate.IsDev)
		assert.True(t, *fs.gotUpdate.IsDev)
		assert.Nil(t, fs.gotUpdate.IsSSL)
	})

	t.Run("invalid body", func(t *testing.T) {
		fs := newFakeStore()
		fs.seedWebsite("example.com")
		s := newTestServer(t, fs)

		w := httptest.NewRecorder()
		s.handleUpdateWebsite(w, websiteRequest(http.MethodPut, "/api/websites/example.com", "example.com", []byte(`{`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing website", func(t *testing.T) {
		s := newTestServer(t, newFakeStore())

		w := httptest.NewRecorder()
		s.handleUpdateWebsite(w, websiteRequest(http.MethodPut, "/api/websites/ghost.example", "ghost.example", []byte(`{"is_dev":true}`)))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleDeleteWebsite(t *testing.T) {
	fs := newFakeStore()
	fs.seedWebsite("example.com")
	s := newTestServer(t, fs)

	w := httptest.NewRecorder()
	s.handleDeleteWebsite(w, websiteRequest(http.MethodDelete, "/api/websites/example.com", "example.com", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "deleted", body["status"])

	// Second delete hits the now-missing row
	w = httptest.NewRecorder()
	s.handleDeleteWebsite(w, websiteRequest(http.MethodDelete, "/api/websites/example.com", "example.com", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterPublicEndpointsSkipAuth(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	h := s.Handler()

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouterRejectsMissingKey(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	h := s.Handler()

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodPost, path: "/api/logs"},
		{method: http.MethodPost, path: "/api/logs/batch"},
		{method: http.MethodGet, path: "/api/websites"},
		{method: http.MethodDelete, path: "/api/websites/example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewReader(ingestPayload()))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decodeError(t, w).Error)
		})
	}
}

func TestRouterAuthenticatedIngest(t *testing.T) {
	key, err := security.GenerateKey()
	require.NoError(t, err)
	hash, err := security.HashKey(key)
	require.NoError(t, err)

	fs := newFakeStore()
	fs.keys = []*types.APIKey{{ID: 1, KeyHash: hash, Description: "test agent", IsActive: true}}
	s := newTestServer(t, fs)

	req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(ingestPayload()))
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body ingestBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 2, body.Processed)
}

func BenchmarkHandleHealth(b *testing.B) {
	s := newTestServer(b, newFakeStore())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		s.handleHealth(w, req)
	}
}

func BenchmarkHandleIngest(b *testing.B) {
	fs := newFakeStore()
	s := newTestServer(b, fs)
	payload := ingestPayload()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", bytes.NewReader(payload))
		w := httptest.NewRecorder()
		s.handleIngest(w, req)
	}
}
