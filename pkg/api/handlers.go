package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/logbarn/logbarn/pkg/client"
	"github.com/logbarn/logbarn/pkg/store"
	"github.com/logbarn/logbarn/pkg/types"
)

// maxBodyBytes caps a decompressed ingest payload
const maxBodyBytes = 10 << 20

// maxUpdateBytes caps a website update body
const maxUpdateBytes = 1 << 20

// Website listing bounds
const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

var (
	errBodyTooLarge = errors.New("body too large")
	errBadGzip      = errors.New("invalid gzip body")
)

// handleIngest accepts a JSON array of log records from an agent
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.decodeRecords(w, r)
	if !ok {
		return
	}

	result, err := s.ingest.Ingest(r.Context(), raw)
	if err != nil {
		s.logger.Error().Err(err).Msg("Ingest failed")
		writeError(w, http.StatusInternalServerError, "internal", "failed to persist log records")
		return
	}
	writeIngestResult(w, result)
}

// handleIngestBatch accepts a forwarded batch from a downstream instance
func (s *Server) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	dedup, ok := batchIdentity(w, r)
	if !ok {
		return
	}
	raw, ok := s.decodeRecords(w, r)
	if !ok {
		return
	}

	result, _, err := s.ingest.IngestBatch(r.Context(), dedup, raw)
	if err != nil {
		s.logger.Error().Err(err).
			Str("batch_uuid", dedup.BatchUUID.String()).
			Str("source_instance", dedup.SourceInstance).
			Msg("Batch ingest failed")
		writeError(w, http.StatusInternalServerError, "internal", "failed to persist log records")
		return
	}
	// A replayed batch answers with the originally recorded counts; the
	// sender cannot tell a replay from a first delivery.
	writeIngestResult(w, result)
}

func (s *Server) handleListWebsites(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "offset must be a non-negative integer")
		return
	}

	websites, err := s.store.ListWebsites(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list websites")
		writeError(w, http.StatusInternalServerError, "internal", "failed to list websites")
		return
	}
	if websites == nil {
		websites = []*types.Website{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"websites": websites})
}

func (s *Server) handleGetWebsite(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	website, err := s.store.GetWebsiteByDomain(r.Context(), domain)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "website not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("domain", domain).Msg("Failed to load website")
		writeError(w, http.StatusInternalServerError, "internal", "failed to load website")
		return
	}
	writeJSON(w, http.StatusOK, website)
}

func (s *Server) handleUpdateWebsite(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var update types.WebsiteUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid website update body")
		return
	}

	website, err := s.store.UpdateWebsite(r.Context(), domain, update)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "website not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("domain", domain).Msg("Failed to update website")
		writeError(w, http.StatusInternalServerError, "internal", "failed to update website")
		return
	}
	writeJSON(w, http.StatusOK, website)
}

func (s *Server) handleDeleteWebsite(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	err := s.store.DeleteWebsite(r.Context(), domain)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "website not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("domain", domain).Msg("Failed to delete website")
		writeError(w, http.StatusInternalServerError, "internal", "failed to delete website")
		return
	}

	s.logger.Info().Str("domain", domain).Msg("Deleted website and its records")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// batchIdentity extracts and validates the dedup headers of a forwarded
// batch. The uuid must be in 36-char canonical form.
func batchIdentity(w http.ResponseWriter, r *http.Request) (types.BatchDedup, bool) {
	rawUUID := r.Header.Get(client.HeaderBatchUUID)
	batchUUID, err := uuid.Parse(rawUUID)
	if len(rawUUID) != 36 || err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "X-Batch-UUID header must be a canonical uuid")
		return types.BatchDedup{}, false
	}

	source := strings.TrimSpace(r.Header.Get(client.HeaderSourceInstance))
	if source == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "X-Source-Instance header is required")
		return types.BatchDedup{}, false
	}

	return types.BatchDedup{
		BatchUUID:      batchUUID,
		SourceInstance: source,
		ReceivedAt:     time.Now().UTC(),
	}, true
}

// decodeRecords reads the body, transparently decompressing, and decodes
// the log record array. On failure the error response is already written.
func (s *Server) decodeRecords(w http.ResponseWriter, r *http.Request) ([]json.RawMessage, bool) {
	data, err := readBody(r)
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body exceeds the 10MB limit")
		return nil, false
	case errors.Is(err, errBadGzip):
		writeError(w, http.StatusBadRequest, "bad_request", "body is not valid gzip")
		return nil, false
	case err != nil:
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return nil, false
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "body must be a JSON array of log records")
		return nil, false
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "expected non-empty array of log records")
		return nil, false
	}
	return raw, true
}

// readBody returns the request payload, enforcing the size limit on the
// decompressed bytes
func readBody(r *http.Request) ([]byte, error) {
	src := io.Reader(r.Body)
	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, errBadGzip
		}
		defer zr.Close()
		src = zr
	}

	data, err := io.ReadAll(io.LimitReader(src, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

func writeIngestResult(w http.ResponseWriter, result *types.IngestResult) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"received":  result.Received,
		"processed": result.Processed,
	})
}
