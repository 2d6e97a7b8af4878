// Package conformance provides a test harness that runs the archive service
// over HTTP and verifies the behavior of its public surface.
package conformance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shahed-archive/shahed-archive-go/internal/event"
	"github.com/shahed-archive/shahed-archive-go/internal/model"
	"github.com/shahed-archive/shahed-archive-go/internal/repo"
	"github.com/shahed-archive/shahed-archive-go/internal/schema"
	"github.com/shahed-archive/shahed-archive-go/internal/server"
	"github.com/shahed-archive/shahed-archive-go/internal/storage"
)

// Harness runs the archive service against a file store in a temp directory.
type Harness struct {
	server   *httptest.Server
	store    storage.Store
	pub      event.Publisher
	storeDir string
}

// Config holds the knobs of the conformance harness.
type Config struct {
	// MaxMediaSize bounds uploads; zero means the default 10MB.
	MaxMediaSize int64

	// AllowedMimeTypes overrides the media allow list when non-empty.
	AllowedMimeTypes []string
}

// NewHarness creates a harness backed by a fresh file store.
func NewHarness(cfg Config) (*Harness, error) {
	storeDir, err := os.MkdirTemp("", "archive-conformance-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	store, err := storage.NewFile(filepath.Join(storeDir, "martyrs.json"))
	if err != nil {
		os.RemoveAll(storeDir)
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		os.RemoveAll(storeDir)
		return nil, fmt.Errorf("failed to initialize schema validator: %w", err)
	}

	pub := &noopPublisher{}
	repository := repo.New(store, nil, pub, validator, nil, "conformance-archive")

	maxMediaSize := cfg.MaxMediaSize
	if maxMediaSize == 0 {
		maxMediaSize = 10 * 1024 * 1024
	}
	allowed := cfg.AllowedMimeTypes
	if len(allowed) == 0 {
		allowed = []string{"image/jpeg", "image/png", "audio/mpeg", "video/mp4", "application/pdf"}
	}

	mux := server.NewMux(repository, maxMediaSize, allowed, nil)

	return &Harness{
		server:   httptest.NewServer(mux),
		store:    store,
		pub:      pub,
		storeDir: storeDir,
	}, nil
}

// URL returns the base URL of the test server.
func (h *Harness) URL() string {
	return h.server.URL
}

// Close shuts down the test server and removes the store directory.
func (h *Harness) Close() {
	h.server.Close()
	h.pub.Close()
	os.RemoveAll(h.storeDir)
}

// RunConformanceTests runs the full suite against the archive surface.
func (h *Harness) RunConformanceTests(t *testing.T) {
	t.Run("HealthEndpoints", h.testHealthEndpoints)
	t.Run("RecordLifecycle", h.testRecordLifecycle)
	t.Run("SchemaValidation", h.testSchemaValidation)
	t.Run("SearchAndPagination", h.testSearchAndPagination)
	t.Run("StatisticsCounters", h.testStatisticsCounters)
}

// noopPublisher is a no-op implementation of event.Publisher.
type noopPublisher struct{}

func (n *noopPublisher) PublishRecordCreated(ctx context.Context, record model.MartyrRecord) error {
	return nil
}

func (n *noopPublisher) PublishRecordUpdated(ctx context.Context, record model.MartyrRecord) error {
	return nil
}

func (n *noopPublisher) PublishRecordDeleted(ctx context.Context, recordID string) error { return nil }

func (n *noopPublisher) PublishMediaUploaded(ctx context.Context, recordID string, asset model.MediaAsset) error {
	return nil
}

func (n *noopPublisher) PublishCandleLit(ctx context.Context, recordID string, total int64) error {
	return nil
}

func (n *noopPublisher) Close() error { return nil }

// postJSON issues a POST with a JSON body and decodes the data envelope.
func (h *Harness) postJSON(t *testing.T, path string, body any, out any) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(h.URL()+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if out != nil {
		decodeData(t, raw, out)
	}
	return resp.StatusCode, raw
}

// decodeData unwraps the {"data": ...} envelope.
func decodeData(t *testing.T, raw []byte, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, raw)
	}
	if envelope.Data == nil {
		t.Fatalf("response has no data envelope: %s", raw)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func createRequest(nameEnglish, place, martyrdom string, tags []string) model.CreateRecordRequest {
	return model.CreateRecordRequest{
		PersonalInfo: model.PersonalInfo{
			Name:            "اسم الشهيد",
			NameEnglish:     nameEnglish,
			DateOfBirth:     "1990-03-20",
			DateOfMartyrdom: martyrdom,
			MartyrdomPlace:  place,
		},
		Tags: tags,
	}
}

// testHealthEndpoints checks liveness and readiness.
func (h *Harness) testHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(h.URL() + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

// testRecordLifecycle checks create, get, patch and delete round trips.
func (h *Harness) testRecordLifecycle(t *testing.T) {
	var created model.MartyrRecord
	status, raw := h.postJSON(t, "/v1/martyrs", createRequest("Lifecycle Martyr", "Gaza City", "2014-07-20", nil), &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", status, raw)
	}
	if created.ID == "" || created.Metadata.Status != model.StatusActive {
		t.Fatalf("created record incomplete: %+v", created)
	}

	// Get.
	resp, err := http.Get(h.URL() + "/v1/martyrs/" + created.ID)
	if err != nil {
		t.Fatalf("GET record: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var fetched model.MartyrRecord
	decodeData(t, raw, &fetched)
	if fetched.ID != created.ID {
		t.Errorf("fetched id = %q, want %q", fetched.ID, created.ID)
	}

	// Patch.
	verified := model.VerificationVerified
	patch, _ := json.Marshal(model.RecordPatch{Metadata: &model.MetadataPatch{Verification: &verified}})
	req, _ := http.NewRequest(http.MethodPatch, h.URL()+"/v1/martyrs/"+created.ID, bytes.NewReader(patch))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH record: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, want 200: %s", resp.StatusCode, raw)
	}
	var patched model.MartyrRecord
	decodeData(t, raw, &patched)
	if patched.Metadata.Verification != model.VerificationVerified {
		t.Errorf("verification = %q, want verified", patched.Metadata.Verification)
	}

	// Delete, then a second delete is 404.
	req, _ = http.NewRequest(http.MethodDelete, h.URL()+"/v1/martyrs/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE record: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}
	req, _ = http.NewRequest(http.MethodDelete, h.URL()+"/v1/martyrs/"+created.ID, nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

// testSchemaValidation checks incomplete payloads are rejected with the
// structured validation error.
func (h *Harness) testSchemaValidation(t *testing.T) {
	status, raw := h.postJSON(t, "/v1/martyrs", map[string]any{
		"personalInfo": map[string]any{"name": "اسم"},
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", status, raw)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				MissingFields []string `json:"missingFields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "ARCHIVE_VALIDATION" {
		t.Errorf("code = %q, want ARCHIVE_VALIDATION", envelope.Error.Code)
	}
	if len(envelope.Error.Details.MissingFields) == 0 {
		t.Error("missingFields is empty, want the absent date fields")
	}
}

// testSearchAndPagination checks the query surface and page totals.
func (h *Harness) testSearchAndPagination(t *testing.T) {
	seed := []model.CreateRecordRequest{
		createRequest("Search Alpha", "Gaza City", "2014-07-20", []string{"search-suite"}),
		createRequest("Search Beta", "Jenin", "2014-08-02", []string{"search-suite"}),
		createRequest("Search Gamma", "Rafah", "2023-10-12", []string{"search-suite", "rafah"}),
	}
	for _, req := range seed {
		if status, raw := h.postJSON(t, "/v1/martyrs", req, nil); status != http.StatusCreated {
			t.Fatalf("seed status = %d: %s", status, raw)
		}
	}

	get := func(query string) model.SearchResult {
		resp, err := http.Get(h.URL() + "/v1/martyrs?" + query)
		if err != nil {
			t.Fatalf("search %q: %v", query, err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search %q status = %d: %s", query, resp.StatusCode, raw)
		}
		var result model.SearchResult
		decodeData(t, raw, &result)
		return result
	}

	if result := get("tag=search-suite"); result.Total != 3 {
		t.Errorf("tag total = %d, want 3", result.Total)
	}
	if result := get("tag=search-suite&year=2014"); result.Total != 2 {
		t.Errorf("year-filtered total = %d, want 2", result.Total)
	}
	if result := get("q=RAFAH&tag=search-suite"); result.Total != 1 {
		t.Errorf("free-text total = %d, want 1", result.Total)
	}
	result := get("tag=search-suite&limit=2&offset=2")
	if result.Total != 3 || len(result.Records) != 1 {
		t.Errorf("paginated total = %d len = %d, want 3 and 1", result.Total, len(result.Records))
	}
}

// testStatisticsCounters checks increments and the candle shortcut.
func (h *Harness) testStatisticsCounters(t *testing.T) {
	var created model.MartyrRecord
	status, raw := h.postJSON(t, "/v1/martyrs", createRequest("Counter Martyr", "Gaza City", "2014-07-20", nil), &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d: %s", status, raw)
	}

	var stats model.Statistics
	status, _ = h.postJSON(t, "/v1/martyrs/"+created.ID+"/stats", model.IncrementRequest{Counter: model.CounterViews, Delta: 2}, &stats)
	if status != http.StatusOK || stats.Views != 2 {
		t.Errorf("views = %d (status %d), want 2", stats.Views, status)
	}

	for i := 0; i < 3; i++ {
		status, _ = h.postJSON(t, "/v1/martyrs/"+created.ID+"/candle", nil, &stats)
		if status != http.StatusOK {
			t.Fatalf("candle status = %d, want 200", status)
		}
	}
	if stats.Candles != 3 {
		t.Errorf("candles = %d, want 3", stats.Candles)
	}
	if stats.Views != 2 {
		t.Errorf("views disturbed by candle increments: %d", stats.Views)
	}

	status, _ = h.postJSON(t, "/v1/martyrs/"+created.ID+"/stats", model.IncrementRequest{Counter: "bogus"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("unknown counter status = %d, want 400", status)
	}
}
