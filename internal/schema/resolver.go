// Package schema provides utilities for resolving and caching the published
// record schema.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// publishedSchema is the wire format of a remotely published schema revision.
type publishedSchema struct {
	Version     string          `json:"version"`
	Schema      json.RawMessage `json:"schema"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Resolver fetches the record schema from a published location, keeping a
// local cache so the service can start while the schema host is unreachable.
type Resolver struct {
	schemasURL   string
	cacheDir     string
	cached       *publishedSchema
	lastUpdate   time.Time
	cacheTimeout time.Duration
}

// NewResolver creates a new schema resolver.
func NewResolver(schemasURL, cacheDir string) *Resolver {
	return &Resolver{
		schemasURL:   schemasURL,
		cacheDir:     cacheDir,
		cacheTimeout: 5 * time.Minute,
	}
}

// RecordSchema returns the published record schema JSON and its version.
// Resolution order: in-memory cache, on-disk cache (valid for 24h), remote.
// A stale in-memory copy is preferred over a failed remote fetch.
func (r *Resolver) RecordSchema() (string, string, error) {
	if r.cached != nil && time.Since(r.lastUpdate) < r.cacheTimeout {
		return string(r.cached.Schema), r.cached.Version, nil
	}

	if ps, err := r.loadFromCache(); err == nil && ps != nil && time.Since(ps.GeneratedAt) < 24*time.Hour {
		r.cached = ps
		r.lastUpdate = time.Now()
		return string(ps.Schema), ps.Version, nil
	}

	ps, err := r.fetchFromRemote()
	if err != nil {
		if r.cached != nil {
			return string(r.cached.Schema), r.cached.Version, nil
		}
		return "", "", fmt.Errorf("failed to fetch record schema: %w", err)
	}

	r.cached = ps
	r.lastUpdate = time.Now()
	r.saveToCache(ps)

	return string(ps.Schema), ps.Version, nil
}

// loadFromCache loads the published schema from local cache
func (r *Resolver) loadFromCache() (*publishedSchema, error) {
	cachePath := filepath.Join(r.cacheDir, "record-schema.json")
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, err
	}

	var ps publishedSchema
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, err
	}

	return &ps, nil
}

// saveToCache saves the published schema to local cache. Cache errors are
// ignored; the embedded schema remains the fallback either way.
func (r *Resolver) saveToCache(ps *publishedSchema) {
	if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
		return
	}

	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return
	}

	cachePath := filepath.Join(r.cacheDir, "record-schema.json")
	_ = os.WriteFile(cachePath, data, 0644)
}

// fetchFromRemote fetches the published schema from the schemas host
func (r *Resolver) fetchFromRemote() (*publishedSchema, error) {
	schemaURL := r.schemasURL + "/record-schema.json"
	resp, err := http.Get(schemaURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch record schema: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var ps publishedSchema
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, err
	}
	if ps.Version == "" || len(ps.Schema) == 0 {
		return nil, fmt.Errorf("published schema is incomplete")
	}

	return &ps, nil
}
