// internal/storage/file.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// storeVersion is written into the document metadata on every save.
const storeVersion = "1.0.0"

// document is the on-disk shape of the store: the full record array plus
// collection-level metadata.
type document struct {
	Martyrs  []model.MartyrRecord `json:"martyrs"`
	Metadata model.StoreMetadata  `json:"metadata"`
}

// fileStore implements Store over a single JSON document on local disk.
// The collection lives in memory and is rewritten wholesale on every
// mutation. An RWMutex serializes access within the process; running several
// processes against the same store file is unsafe and unsupported.
type fileStore struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// NewFile opens (or initializes) the JSON store at path. Initialization is
// idempotent: a missing file gets its parent directory and a default empty
// document; an existing file is loaded as-is. A file that exists but cannot
// be parsed is a hard error rather than a silent reset to an empty
// collection — losing the archive quietly is worse than refusing to start.
func NewFile(path string) (Store, error) {
	fs := &fileStore{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		fs.doc = defaultDocument()
		if err := fs.save(); err != nil {
			return nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		return fs, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat store file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if err := json.Unmarshal(data, &fs.doc); err != nil {
		return nil, fmt.Errorf("store file %s is corrupt: %w (restore from backup before restarting)", path, err)
	}

	return fs, nil
}

// defaultDocument builds the empty document written on first initialization.
func defaultDocument() document {
	return document{
		Martyrs: []model.MartyrRecord{},
		Metadata: model.StoreMetadata{
			TotalCount:  0,
			LastUpdated: time.Now().UTC(),
			Version:     storeVersion,
			Schema: map[string]any{
				"name":     "martyr-archive",
				"revision": storeVersion,
				"sections": []string{"personalInfo", "familyInfo", "biography", "mediaAssets", "metadata", "statistics"},
			},
		},
	}
}

// save recomputes the collection metadata and rewrites the whole document.
// The write goes to a temp file in the same directory followed by a rename,
// so a crash mid-write leaves the previous document intact.
// Callers must hold the write lock.
func (f *fileStore) save() error {
	f.doc.Metadata.TotalCount = len(f.doc.Martyrs)
	f.doc.Metadata.LastUpdated = time.Now().UTC()
	f.doc.Metadata.Version = storeVersion

	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".martyrs-*.json")
	if err != nil {
		return fmt.Errorf("failed to save store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to save store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save store: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save store: %w", err)
	}
	return nil
}

// indexOf returns the position of a record id, or -1.
// Callers must hold at least the read lock.
func (f *fileStore) indexOf(id string) int {
	for i := range f.doc.Martyrs {
		if f.doc.Martyrs[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fileStore) CreateRecord(ctx context.Context, record model.MartyrRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.indexOf(record.ID) >= 0 {
		return ErrConflict
	}

	f.doc.Martyrs = append(f.doc.Martyrs, record)
	if err := f.save(); err != nil {
		// In-memory state now holds the record even though disk does not;
		// surfaced to the caller as a persistence failure.
		return err
	}
	return nil
}

func (f *fileStore) GetRecord(ctx context.Context, id string) (*model.MartyrRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	i := f.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	record := f.doc.Martyrs[i]
	return &record, nil
}

func (f *fileStore) ReplaceRecord(ctx context.Context, record model.MartyrRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(record.ID)
	if i < 0 {
		return ErrNotFound
	}

	f.doc.Martyrs[i] = record
	return f.save()
}

func (f *fileStore) DeleteRecord(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	f.doc.Martyrs = append(f.doc.Martyrs[:i], f.doc.Martyrs[i+1:]...)
	return f.save()
}

func (f *fileStore) ListRecords(ctx context.Context) ([]model.MartyrRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	records := make([]model.MartyrRecord, len(f.doc.Martyrs))
	copy(records, f.doc.Martyrs)
	return records, nil
}

func (f *fileStore) IncrementCounter(ctx context.Context, id, counter string, delta int64) (*model.MartyrRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	if !bumpCounter(&f.doc.Martyrs[i].Statistics, counter, delta) {
		return nil, fmt.Errorf("unknown counter: %s", counter)
	}
	f.doc.Martyrs[i].Metadata.UpdatedAt = time.Now().UTC()

	if err := f.save(); err != nil {
		return nil, err
	}
	record := f.doc.Martyrs[i]
	return &record, nil
}

func (f *fileStore) Metadata(ctx context.Context) (model.StoreMetadata, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.doc.Metadata, nil
}
