package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// newTestRecord builds a minimal valid record for store tests.
func newTestRecord(id string) model.MartyrRecord {
	now := time.Now().UTC()
	return model.MartyrRecord{
		ID: id,
		PersonalInfo: model.PersonalInfo{
			Name:            "اسم الشهيد",
			NameEnglish:     "Test Martyr",
			DateOfBirth:     "1990-03-20",
			DateOfMartyrdom: "2014-07-20",
			MartyrdomPlace:  "Gaza",
			Age:             24,
		},
		Metadata: model.Metadata{
			CreatedAt:    now,
			UpdatedAt:    now,
			Status:       model.StatusActive,
			Verification: model.VerificationPending,
			Tags:         []string{"gaza"},
		},
	}
}

// TestNewFileInitializes verifies that a missing file gets a default empty
// document, including the parent directory.
func TestNewFileInitializes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "martyrs.json")

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	meta, err := store.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", meta.TotalCount)
	}
	if meta.Version == "" {
		t.Error("Version is empty")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file was not created: %v", err)
	}
}

// TestNewFileIdempotent verifies that reopening an existing store does not
// alter its contents.
func TestNewFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if err := store.CreateRecord(ctx, newTestRecord("m-1")); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() second open error = %v", err)
	}
	records, err := reopened.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "m-1" {
		t.Errorf("reopened store records = %v, want the one created record", records)
	}
}

// TestNewFileCorrupt verifies that a corrupt store file is a loud error, not
// a silent reset to an empty collection.
func TestNewFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFile(path); err == nil {
		t.Error("NewFile() error = nil, want corrupt-file error")
	}
}

// TestSaveLoadRoundTrip verifies that a save followed by a fresh load
// reproduces the record set field-for-field.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	rec := newTestRecord("m-roundtrip")
	rec.Biography = model.Biography{
		Occupation:   "teacher",
		Achievements: []string{"founded a school library"},
		Testament:    "ابقوا صامدين",
	}
	rec.Statistics = model.Statistics{Views: 7, Candles: 2}
	if err := store.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	reopened, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() reopen error = %v", err)
	}
	got, err := reopened.GetRecord(ctx, "m-roundtrip")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}

	if got.PersonalInfo != rec.PersonalInfo {
		t.Errorf("PersonalInfo round trip mismatch: got %+v, want %+v", got.PersonalInfo, rec.PersonalInfo)
	}
	if got.Biography.Testament != rec.Biography.Testament {
		t.Errorf("Testament = %q, want %q", got.Biography.Testament, rec.Biography.Testament)
	}
	if got.Statistics != rec.Statistics {
		t.Errorf("Statistics = %+v, want %+v", got.Statistics, rec.Statistics)
	}
	if !got.Metadata.CreatedAt.Equal(rec.Metadata.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.Metadata.CreatedAt, rec.Metadata.CreatedAt)
	}
}

// TestTotalCountTracksCollection verifies the totalCount invariant after
// create and delete.
func TestTotalCountTracksCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	for _, id := range []string{"m-a", "m-b", "m-c"} {
		if err := store.CreateRecord(ctx, newTestRecord(id)); err != nil {
			t.Fatalf("CreateRecord(%s) error = %v", id, err)
		}
	}
	meta, _ := store.Metadata(ctx)
	if meta.TotalCount != 3 {
		t.Errorf("TotalCount after creates = %d, want 3", meta.TotalCount)
	}

	if err := store.DeleteRecord(ctx, "m-b"); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}
	meta, _ = store.Metadata(ctx)
	if meta.TotalCount != 2 {
		t.Errorf("TotalCount after delete = %d, want 2", meta.TotalCount)
	}
}

// TestDeleteMissing verifies that deleting an unknown id reports not-found
// and leaves totalCount unchanged.
func TestDeleteMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if err := store.CreateRecord(ctx, newTestRecord("m-1")); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	if err := store.DeleteRecord(ctx, "m-missing"); err != ErrNotFound {
		t.Errorf("DeleteRecord() error = %v, want ErrNotFound", err)
	}
	meta, _ := store.Metadata(ctx)
	if meta.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", meta.TotalCount)
	}
}

// TestCreateConflict verifies that duplicate ids are rejected.
func TestCreateConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if err := store.CreateRecord(ctx, newTestRecord("m-dup")); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if err := store.CreateRecord(ctx, newTestRecord("m-dup")); err != ErrConflict {
		t.Errorf("CreateRecord() duplicate error = %v, want ErrConflict", err)
	}
}

// TestIncrementCounter verifies sequential increments accumulate and refresh
// updatedAt monotonically.
func TestIncrementCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "martyrs.json")
	ctx := context.Background()

	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if err := store.CreateRecord(ctx, newTestRecord("m-1")); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}

	first, err := store.IncrementCounter(ctx, "m-1", model.CounterViews, 1)
	if err != nil {
		t.Fatalf("IncrementCounter() error = %v", err)
	}
	if _, err := store.IncrementCounter(ctx, "m-1", model.CounterViews, 1); err != nil {
		t.Fatalf("IncrementCounter() error = %v", err)
	}
	third, err := store.IncrementCounter(ctx, "m-1", model.CounterViews, 1)
	if err != nil {
		t.Fatalf("IncrementCounter() error = %v", err)
	}

	if third.Statistics.Views != 3 {
		t.Errorf("Views after three increments = %d, want 3", third.Statistics.Views)
	}
	if third.Metadata.UpdatedAt.Before(first.Metadata.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: first %v, third %v", first.Metadata.UpdatedAt, third.Metadata.UpdatedAt)
	}

	if _, err := store.IncrementCounter(ctx, "m-1", "bogus", 1); err == nil {
		t.Error("IncrementCounter() with unknown counter succeeded, want error")
	}
}
