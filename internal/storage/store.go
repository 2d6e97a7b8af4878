// internal/storage/store.go
// Package storage provides implementations of the Store interface for the
// file-backed JSON document store and the PostgreSQL backend.
package storage

import (
	"context"
	"errors"

	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// Standard errors returned by the storage layer
var (
	ErrNotFound = errors.New("not found") // Returned when a record is not found
	ErrConflict = errors.New("conflict")  // Returned when a record already exists
)

// Store defines the persistence operations required by the repository façade.
// Both backends hold full martyr records; search filtering happens above this
// interface as linear scans over ListRecords.
type Store interface {
	// CreateRecord persists a new record. ErrConflict if the id exists.
	CreateRecord(ctx context.Context, record model.MartyrRecord) error

	// GetRecord returns the record with the given id, or ErrNotFound.
	GetRecord(ctx context.Context, id string) (*model.MartyrRecord, error)

	// ReplaceRecord overwrites an existing record wholesale. ErrNotFound if absent.
	ReplaceRecord(ctx context.Context, record model.MartyrRecord) error

	// DeleteRecord removes a record. ErrNotFound if absent.
	DeleteRecord(ctx context.Context, id string) error

	// ListRecords returns the full collection in insertion order.
	ListRecords(ctx context.Context) ([]model.MartyrRecord, error)

	// IncrementCounter atomically adds delta to one statistics counter and
	// refreshes the record's updatedAt. Returns the updated record.
	IncrementCounter(ctx context.Context, id, counter string, delta int64) (*model.MartyrRecord, error)

	// Metadata returns the collection-level metadata block.
	Metadata(ctx context.Context) (model.StoreMetadata, error)
}

// bumpCounter applies a delta to the named counter of a statistics block.
// Unknown counter names are rejected by the callers before reaching here.
func bumpCounter(stats *model.Statistics, counter string, delta int64) bool {
	switch counter {
	case model.CounterViews:
		stats.Views += delta
	case model.CounterDownloads:
		stats.Downloads += delta
	case model.CounterShares:
		stats.Shares += delta
	case model.CounterCandles:
		stats.Candles += delta
	default:
		return false
	}
	return true
}
