// internal/storage/instrument.go
package storage

import (
	"context"
	"time"

	"github.com/shahed-archive/shahed-archive-go/internal/metrics"
	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// instrumentedStore decorates a Store with Prometheus counters and latency
// histograms, labeled by operation and outcome. It works for both backends.
type instrumentedStore struct {
	next Store
	m    *metrics.Metrics
}

// WithMetrics wraps a Store so every persistence operation is observed.
func WithMetrics(next Store, m *metrics.Metrics) Store {
	return &instrumentedStore{next: next, m: m}
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.m.StorageOperationTotal.WithLabelValues(op, status).Inc()
	s.m.StorageOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) CreateRecord(ctx context.Context, record model.MartyrRecord) error {
	start := time.Now()
	err := s.next.CreateRecord(ctx, record)
	s.observe("create", start, err)
	return err
}

func (s *instrumentedStore) GetRecord(ctx context.Context, id string) (*model.MartyrRecord, error) {
	start := time.Now()
	record, err := s.next.GetRecord(ctx, id)
	s.observe("get", start, err)
	return record, err
}

func (s *instrumentedStore) ReplaceRecord(ctx context.Context, record model.MartyrRecord) error {
	start := time.Now()
	err := s.next.ReplaceRecord(ctx, record)
	s.observe("replace", start, err)
	return err
}

func (s *instrumentedStore) DeleteRecord(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.DeleteRecord(ctx, id)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) ListRecords(ctx context.Context) ([]model.MartyrRecord, error) {
	start := time.Now()
	records, err := s.next.ListRecords(ctx)
	s.observe("list", start, err)
	return records, err
}

func (s *instrumentedStore) IncrementCounter(ctx context.Context, id, counter string, delta int64) (*model.MartyrRecord, error) {
	start := time.Now()
	record, err := s.next.IncrementCounter(ctx, id, counter, delta)
	s.observe("increment", start, err)
	return record, err
}

func (s *instrumentedStore) Metadata(ctx context.Context) (model.StoreMetadata, error) {
	start := time.Now()
	meta, err := s.next.Metadata(ctx)
	s.observe("metadata", start, err)
	return meta, err
}
