package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shahed-archive/shahed-archive-go/internal/metrics"
	"github.com/shahed-archive/shahed-archive-go/internal/model"
)

// counterValue reads one labeled series of the operation counter. The metrics
// registry is process-global, so assertions work on before/after deltas.
func counterValue(m *metrics.Metrics, op, status string) float64 {
	return testutil.ToFloat64(m.StorageOperationTotal.WithLabelValues(op, status))
}

// TestWithMetricsObservesOperations verifies the instrumented store counts
// each operation by name and outcome while passing results through unchanged.
func TestWithMetricsObservesOperations(t *testing.T) {
	inner, err := NewFile(filepath.Join(t.TempDir(), "martyrs.json"))
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	m := metrics.NewMetrics()
	store := WithMetrics(inner, m)
	ctx := context.Background()

	createBefore := counterValue(m, "create", "success")
	getErrBefore := counterValue(m, "get", "error")
	incBefore := counterValue(m, "increment", "success")

	record := newTestRecord("instrument-1")
	if err := store.CreateRecord(ctx, record); err != nil {
		t.Fatalf("CreateRecord() error = %v", err)
	}
	if got := counterValue(m, "create", "success") - createBefore; got != 1 {
		t.Errorf("create success delta = %v, want 1", got)
	}

	if _, err := store.GetRecord(ctx, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRecord() error = %v, want ErrNotFound", err)
	}
	if got := counterValue(m, "get", "error") - getErrBefore; got != 1 {
		t.Errorf("get error delta = %v, want 1", got)
	}

	updated, err := store.IncrementCounter(ctx, record.ID, model.CounterViews, 1)
	if err != nil {
		t.Fatalf("IncrementCounter() error = %v", err)
	}
	if updated.Statistics.Views != 1 {
		t.Errorf("views = %d, want 1 through the wrapper", updated.Statistics.Views)
	}
	if got := counterValue(m, "increment", "success") - incBefore; got != 1 {
		t.Errorf("increment success delta = %v, want 1", got)
	}
}
