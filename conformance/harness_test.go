package conformance

import "testing"

// TestConformance runs the full conformance suite against the service over
// HTTP with the default harness configuration.
func TestConformance(t *testing.T) {
	h, err := NewHarness(Config{})
	if err != nil {
		t.Fatalf("NewHarness() error = %v", err)
	}
	defer h.Close()

	h.RunConformanceTests(t)
}
