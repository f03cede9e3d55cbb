package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.ConnectionAccepted()
	c.ConnectionAccepted()
	c.AdmissionVerified()
	c.AdmissionFailed("prelude")
	c.AdmissionFailed("prelude")
	c.AdmissionFailed("verification")
	c.SpliceCompleted(100, 250)

	if got := testutil.ToFloat64(c.accepted); got != 2 {
		t.Errorf("accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.verified); got != 1 {
		t.Errorf("verified = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.admissionFailures.WithLabelValues("prelude")); got != 2 {
		t.Errorf("prelude failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.bytesToBackend); got != 100 {
		t.Errorf("bytes to backend = %v, want 100", got)
	}
	if got := testutil.ToFloat64(c.bytesToOverlay); got != 250 {
		t.Errorf("bytes to overlay = %v, want 250", got)
	}
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	c.ConnectionAccepted()
	c.AdmissionVerified()
	c.AdmissionFailed("witness")
	c.SpliceCompleted(1, 2)
	if c.Registry() != nil {
		t.Error("nil collector returned a registry")
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ConnectionAccepted()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "eepproxy_connections_accepted_total 1") {
		t.Errorf("metrics output missing accepted counter:\n%s", body)
	}
}
