package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHostMetricsCountsCalls(t *testing.T) {
	m := HostMetrics()
	if HostMetrics() != m {
		t.Fatalf("registry must be initialised once")
	}
	m.ObserveCall("counter", "inc", "committed", 5*time.Millisecond)
	m.ObserveCall("counter", "inc", "committed", time.Millisecond)
	m.ObserveAbort("counter", "fail", "Domain")
	m.ObserveEvent("", "counter.inc")

	if got := testutil.ToFloat64(m.calls.WithLabelValues("counter", "inc", "committed")); got != 2 {
		t.Fatalf("expected 2 committed calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.aborts.WithLabelValues("counter", "fail", "Domain")); got != 1 {
		t.Fatalf("expected 1 abort, got %v", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("unknown", "counter.inc")); got != 1 {
		t.Fatalf("expected blank contract label to map to unknown, got %v", got)
	}
}

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	m.Observe("ledger_invoke", 0, time.Millisecond)
	m.Observe("ledger_invoke", -32602, time.Millisecond)
	if got := testutil.ToFloat64(m.requests.WithLabelValues("ledger_invoke", "-32602")); got != 1 {
		t.Fatalf("expected 1 failed request, got %v", got)
	}
}

func TestNilRegistriesAreNoops(t *testing.T) {
	var h *hostMetrics
	h.ObserveCall("a", "b", "c", 0)
	h.ObserveAbort("a", "b", "c")
	h.ObserveEvent("a", "b")
	var m *moduleMetrics
	m.Observe("a", 0, 0)
}
