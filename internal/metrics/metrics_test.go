package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("slot_taken")
	m.ObserveTransition("BOOKED", "CONFIRMED", true)
	m.ObserveTransition("COMPLETED", "BOOKED", false)
	m.ObserveSlotQuery("ok", 16)

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("created")); got != 2 {
		t.Fatalf("created bookings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("slot_taken")); got != 1 {
		t.Fatalf("slot_taken bookings = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("COMPLETED", "BOOKED", "rejected")); got != 1 {
		t.Fatalf("rejected transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.slotQueries.WithLabelValues("ok")); got != 1 {
		t.Fatalf("slot queries = %v, want 1", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var b *BookingMetrics
	b.ObserveBooking("created")
	b.ObserveTransition("BOOKED", "CANCELLED", true)
	b.ObserveSlotQuery("ok", 3)

	var h *HTTPMetrics
	h.Observe("GET", "/health/live", 200, time.Millisecond)
}

func TestHTTPMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/clinics/{id}/slots", 200, 15*time.Millisecond)

	if n := testutil.CollectAndCount(m.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}
