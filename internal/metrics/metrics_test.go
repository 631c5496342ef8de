package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chrissnell/hydrosim/internal/hydro"
)

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	idx := &hydro.Indices{PBIAS: -0.1, NSE: 0.75, R2: 0.9, RMSE: 0.5}
	m.ObserveRun("upper", 3, 20*time.Millisecond, idx, nil)
	m.ObserveRun("lower", 1, time.Millisecond, nil, errors.New("boom"))

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(resultSuccess)); got != 1 {
		t.Errorf("success runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues(resultError)); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IndexValue.WithLabelValues("upper", "nse")); got != 0.75 {
		t.Errorf("nse gauge = %v, want 0.75", got)
	}
	if n := testutil.CollectAndCount(m.IndexValue); n != 4 {
		t.Errorf("index series = %d, want 4 (failed run must not set gauges)", n)
	}
	if n := testutil.CollectAndCount(m.RunDuration); n != 1 {
		t.Errorf("duration histogram count = %d", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRun("x", 1, time.Second, nil, nil)
}
