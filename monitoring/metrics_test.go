package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePrediction(t *testing.T) {
	m := NewMetrics()
	m.ObservePrediction("ship", OutcomeOK, 3*time.Millisecond)
	m.ObservePrediction("ship", OutcomeOK, time.Millisecond)
	m.ObservePrediction("ship", OutcomeInvalidInput, time.Millisecond)

	if got := testutil.ToFloat64(m.Predictions.WithLabelValues("ship", OutcomeOK)); got != 2 {
		t.Fatalf("expected 2 ok predictions, got %v", got)
	}
	if got := testutil.CollectAndCount(m.PredictionDuration); got != 1 {
		t.Fatalf("expected one duration series, got %d", got)
	}
}

func TestObserveRecoveredAndCache(t *testing.T) {
	m := NewMetrics()
	m.ObserveRecovered("cancer", 0)
	m.ObserveRecovered("cancer", 2)
	m.ObserveCacheHit("cancer")

	if got := testutil.ToFloat64(m.Recovered.WithLabelValues("cancer")); got != 2 {
		t.Fatalf("expected 2 recovered, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("cancer")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
}

func TestObserveReload(t *testing.T) {
	m := NewMetrics()
	loaded := time.Unix(1700000000, 0)
	m.ObserveReload(nil, loaded)
	m.ObserveReload(errors.New("bad file"), time.Time{})

	if got := testutil.ToFloat64(m.Reloads.WithLabelValues(OutcomeReloadFailure)); got != 1 {
		t.Fatalf("expected 1 failed reload, got %v", got)
	}
	if got := testutil.ToFloat64(m.BundleLoadedAt); got != 1700000000 {
		t.Fatalf("unexpected loaded timestamp %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePrediction("student", OutcomeOK, time.Millisecond)
	m.ObserveRecovered("student", 1)
	m.ObserveCacheHit("student")
	m.ObserveReload(nil, time.Now())
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.ObserveCacheHit("ship")
	if got := testutil.ToFloat64(b.CacheHits.WithLabelValues("ship")); got != 0 {
		t.Fatalf("metrics leaked across registries: %v", got)
	}
}
