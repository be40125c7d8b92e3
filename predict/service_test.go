package predict

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mlportfolio/artifacts"
	"mlportfolio/artifacts/artifactstest"
	"mlportfolio/feature"
	"mlportfolio/monitoring"
)

type memoryRecorder struct {
	mu      sync.Mutex
	results []*Result
}

func (m *memoryRecorder) Record(_ context.Context, r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, *Result) error {
	return errors.New("disk full")
}

func newTestService(t *testing.T, recorders ...Recorder) (*Service, *monitoring.Metrics, artifacts.Config) {
	t.Helper()
	cfg := artifactstest.WriteFixtures(t, t.TempDir())
	b, err := artifacts.Load(cfg)
	require.NoError(t, err)
	metrics := monitoring.NewMetrics()
	svc, err := NewService(artifacts.NewHolder(b), Options{
		CacheSize: 16,
		Logger:    zaptest.NewLogger(t),
		Metrics:   metrics,
		Recorders: recorders,
	})
	require.NoError(t, err)
	return svc, metrics, cfg
}

func TestStudentDefaultsGraduate(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Predict(context.Background(), "student", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Graduate", res.Label)
	require.NotNil(t, res.Class)
	assert.Equal(t, 2, *res.Class)
	require.Len(t, res.Probabilities, 3)
	assert.InDelta(t, 0.15, res.Probabilities[0].Probability, 1e-9)
	assert.InDelta(t, 0.25, res.Probabilities[1].Probability, 1e-9)
	assert.InDelta(t, 0.60, res.Probabilities[2].Probability, 1e-9)
	assert.Contains(t, res.Summary, "Prediction: Graduate")
	assert.Contains(t, res.Summary, "- Graduate: 60.0%")
	assert.Len(t, res.Vector, feature.Student.Len())
	assert.NotEmpty(t, res.ID)
}

func TestStudentTuitionNotPaidDropout(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Predict(context.Background(), "student", map[string]interface{}{
		"Tuition fees up to date": "No",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dropout", res.Label)
	assert.InDelta(t, 0.45, res.Probabilities[0].Probability, 1e-9)
}

func TestCancerTruncatesDeathRate(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Predict(context.Background(), "cancer", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Value)
	require.NotNil(t, res.DeathRate)
	assert.InDelta(t, 175.5, *res.Value, 1e-9)
	assert.Equal(t, 175, *res.DeathRate)
	assert.Equal(t, "Predicted Death Rate: 175 per 100,000 people annually", res.Summary)
}

func TestShipClusters(t *testing.T) {
	svc, _, _ := newTestService(t)

	res, err := svc.Predict(context.Background(), "ship", map[string]interface{}{})
	require.NoError(t, err)
	require.NotNil(t, res.Cluster)
	assert.Equal(t, 1, *res.Cluster)
	assert.Equal(t, "Cost-Efficient Carriers", res.Label)
	assert.Contains(t, res.Summary, "Recommendation: This is a benchmark vessel.")

	res, err = svc.Predict(context.Background(), "ship", map[string]interface{}{
		"Ship_Type":          "Tanker",
		"Engine_Type":        "HFO",
		"Maintenance_Status": "Critical",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, *res.Cluster)
	assert.Equal(t, "High-Cost Carriers", res.Label)
	assert.Equal(t, "Heavy Fuel Oil (HFO)", res.Features["Engine_Type"])
}

func TestUnknownWorkflow(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Predict(context.Background(), "weather", nil)
	assert.True(t, errors.Is(err, ErrUnknownWorkflow))
}

func TestInvalidCategoryCountsAsInvalidInput(t *testing.T) {
	svc, metrics, _ := newTestService(t)

	_, err := svc.Predict(context.Background(), "student", map[string]interface{}{"Gender": "Robot"})
	var catErr *feature.InvalidCategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "Gender", catErr.Feature)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("student", monitoring.OutcomeInvalidInput)))
}

func TestRecoveredInputsCounted(t *testing.T) {
	svc, metrics, _ := newTestService(t)

	res, err := svc.Predict(context.Background(), "cancer", map[string]interface{}{
		"medincome": "lots",
		"pctblack":  []int{1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"medincome", "pctblack"}, res.Recovered)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Recovered.WithLabelValues("cancer")))
}

func TestCacheHitOnIdenticalVector(t *testing.T) {
	rec := &memoryRecorder{}
	svc, metrics, _ := newTestService(t, rec)
	ctx := context.Background()

	first, err := svc.Predict(ctx, "student", map[string]interface{}{"Debtor": "No"})
	require.NoError(t, err)
	// "No" and 0 assemble to the same vector.
	second, err := svc.Predict(ctx, "student", map[string]interface{}{"Debtor": 0})
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHits.WithLabelValues("student")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("student", monitoring.OutcomeOK)))
	assert.Len(t, rec.results, 2)
}

func TestSwapPurgesCache(t *testing.T) {
	svc, metrics, cfg := newTestService(t)
	ctx := context.Background()

	_, err := svc.Predict(ctx, "cancer", nil)
	require.NoError(t, err)

	b, err := artifacts.Load(cfg)
	require.NoError(t, err)
	svc.Swap(b)
	assert.Equal(t, 0, svc.cache.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Reloads.WithLabelValues(monitoring.OutcomeReloadSuccess)))

	res, err := svc.Predict(ctx, "cancer", nil)
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestRecorderFailureDoesNotFailPrediction(t *testing.T) {
	svc, _, _ := newTestService(t, failingRecorder{})

	res, err := svc.Predict(context.Background(), "ship", nil)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestPredictCancelledContext(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Predict(ctx, "student", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultsFollowBundle(t *testing.T) {
	svc, _, _ := newTestService(t)

	d, err := svc.Defaults("ship")
	require.NoError(t, err)
	assert.Equal(t, "Bulk Carrier", d.Labels["Ship_Type"])

	_, err = svc.Defaults("nope")
	assert.ErrorIs(t, err, ErrUnknownWorkflow)
}

func TestConcurrentPredictions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Predict(ctx, "cancer", map[string]interface{}{"povertypercent": float64(i % 4 * 10)})
			assert.NoError(t, err)
			assert.NotNil(t, res)
		}(i)
	}
	wg.Wait()
}

func TestFieldsUseTopFeatures(t *testing.T) {
	svc, _, _ := newTestService(t)

	fields, err := svc.Fields("student")
	require.NoError(t, err)
	var key []string
	for _, f := range fields {
		if f.Key {
			key = append(key, f.Name)
		}
	}
	assert.ElementsMatch(t, artifactstest.StudentTopFeatures, key)

	fields, err = svc.Fields("cancer")
	require.NoError(t, err)
	for _, f := range fields {
		want, _ := feature.Cancer.Field(f.Name)
		assert.Equal(t, want.Key, f.Key, f.Name)
	}

	_, err = svc.Fields("weather")
	assert.True(t, errors.Is(err, ErrUnknownWorkflow))
}
