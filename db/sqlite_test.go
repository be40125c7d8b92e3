package db

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlportfolio/predict"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResults() []*predict.Result {
	class, cluster := 2, 1
	value := 181.7
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*predict.Result{
		{
			ID: "a", Workflow: "student", Summary: "Prediction: Graduate",
			Features:  map[string]interface{}{"Debtor": 0.0},
			CreatedAt: base,
			Outcome:   predict.Outcome{Label: "Graduate", Class: &class},
		},
		{
			ID: "b", Workflow: "cancer", Summary: "Predicted Death Rate: 181 per 100,000 people annually",
			Features:  map[string]interface{}{"medincome": 45269.0},
			Recovered: []string{"pctblack"},
			CreatedAt: base.Add(time.Minute),
			Outcome:   predict.Outcome{Label: "181 per 100,000", Value: &value},
		},
		{
			ID: "c", Workflow: "ship", Summary: "Operational Group: Cost-Efficient Carriers",
			Features:  map[string]interface{}{"Ship_Type": "Tanker"},
			Cached:    true,
			CreatedAt: base.Add(2 * time.Minute),
			Outcome:   predict.Outcome{Label: "Cost-Efficient Carriers", Cluster: &cluster},
		},
	}
}

func TestSaveAndQueryPredictions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range sampleResults() {
		require.NoError(t, s.Record(ctx, r))
	}

	all, err := s.QueryPredictions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	ship := all[0]
	require.NotNil(t, ship.Cluster)
	assert.Equal(t, 1, *ship.Cluster)
	assert.Nil(t, ship.Value)
	assert.True(t, ship.Cached)
	assert.Equal(t, "Tanker", ship.Features["Ship_Type"])

	cancer, err := s.QueryPredictions(ctx, "cancer", 10)
	require.NoError(t, err)
	require.Len(t, cancer, 1)
	require.NotNil(t, cancer[0].Value)
	assert.InDelta(t, 181.7, *cancer[0].Value, 1e-9)
	assert.Equal(t, []string{"pctblack"}, cancer[0].Recovered)

	limited, err := s.QueryPredictions(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSavePredictionNil(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.SavePrediction(context.Background(), nil))
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range sampleResults() {
		require.NoError(t, s.Record(ctx, r))
	}

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(ctx, &buf, "", 0))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "id,workflow,label,value,cluster,recovered,cached,created_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "c,ship,Cost-Efficient Carriers,"))
	assert.Contains(t, lines[2], "181.7")
}

func TestReloadLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LogReload(ctx, nil, time.Now()))
	require.NoError(t, s.LogReload(ctx, errors.New("bad scaler"), time.Time{}))

	logs, err := s.LoadReloadLog(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "failure", logs[0].Outcome)
	assert.Equal(t, "bad scaler", logs[0].Error)
	assert.Equal(t, "success", logs[1].Outcome)
}
