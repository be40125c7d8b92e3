package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mlportfolio/artifacts"
	"mlportfolio/artifacts/artifactstest"
	"mlportfolio/db"
	"mlportfolio/monitoring"
	"mlportfolio/predict"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	store   *db.Store
	hub     *Hub
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := artifactstest.WriteFixtures(t, dir)
	b, err := artifacts.Load(cfg)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	metrics := monitoring.NewMetrics()
	hub := NewHub(logger, metrics, []string{"*"})
	go hub.Start()
	t.Cleanup(hub.Stop)

	env := &testEnv{hub: hub}
	recorders := []predict.Recorder{hub}
	deps := Deps{Hub: hub, Metrics: metrics, Logger: logger}
	if withHistory {
		store, err := db.NewStore(filepath.Join(dir, "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		env.store = store
		recorders = append(recorders, store)
		deps.History = store
	}

	svc, err := predict.NewService(artifacts.NewHolder(b), predict.Options{
		Logger:    logger,
		Metrics:   metrics,
		Recorders: recorders,
	})
	require.NoError(t, err)
	deps.Service = svc

	cfgSrv := DefaultServerConfig()
	cfgSrv.MaxBodyBytes = 4096
	env.server = NewServer(cfgSrv, deps)
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), w.Body.String())
	return payload
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodOptions, "/api/predict/student", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestFormsHandlers(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/forms", "")
	require.Equal(t, http.StatusOK, w.Code)
	var forms []formSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forms))
	require.Len(t, forms, 3)
	assert.Equal(t, "student", forms[0].Name)
	assert.Equal(t, 36, forms[0].Features)
	assert.Equal(t, 17, forms[2].Features)

	w = env.do(t, http.MethodGet, "/api/forms/ship", "")
	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)
	fields := payload["fields"].([]interface{})
	require.Len(t, fields, 17)
	shipType := fields[12].(map[string]interface{})
	assert.Equal(t, "Ship_Type", shipType["name"])
	assert.Equal(t, "label", shipType["kind"])
	assert.Equal(t, "Bulk Carrier", shipType["value"])
	assert.Len(t, shipType["options"], 4)

	w = env.do(t, http.MethodGet, "/api/forms/student", "")
	payload = decodeBody(t, w)
	for _, f := range payload["fields"].([]interface{}) {
		field := f.(map[string]interface{})
		switch field["name"] {
		case "Tuition fees up to date":
			assert.Equal(t, "Yes", field["value"])
			assert.Equal(t, true, field["key"])
		case "Age at enrollment":
			assert.Equal(t, true, field["key"])
		case "Debtor":
			assert.Equal(t, false, field["key"])
		}
	}

	w = env.do(t, http.MethodGet, "/api/forms/weather", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlePredict(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/predict/student", `{"Tuition fees up to date": "No"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload := decodeBody(t, w)
	assert.Equal(t, "Dropout", payload["label"])
	assert.Equal(t, "student", payload["workflow"])
	assert.Len(t, payload["probabilities"], 3)

	w = env.do(t, http.MethodPost, "/api/predict/cancer", `{"inputs": {"medincome": 52000}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload = decodeBody(t, w)
	assert.Equal(t, float64(175), payload["death_rate"])
	assert.Equal(t, float64(52000), payload["features"].(map[string]interface{})["medincome"])

	w = env.do(t, http.MethodPost, "/api/predict/ship", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload = decodeBody(t, w)
	assert.Equal(t, "Cost-Efficient Carriers", payload["label"])
	assert.Equal(t, float64(1), payload["cluster"])
}

func TestHandlePredictErrors(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/predict/student", `{"Marital status": "Complicated"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	payload := decodeBody(t, w)
	assert.Equal(t, "Marital status", payload["feature"])
	assert.Contains(t, payload["allowed"], "Single")

	w = env.do(t, http.MethodPost, "/api/predict/weather", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/predict/cancer", `{"medincome":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	big := `{"x": "` + strings.Repeat("a", 8192) + `"}`
	w = env.do(t, http.MethodPost, "/api/predict/cancer", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = env.do(t, http.MethodGet, "/api/predict/cancer", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPredictionHistory(t *testing.T) {
	env := newTestEnv(t, true)

	for _, body := range []string{`{}`, `{"Ship_Type": "Tanker", "Engine_Type": "HFO", "Maintenance_Status": "Critical"}`} {
		w := env.do(t, http.MethodPost, "/api/predict/ship", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodPost, "/api/predict/cancer", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/predictions?workflow=ship&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)
	assert.Equal(t, float64(2), payload["count"])

	w = env.do(t, http.MethodGet, "/api/predictions", "")
	payload = decodeBody(t, w)
	assert.Equal(t, float64(3), payload["count"])

	w = env.do(t, http.MethodGet, "/api/predictions?workflow=nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/predictions/export?workflow=ship", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,workflow,label"))
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/predictions", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestArtifactsHandler(t *testing.T) {
	env := newTestEnv(t, true)
	require.NoError(t, env.store.LogReload(context.Background(), nil, time.Now()))

	w := env.do(t, http.MethodGet, "/api/artifacts", "")
	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)
	assert.NotEmpty(t, payload["loaded_at"])
	assert.Len(t, payload["reloads"], 1)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/predict/cancer", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `predictions_total{outcome="ok",workflow="cancer"} 1`)
	assert.Contains(t, body, "prediction_duration_seconds")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zaptest.NewLogger(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("internal server error")))
}

func TestDecodeInputs(t *testing.T) {
	in, err := decodeInputs(strings.NewReader(`{"inputs": {"GDP": 1.5}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.5"), in["GDP"])

	in, err = decodeInputs(strings.NewReader(`null`))
	require.NoError(t, err)
	assert.Empty(t, in)

	_, err = decodeInputs(strings.NewReader(`[1,2]`))
	assert.Error(t, err)
}
