package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mlportfolio/db"
	"mlportfolio/feature"
	"mlportfolio/predict"
)

// History is the prediction log the history endpoints read from.
type History interface {
	QueryPredictions(ctx context.Context, workflow string, limit int) ([]db.Prediction, error)
	ExportCSV(ctx context.Context, w io.Writer, workflow string, limit int) error
	LoadReloadLog(ctx context.Context) ([]db.Reload, error)
}

type handlers struct {
	svc     *predict.Service
	history History
	logger  *zap.Logger
}

// RegisterHandlers wires the API routes onto mux.
func RegisterHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/forms", h.handleForms)
	mux.HandleFunc("GET /api/forms/{workflow}", h.handleForm)
	mux.HandleFunc("POST /api/predict/{workflow}", h.handlePredict)
	mux.HandleFunc("GET /api/predictions", h.handlePredictions)
	mux.HandleFunc("GET /api/predictions/export", h.handleExport)
	mux.HandleFunc("GET /api/artifacts", h.handleArtifacts)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

type formSummary struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Features int    `json:"features"`
}

func (h *handlers) handleForms(w http.ResponseWriter, r *http.Request) {
	out := make([]formSummary, 0, 3)
	for _, wf := range h.svc.Workflows() {
		out = append(out, formSummary{Name: wf.Name(), Title: wf.Title(), Features: wf.Schema().Len()})
	}
	respondJSON(w, out)
}

type formField struct {
	feature.Field
	Value interface{} `json:"value"`
}

func (h *handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("workflow")
	wf, err := h.svc.Workflow(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	defaults, err := h.svc.Defaults(name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fields, err := h.svc.Fields(name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]formField, len(fields))
	for i, f := range fields {
		out[i] = formField{Field: f, Value: defaultValue(f, defaults)}
	}
	respondJSON(w, map[string]interface{}{
		"name":   wf.Name(),
		"title":  wf.Title(),
		"fields": out,
	})
}

// defaultValue shows coded defaults by their label.
func defaultValue(f feature.Field, d feature.Defaults) interface{} {
	if f.Kind == feature.KindLabel {
		return d.Labels[f.Name]
	}
	v := d.Values[f.Name]
	if f.Vocabulary != nil {
		if label, ok := f.Vocabulary.LabelFor(v); ok {
			return label
		}
	}
	return v
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("workflow")
	if _, err := h.svc.Workflow(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	input, err := decodeInputs(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	res, err := h.svc.Predict(r.Context(), name, input)
	if err != nil {
		h.respondPredictError(w, r, err)
		return
	}
	respondJSON(w, res)
}

// decodeInputs accepts {feature: value} or {"inputs": {feature: value}}.
// An empty body means "all defaults".
func decodeInputs(body io.Reader) (map[string]interface{}, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	if nested, ok := raw["inputs"].(map[string]interface{}); ok && len(raw) == 1 {
		return nested, nil
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}

func (h *handlers) respondPredictError(w http.ResponseWriter, r *http.Request, err error) {
	var catErr *feature.InvalidCategoryError
	switch {
	case errors.As(err, &catErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   catErr.Error(),
			"feature": catErr.Feature,
			"allowed": catErr.Allowed,
		})
	case errors.Is(err, predict.ErrUnknownWorkflow):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, http.StatusGatewayTimeout, "request timeout")
	default:
		h.logger.Error("prediction failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("workflow", r.PathValue("workflow")),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "prediction failed")
	}
}

func (h *handlers) historyParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "prediction history is disabled")
		return "", 0, false
	}
	workflow := r.URL.Query().Get("workflow")
	if workflow != "" {
		if _, err := h.svc.Workflow(workflow); err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return "", 0, false
		}
	}
	limit := db.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}
	return workflow, limit, true
}

func (h *handlers) handlePredictions(w http.ResponseWriter, r *http.Request) {
	workflow, limit, ok := h.historyParams(w, r)
	if !ok {
		return
	}
	preds, err := h.history.QueryPredictions(r.Context(), workflow, limit)
	if err != nil {
		h.logger.Error("query predictions failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, map[string]interface{}{
		"workflow": workflow,
		"count":    len(preds),
		"data":     preds,
	})
}

func (h *handlers) handleExport(w http.ResponseWriter, r *http.Request) {
	workflow, limit, ok := h.historyParams(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("limit") == "" {
		limit = db.MaxLimit
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="predictions.csv"`)
	if err := h.history.ExportCSV(r.Context(), w, workflow, limit); err != nil {
		h.logger.Error("export predictions failed", zap.Error(err))
	}
}

func (h *handlers) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	out := map[string]interface{}{
		"loaded_at": h.svc.LoadedAt().UTC().Format(time.RFC3339),
	}
	if h.history != nil {
		reloads, err := h.history.LoadReloadLog(r.Context())
		if err != nil {
			h.logger.Error("load reload log failed", zap.Error(err))
		} else {
			out["reloads"] = reloads
		}
	}
	respondJSON(w, out)
}

func metricsHandler(s *Server) http.Handler {
	if s.metrics == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("encode JSON response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
