// Package predict assembles form input into feature vectors and scores them
// with the loaded models.
package predict

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"mlportfolio/artifacts"
	"mlportfolio/feature"
	"mlportfolio/monitoring"
)

// ErrUnknownWorkflow is returned for a workflow name that is not served.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// DefaultCacheSize bounds the result cache when no size is configured.
const DefaultCacheSize = 1024

// Result is one scored request.
type Result struct {
	ID        string                 `json:"id"`
	Workflow  string                 `json:"workflow"`
	Summary   string                 `json:"summary"`
	Features  map[string]interface{} `json:"features"`
	Vector    []float64              `json:"vector"`
	Recovered []string               `json:"recovered,omitempty"`
	Cached    bool                   `json:"cached"`
	CreatedAt time.Time              `json:"created_at"`
	Outcome
}

// Recorder receives every successful prediction.
type Recorder interface {
	Record(ctx context.Context, r *Result) error
}

// Options configures a Service.
type Options struct {
	CacheSize int
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	Recorders []Recorder
}

// Service scores requests against the current artifact bundle.
type Service struct {
	holder    *artifacts.Holder
	workflows map[string]Workflow
	order     []Workflow
	cache     *lru.Cache[string, Result]
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	recorders []Recorder
}

// NewService creates a service serving holder's bundle.
func NewService(holder *artifacts.Holder, opts Options) (*Service, error) {
	if holder == nil || holder.Get() == nil {
		return nil, fmt.Errorf("predict: no artifact bundle")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		holder:    holder,
		workflows: make(map[string]Workflow),
		cache:     cache,
		logger:    logger,
		metrics:   opts.Metrics,
		recorders: opts.Recorders,
	}
	for _, wf := range Workflows() {
		s.workflows[wf.Name()] = wf
		s.order = append(s.order, wf)
	}
	return s, nil
}

// Workflows returns the served workflows in display order.
func (s *Service) Workflows() []Workflow {
	return append([]Workflow(nil), s.order...)
}

// Workflow looks up a workflow by name.
func (s *Service) Workflow(name string) (Workflow, error) {
	wf, ok := s.workflows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
	return wf, nil
}

// Defaults returns the default vector the current bundle uses for workflow.
func (s *Service) Defaults(name string) (feature.Defaults, error) {
	wf, err := s.Workflow(name)
	if err != nil {
		return feature.Defaults{}, err
	}
	d, ok := s.holder.Get().Defaults(wf.Schema().Name())
	if !ok {
		return wf.Schema().Defaults(), nil
	}
	return d, nil
}

// Fields returns the form fields of a workflow. When the bundle carries a top
// features list, it replaces the built-in key flags.
func (s *Service) Fields(name string) ([]feature.Field, error) {
	wf, err := s.Workflow(name)
	if err != nil {
		return nil, err
	}
	fields := wf.Schema().Fields()
	top, ok := s.holder.Get().KeyFeatures(wf.Schema().Name())
	if !ok {
		return fields, nil
	}
	key := make(map[string]bool, len(top))
	for _, n := range top {
		key[n] = true
	}
	for i := range fields {
		fields[i].Key = key[fields[i].Name]
	}
	return fields, nil
}

// LoadedAt is when the serving bundle was loaded.
func (s *Service) LoadedAt() time.Time {
	return s.holder.Get().LoadedAt()
}

// Swap publishes a reloaded bundle and drops cached results.
func (s *Service) Swap(b *artifacts.Bundle) {
	s.holder.Swap(b)
	s.cache.Purge()
	s.metrics.ObserveReload(nil, b.LoadedAt())
}

// Predict assembles input for workflow and scores it.
func (s *Service) Predict(ctx context.Context, name string, input map[string]interface{}) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wf, err := s.Workflow(name)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	b := s.holder.Get()
	defaults, ok := b.Defaults(wf.Schema().Name())
	if !ok {
		defaults = wf.Schema().Defaults()
	}
	rec, err := feature.Assemble(wf.Schema(), defaults, input)
	if err != nil {
		s.metrics.ObservePrediction(name, monitoring.OutcomeInvalidInput, time.Since(start))
		return nil, err
	}
	if recovered := rec.Recovered(); len(recovered) > 0 {
		s.logger.Debug("inputs replaced by defaults",
			zap.String("workflow", name), zap.Strings("features", recovered))
		s.metrics.ObserveRecovered(name, len(recovered))
	}

	key := cacheKey(b, name, rec)
	var res Result
	if cached, hit := s.cache.Get(key); hit {
		res = cached
		res.Cached = true
		res.Recovered = rec.Recovered()
		s.metrics.ObserveCacheHit(name)
	} else {
		out, err := wf.Score(b, rec)
		if err != nil {
			s.metrics.ObservePrediction(name, monitoring.OutcomeModelError, time.Since(start))
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		res = Result{
			Workflow:  name,
			Summary:   summarize(name, out),
			Features:  rec.Map(),
			Vector:    rec.Vector(),
			Recovered: rec.Recovered(),
			Outcome:   *out,
		}
		s.cache.Add(key, res)
	}
	res.ID = uuid.NewString()
	res.CreatedAt = time.Now().UTC()

	for _, r := range s.recorders {
		if err := r.Record(ctx, &res); err != nil {
			s.logger.Warn("record prediction failed", zap.String("workflow", name), zap.Error(err))
		}
	}
	s.metrics.ObservePrediction(name, monitoring.OutcomeOK, time.Since(start))
	s.logger.Debug("prediction",
		zap.String("id", res.ID),
		zap.String("workflow", name),
		zap.String("label", res.Label),
		zap.Bool("cached", res.Cached),
		zap.Duration("elapsed", time.Since(start)))
	return &res, nil
}

// cacheKey identifies an assembled record under one bundle generation.
func cacheKey(b *artifacts.Bundle, workflow string, rec *feature.Record) string {
	var sb strings.Builder
	sb.WriteString(workflow)
	sb.WriteByte('@')
	sb.WriteString(strconv.FormatInt(b.LoadedAt().UnixNano(), 36))
	labels := rec.Labels()
	for _, name := range rec.Names() {
		sb.WriteByte('|')
		if l, ok := labels[name]; ok {
			sb.WriteString(strconv.Quote(l))
			continue
		}
		v, _ := rec.Value(name)
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}
