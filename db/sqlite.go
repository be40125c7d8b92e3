package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	_ "github.com/mattn/go-sqlite3"

	"mlportfolio/predict"
)

// DefaultLimit caps history queries without an explicit limit.
const DefaultLimit = 50

// MaxLimit is the largest page QueryPredictions returns.
const MaxLimit = 1000

const schema = `
    CREATE TABLE IF NOT EXISTS predictions (
        id TEXT PRIMARY KEY,
        workflow VARCHAR(20) NOT NULL,
        label TEXT NOT NULL,
        class INTEGER,
        value REAL,
        cluster INTEGER,
        summary TEXT NOT NULL,
        features TEXT NOT NULL,
        recovered TEXT NOT NULL DEFAULT '',
        cached INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_workflow ON predictions(workflow, created_at);
    CREATE TABLE IF NOT EXISTS artifact_reloads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        outcome VARCHAR(20) NOT NULL,
        error TEXT NOT NULL DEFAULT '',
        loaded_at DATETIME,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

// Store persists prediction history in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers anyway.
	database.SetMaxOpenConns(1)
	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: database}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record implements predict.Recorder.
func (s *Store) Record(ctx context.Context, r *predict.Result) error {
	return s.SavePrediction(ctx, r)
}

// SavePrediction stores one result.
func (s *Store) SavePrediction(ctx context.Context, r *predict.Result) error {
	if r == nil {
		return errors.New("nil prediction")
	}
	features, err := json.Marshal(r.Features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO predictions (
            id, workflow, label, class, value, cluster, summary, features, recovered, cached, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Workflow, r.Label,
		nullInt(r.Class), nullFloat(r.Value), nullInt(r.Cluster),
		r.Summary, string(features), strings.Join(r.Recovered, ","), r.Cached, r.CreatedAt.UTC(),
	)
	return err
}

// Prediction is one stored history row.
type Prediction struct {
	ID        string                 `json:"id"`
	Workflow  string                 `json:"workflow"`
	Label     string                 `json:"label"`
	Class     *int                   `json:"class,omitempty"`
	Value     *float64               `json:"value,omitempty"`
	Cluster   *int                   `json:"cluster,omitempty"`
	Summary   string                 `json:"summary"`
	Features  map[string]interface{} `json:"features"`
	Recovered []string               `json:"recovered,omitempty"`
	Cached    bool                   `json:"cached"`
	CreatedAt time.Time              `json:"created_at"`
}

// QueryPredictions returns the newest predictions first. An empty workflow
// matches every workflow.
func (s *Store) QueryPredictions(ctx context.Context, workflow string, limit int) ([]Prediction, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, workflow, label, class, value, cluster, summary, features, recovered, cached, created_at
        FROM predictions
        WHERE ? = '' OR workflow = ?
        ORDER BY created_at DESC
        LIMIT ?`, workflow, workflow, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		var class, cluster sql.NullInt64
		var value sql.NullFloat64
		var features, recovered string
		if err := rows.Scan(&p.ID, &p.Workflow, &p.Label, &class, &value, &cluster,
			&p.Summary, &features, &recovered, &p.Cached, &p.CreatedAt); err != nil {
			return nil, err
		}
		if class.Valid {
			v := int(class.Int64)
			p.Class = &v
		}
		if cluster.Valid {
			v := int(cluster.Int64)
			p.Cluster = &v
		}
		if value.Valid {
			v := value.Float64
			p.Value = &v
		}
		if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
			return nil, fmt.Errorf("decode features of %s: %w", p.ID, err)
		}
		if recovered != "" {
			p.Recovered = strings.Split(recovered, ",")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Frame returns the history as a table, one row per prediction.
func Frame(preds []Prediction) dataframe.DataFrame {
	n := len(preds)
	ids := make([]string, n)
	workflows := make([]string, n)
	labels := make([]string, n)
	values := make([]float64, n)
	clusters := make([]string, n)
	recovered := make([]int, n)
	cached := make([]bool, n)
	created := make([]string, n)
	for i, p := range preds {
		ids[i] = p.ID
		workflows[i] = p.Workflow
		labels[i] = p.Label
		values[i] = math.NaN()
		if p.Value != nil {
			values[i] = *p.Value
		}
		if p.Cluster != nil {
			clusters[i] = fmt.Sprint(*p.Cluster)
		}
		recovered[i] = len(p.Recovered)
		cached[i] = p.Cached
		created[i] = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dataframe.New(
		series.New(ids, series.String, "id"),
		series.New(workflows, series.String, "workflow"),
		series.New(labels, series.String, "label"),
		series.New(values, series.Float, "value"),
		series.New(clusters, series.String, "cluster"),
		series.New(recovered, series.Int, "recovered"),
		series.New(cached, series.Bool, "cached"),
		series.New(created, series.String, "created_at"),
	)
}

// ExportCSV writes the matching history to w as CSV.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, workflow string, limit int) error {
	preds, err := s.QueryPredictions(ctx, workflow, limit)
	if err != nil {
		return err
	}
	df := Frame(preds)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

// LogReload stores the outcome of an artifact reload.
func (s *Store) LogReload(ctx context.Context, reloadErr error, loadedAt time.Time) error {
	outcome, msg := "success", ""
	if reloadErr != nil {
		outcome, msg = "failure", reloadErr.Error()
	}
	var at interface{}
	if !loadedAt.IsZero() {
		at = loadedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifact_reloads (outcome, error, loaded_at) VALUES (?, ?, ?)`,
		outcome, msg, at)
	return err
}

// Reload is one stored reload attempt.
type Reload struct {
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LoadReloadLog returns the reload attempts, newest first.
func (s *Store) LoadReloadLog(ctx context.Context) ([]Reload, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT outcome, error, created_at
        FROM artifact_reloads
        ORDER BY id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]Reload, 0)
	for rows.Next() {
		var r Reload
		if err := rows.Scan(&r.Outcome, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, r)
	}
	return logs, rows.Err()
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
