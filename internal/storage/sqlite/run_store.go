package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunStatusOK    = "ok"
	RunStatusError = "error"
)

// ConversionRun records the outcome of converting one source.
type ConversionRun struct {
	RunID          string        `json:"run_id"`
	CreatedAt      time.Time     `json:"created_at"`
	SourcePath     string        `json:"source_path"`
	Namespace      string        `json:"namespace"`
	Deduplicate    bool          `json:"deduplicate"`
	OverrideMode   bool          `json:"override_mode"`
	InputPoints    int           `json:"input_points"`
	OutputPoints   int           `json:"output_points"`
	AttributeCount int           `json:"attribute_count"`
	Duration       time.Duration `json:"duration"`
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
}

// RunStore provides persistence for conversion runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Insert stores run. An empty RunID is filled with a new UUID and a zero
// CreatedAt with the current time.
func (s *RunStore) Insert(run *ConversionRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = RunStatusOK
		if run.Error != "" {
			run.Status = RunStatusError
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO conversion_runs (
			run_id, created_at, source_path, namespace, deduplicate, override_mode,
			input_points, output_points, attribute_count, duration_ns, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.CreatedAt.UnixNano(),
		run.SourcePath,
		run.Namespace,
		boolToInt(run.Deduplicate),
		boolToInt(run.OverrideMode),
		run.InputPoints,
		run.OutputPoints,
		run.AttributeCount,
		run.Duration.Nanoseconds(),
		run.Status,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("insert conversion run: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at, source_path, namespace, deduplicate, override_mode,
	input_points, output_points, attribute_count, duration_ns, status, error`

// Get returns the run with the given id, or nil if it does not exist.
func (s *RunStore) Get(runID string) (*ConversionRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM conversion_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversion run: %w", err)
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest first.
func (s *RunStore) ListRecent(limit int) ([]*ConversionRun, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM conversion_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversion runs: %w", err)
	}
	defer rows.Close()

	var runs []*ConversionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversion run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*ConversionRun, error) {
	r := &ConversionRun{}
	var createdAt, durationNs int64
	var dedup, override int
	var errText sql.NullString
	err := sc.Scan(
		&r.RunID, &createdAt, &r.SourcePath, &r.Namespace, &dedup, &override,
		&r.InputPoints, &r.OutputPoints, &r.AttributeCount, &durationNs, &r.Status, &errText,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt)
	r.Duration = time.Duration(durationNs)
	r.Deduplicate = dedup != 0
	r.OverrideMode = override != 0
	if errText.Valid {
		r.Error = errText.String
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
