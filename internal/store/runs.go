package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/d20stats/internal/domain"
	"github.com/soyeahso/d20stats/internal/stats"
)

// ErrRunNotFound is returned when a run id or world has no stored run.
var ErrRunNotFound = errors.New("run not found")

const (
	periodAll      = "all"
	periodPrevious = "previous"
)

// createdLayout is fixed width so created_at sorts as text in time order.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunMeta carries what a run read, alongside the bundle it produced.
type RunMeta struct {
	SourceFormat string
	SourcePath   string
	Records      int
	Messages     int
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID           string                `json:"id"`
	World        string                `json:"world"`
	SourceFormat string                `json:"source_format"`
	SourcePath   string                `json:"source_path"`
	Players      []string              `json:"players"`
	Records      int                   `json:"records"`
	Messages     int                   `json:"messages"`
	CreatedAt    time.Time             `json:"created_at"`
	Session      *domain.SessionWindow `json:"session,omitempty"`
}

// Run is a stored summary plus the bundle rebuilt from its metric rows.
type Run struct {
	RunSummary
	Bundle *domain.Bundle `json:"bundle"`
}

// MetricPoint is one value of a metric in the history of a world.
type MetricPoint struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Value     float64   `json:"value"`
}

// RunStore persists report bundles.
type RunStore struct {
	db *DB
}

// NewRunStore creates a run store backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// SaveBundle stores a bundle and returns the new run id.
func (s *RunStore) SaveBundle(ctx context.Context, b *domain.Bundle, meta RunMeta) (string, error) {
	id := uuid.New().String()
	players, err := json.Marshal(b.Players)
	if err != nil {
		return "", fmt.Errorf("encoding players: %w", err)
	}

	created := b.GeneratedAt
	if created.IsZero() {
		created = time.Now()
	}

	var start, end sql.NullString
	var count int
	if b.Session != nil {
		start = sql.NullString{String: b.Session.Start.UTC().Format(time.RFC3339), Valid: true}
		end = sql.NullString{String: b.Session.End.UTC().Format(time.RFC3339), Valid: true}
		count = b.Session.Count
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, world, source_format, source_path, players, records, messages,
			created_at, session_start, session_end, session_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, b.World, meta.SourceFormat, meta.SourcePath, string(players), meta.Records, meta.Messages,
		created.UTC().Format(createdLayout), start, end, count)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_metrics (run_id, period, position, slice, metric, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing metric insert: %w", err)
	}
	defer stmt.Close()

	for period, reports := range map[string][]domain.Report{periodAll: b.Reports, periodPrevious: b.Previous} {
		for pos, r := range reports {
			for name, v := range r.Metrics {
				if _, err := stmt.ExecContext(ctx, id, period, pos, r.Label, name, v); err != nil {
					return "", fmt.Errorf("inserting metric %s/%s: %w", r.Label, name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	s.db.log.Debug().Str("run", id).Str("world", b.World).Msg("run saved")
	return id, nil
}

const summaryColumns = `id, world, source_format, source_path, players, records, messages,
	created_at, session_start, session_end, session_count`

// ListRuns returns stored runs, newest first. An empty world lists every world.
// A non-positive limit means no limit.
func (s *RunStore) ListRuns(ctx context.Context, world string, limit int) ([]RunSummary, error) {
	query := "SELECT " + summaryColumns + " FROM runs"
	var args []any
	if world != "" {
		query += " WHERE world = ?"
		args = append(args, world)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sum)
	}
	return out, rows.Err()
}

// LatestRun loads the most recent run for a world.
func (s *RunStore) LatestRun(ctx context.Context, world string) (*Run, error) {
	var id string
	err := s.db.sql.QueryRowContext(ctx,
		"SELECT id FROM runs WHERE world = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", world,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("world %q: %w", world, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding latest run: %w", err)
	}
	return s.LoadRun(ctx, id)
}

// LoadRun rebuilds a stored run, including its bundle.
func (s *RunStore) LoadRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.sql.QueryRowContext(ctx, "SELECT "+summaryColumns+" FROM runs WHERE id = ?", id)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT period, position, slice, metric, value FROM run_metrics
		WHERE run_id = ? ORDER BY period, position, metric
	`, id)
	if err != nil {
		return nil, fmt.Errorf("loading metrics: %w", err)
	}
	defer rows.Close()

	bundle := &domain.Bundle{
		World:         sum.World,
		Players:       sum.Players,
		GeneratedAt:   sum.CreatedAt,
		Session:       sum.Session,
		FieldMetadata: stats.FieldMetadata(),
	}
	for rows.Next() {
		var period, slice, metric string
		var pos int
		var value float64
		if err := rows.Scan(&period, &pos, &slice, &metric, &value); err != nil {
			return nil, fmt.Errorf("scanning metric: %w", err)
		}
		target := &bundle.Reports
		if period == periodPrevious {
			target = &bundle.Previous
		}
		for len(*target) <= pos {
			*target = append(*target, domain.Report{Metrics: map[string]float64{}})
		}
		(*target)[pos].Label = slice
		(*target)[pos].Metrics[metric] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Run{RunSummary: *sum, Bundle: bundle}, nil
}

// MetricHistory returns a metric's all-time value for one slice across a world's runs, oldest first.
func (s *RunStore) MetricHistory(ctx context.Context, world, slice, metric string) ([]MetricPoint, error) {
	rows, err := s.db.sql.QueryContext(ctx, `
		SELECT r.id, r.created_at, m.value
		FROM run_metrics m JOIN runs r ON r.id = m.run_id
		WHERE r.world = ? AND m.slice = ? AND m.metric = ? AND m.period = ?
		ORDER BY r.created_at, r.rowid
	`, world, slice, metric, periodAll)
	if err != nil {
		return nil, fmt.Errorf("querying metric history: %w", err)
	}
	defer rows.Close()

	var out []MetricPoint
	for rows.Next() {
		var p MetricPoint
		var created string
		if err := rows.Scan(&p.RunID, &created, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning metric point: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its metrics.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %q: %w", id, ErrRunNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (*RunSummary, error) {
	var (
		sum          RunSummary
		players      string
		created      string
		start, end   sql.NullString
		sessionCount int
	)
	err := sc.Scan(&sum.ID, &sum.World, &sum.SourceFormat, &sum.SourcePath, &players,
		&sum.Records, &sum.Messages, &created, &start, &end, &sessionCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if err := json.Unmarshal([]byte(players), &sum.Players); err != nil {
		return nil, fmt.Errorf("decoding players of run %s: %w", sum.ID, err)
	}
	if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parsing created_at of run %s: %w", sum.ID, err)
	}
	if start.Valid && end.Valid {
		w := &domain.SessionWindow{Count: sessionCount}
		w.Start, _ = time.Parse(time.RFC3339, start.String)
		w.End, _ = time.Parse(time.RFC3339, end.String)
		sum.Session = w
	}
	return &sum, nil
}
