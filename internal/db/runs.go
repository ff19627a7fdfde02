package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/wearable.report/internal/hr"
	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/pipeline"
	"github.com/banshee-data/wearable.report/internal/reconstruct"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// createdLayout is fixed-width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored summary of one reconstruction.
type Run struct {
	ID           string
	Source       string
	Profile      string
	SkippedLines int
	CreatedAt    time.Time
}

// ChannelSummary is the stored outcome of one channel in a run.
type ChannelSummary struct {
	Channel      telemetry.Channel
	SampleRateHz float64
	Filter       string
	Records      int
	Samples      int
	Error        string
}

// SaveResult stores a full run in one transaction and returns its ID.
func (db *DB) SaveResult(ctx context.Context, source string, res *pipeline.Result) (string, error) {
	runID := uuid.NewString()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, profile, skipped_lines, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, source, res.Profile, res.Skipped, db.clock.Now().UTC().Format(createdLayout))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, c := range telemetry.Channels {
		cr := res.Channel(c)
		if cr == nil {
			continue
		}
		if err := insertChannel(ctx, tx, runID, cr); err != nil {
			return "", err
		}
		if err := insertDiagnostics(ctx, tx, runID, cr.Diagnostics); err != nil {
			return "", err
		}
	}
	if err := insertHR(ctx, tx, runID, res.HR); err != nil {
		return "", err
	}
	if err := insertDiagnostics(ctx, tx, runID, res.HRDiagnostics); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func insertChannel(ctx context.Context, tx *sql.Tx, runID string, cr *pipeline.ChannelResult) error {
	var errText sql.NullString
	if cr.Err != nil {
		errText = sql.NullString{String: cr.Err.Error(), Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO channel_results (run_id, channel, sample_rate_hz, filter, records, error) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, cr.Channel.String(), cr.SampleRateHz, cr.Filter, cr.Records, errText)
	if err != nil {
		return fmt.Errorf("insert %s result: %w", cr.Channel, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO channel_samples (run_id, channel, idx, timestamp_ms, logical_seq, v0, v1, v2) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s samples: %w", cr.Channel, err)
	}
	defer stmt.Close()

	for i, s := range cr.Samples {
		var seq sql.NullInt64
		if s.HasSeq {
			seq = sql.NullInt64{Int64: s.LogicalSeq, Valid: true}
		}
		var v [3]sql.NullFloat64
		for a := 0; a < len(s.Values) && a < len(v); a++ {
			v[a] = sql.NullFloat64{Float64: s.Values[a], Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, cr.Channel.String(), i, s.TimestampMs, seq, v[0], v[1], v[2]); err != nil {
			return fmt.Errorf("insert %s sample %d: %w", cr.Channel, i, err)
		}
	}
	return nil
}

func insertHR(ctx context.Context, tx *sql.Tx, runID string, records []hr.Annotated) error {
	for i, r := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO hr_records (run_id, idx, device_ts, local_ts, reported_hr, original_hr, confidence, is_drop)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, r.Record.DeviceTS, r.Record.LocalTS, r.Beats, r.Record.ReportedBeats, r.Record.Confidence, r.IsDrop)
		if err != nil {
			return fmt.Errorf("insert hr record %d: %w", i, err)
		}
	}
	return nil
}

func insertDiagnostics(ctx context.Context, tx *sql.Tx, runID string, d *monitoring.Diagnostics) error {
	for kind, n := range d.Counts() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (run_id, channel, kind, count) VALUES (?, ?, ?, ?)`,
			runID, d.Channel(), string(kind), n)
		if err != nil {
			return fmt.Errorf("insert diagnostic %s/%s: %w", d.Channel(), kind, err)
		}
	}
	return nil
}

func scanRun(row interface{ Scan(...interface{}) error }) (Run, error) {
	var r Run
	var created string
	if err := row.Scan(&r.ID, &r.Source, &r.Profile, &r.SkippedLines, &created); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(createdLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	return r, nil
}

// GetRun returns one run, or ErrRunNotFound.
func (db *DB) GetRun(ctx context.Context, runID string) (Run, error) {
	row := db.QueryRowContext(ctx,
		`SELECT run_id, source, profile, skipped_lines, created_at FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return r, err
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, source, profile, skipped_lines, created_at FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ChannelSummaries returns the per-channel outcome of a run in channel order.
func (db *DB) ChannelSummaries(ctx context.Context, runID string) ([]ChannelSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.channel, r.sample_rate_hz, r.filter, r.records, r.error,
		       (SELECT COUNT(*) FROM channel_samples s WHERE s.run_id = r.run_id AND s.channel = r.channel)
		FROM channel_results r WHERE r.run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byChannel := make(map[telemetry.Channel]ChannelSummary)
	for rows.Next() {
		var s ChannelSummary
		var name string
		var errText sql.NullString
		if err := rows.Scan(&name, &s.SampleRateHz, &s.Filter, &s.Records, &errText, &s.Samples); err != nil {
			return nil, err
		}
		if s.Channel, err = telemetry.ParseChannel(name); err != nil {
			return nil, err
		}
		s.Error = errText.String
		byChannel[s.Channel] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ChannelSummary
	for _, c := range telemetry.Channels {
		if s, ok := byChannel[c]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ChannelSamples returns the stored samples of one channel in order.
func (db *DB) ChannelSamples(ctx context.Context, runID string, c telemetry.Channel) ([]reconstruct.TimestampedSample, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT timestamp_ms, logical_seq, v0, v1, v2 FROM channel_samples
		 WHERE run_id = ? AND channel = ? ORDER BY idx`, runID, c.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reconstruct.TimestampedSample
	for rows.Next() {
		var s reconstruct.TimestampedSample
		var seq sql.NullInt64
		var v0 float64
		var v1, v2 sql.NullFloat64
		if err := rows.Scan(&s.TimestampMs, &seq, &v0, &v1, &v2); err != nil {
			return nil, err
		}
		s.LogicalSeq, s.HasSeq = seq.Int64, seq.Valid
		s.Values = []float64{v0}
		if v1.Valid && v2.Valid {
			s.Values = append(s.Values, v1.Float64, v2.Float64)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// HRRecords returns the stored HR records of a run in input order.
func (db *DB) HRRecords(ctx context.Context, runID string) ([]hr.Annotated, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT device_ts, local_ts, reported_hr, original_hr, confidence, is_drop
		 FROM hr_records WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []hr.Annotated
	for rows.Next() {
		var a hr.Annotated
		if err := rows.Scan(&a.Record.DeviceTS, &a.Record.LocalTS, &a.Beats,
			&a.Record.ReportedBeats, &a.Record.Confidence, &a.IsDrop); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Diagnostics returns the stored counters of a run keyed by channel name.
func (db *DB) Diagnostics(ctx context.Context, runID string) (map[string]map[monitoring.Kind]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT channel, kind, count FROM diagnostics WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[monitoring.Kind]int)
	for rows.Next() {
		var channel, kind string
		var n int
		if err := rows.Scan(&channel, &kind, &n); err != nil {
			return nil, err
		}
		if out[channel] == nil {
			out[channel] = make(map[monitoring.Kind]int)
		}
		out[channel][monitoring.Kind(kind)] = n
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything recorded for it.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}
