package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediafx/internal/config"
	"mediafx/internal/host"
)

// Journal is the SQLite-backed render history.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens the journal configured by cfg.
func Open(cfg *config.Config) (*Journal, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens or creates the journal database at path.
func OpenPath(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps PRAGMA settings in effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path, now: time.Now}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database location.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// StartSession inserts a session row.
func (j *Journal) StartSession(ctx context.Context, s Session) error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("session id required")
	}
	settings, err := json.Marshal(s.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	started := s.StartedAt
	if started.IsZero() {
		started = j.now()
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, engine, manifest, settings_json) VALUES (?, ?, ?, ?, ?)`,
		s.ID, formatTime(started), s.Engine, nullableString(s.Manifest), string(settings),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// RecordEntries replaces the entry snapshot stored for a session.
func (j *Journal) RecordEntries(ctx context.Context, sessionID string, entries []Entry) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin entries tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (session_id, position, name, kind, channel, frame_start, duration, source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, e.Position, e.Name, string(e.Kind), e.Channel, e.FrameStart, e.Duration, e.Source,
		)
		if err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}
	return nil
}

// Entries returns the stored entries of a session in position order.
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT position, name, kind, channel, frame_start, duration, source
		 FROM entries WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Position, &e.Name, &kind, &e.Channel, &e.FrameStart, &e.Duration, &e.Source); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = host.EntryKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// StartRender records a running render and returns its identifier.
func (j *Journal) StartRender(ctx context.Context, sessionID, output string) (int64, error) {
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO renders (session_id, output, status, started_at) VALUES (?, ?, ?, ?)`,
		sessionID, output, string(RenderRunning), formatTime(j.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("render id: %w", err)
	}
	return id, nil
}

// FinishRender marks a render succeeded (renderErr nil) or failed.
func (j *Journal) FinishRender(ctx context.Context, id int64, renderErr error, archivePath string) error {
	status := RenderSucceeded
	var message any
	if renderErr != nil {
		status = RenderFailed
		message = renderErr.Error()
	}
	res, err := j.db.ExecContext(ctx,
		`UPDATE renders SET status = ?, error = ?, archive_path = ?, finished_at = ? WHERE id = ?`,
		string(status), message, nullableString(archivePath), formatTime(j.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update render: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("render %d not found", id)
	}
	return nil
}

// EndSession stamps the session end time.
func (j *Journal) EndSession(ctx context.Context, sessionID string) error {
	_, err := j.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, formatTime(j.now()), sessionID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Recent returns up to limit renders, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Render, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT r.id, r.session_id, s.engine, COALESCE(s.manifest, ''), r.output, r.status,
		       COALESCE(r.error, ''), COALESCE(r.archive_path, ''), r.started_at, r.finished_at,
		       (SELECT COUNT(1) FROM entries e WHERE e.session_id = r.session_id)
		FROM renders r JOIN sessions s ON s.id = r.session_id
		ORDER BY r.started_at DESC, r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	var out []Render
	for rows.Next() {
		var r Render
		var status, started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Engine, &r.Manifest, &r.Output, &status,
			&r.Error, &r.ArchivePath, &started, &finished, &r.EntryCount); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		r.Status = RenderStatus(status)
		if t, err := parseTime(started); err == nil {
			r.StartedAt = t
		}
		if finished.Valid {
			if t, err := parseTime(finished.String); err == nil {
				r.FinishedAt = &t
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty time")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
