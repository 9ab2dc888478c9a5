package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/boletoscan/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "boletoscan.db"

// ErrNotFound is returned when the database file does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// DB stores finished scan sessions.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. A scan loop writes while a
	// second process may be listing history.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error
// wrapping ErrNotFound is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *DB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *DB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		closed_at TEXT,
		numero INTEGER,
		outcome TEXT NOT NULL,
		ok INTEGER NOT NULL DEFAULT 0,
		record_json TEXT NOT NULL,
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_numero ON sessions(numero);
	CREATE INDEX IF NOT EXISTS idx_sessions_outcome ON sessions(outcome);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSession inserts or replaces a session record.
func (hdb *DB) SaveSession(ctx context.Context, rec *model.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("session record has no ID")
	}

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	var numero sql.NullInt64
	if rec.Numero != nil {
		numero = sql.NullInt64{Int64: *rec.Numero, Valid: true}
	}
	var closedAt sql.NullString
	if !rec.ClosedAt.IsZero() {
		closedAt = sql.NullString{String: formatTimestamp(rec.ClosedAt), Valid: true}
	}

	query := `
	INSERT INTO sessions (id, started_at, closed_at, numero, outcome, ok, record_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		started_at = excluded.started_at,
		closed_at = excluded.closed_at,
		numero = excluded.numero,
		outcome = excluded.outcome,
		ok = excluded.ok,
		record_json = excluded.record_json,
		saved_at = CURRENT_TIMESTAMP
	`

	_, err = hdb.db.ExecContext(ctx, query,
		rec.ID,
		formatTimestamp(rec.StartedAt),
		closedAt,
		numero,
		rec.Outcome().String(),
		rec.OK,
		string(recordJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID. It returns nil, nil when no such
// session exists.
func (hdb *DB) GetSession(ctx context.Context, id string) (*model.SessionRecord, error) {
	var recordJSON string
	err := hdb.db.QueryRowContext(ctx, `SELECT record_json FROM sessions WHERE id = ?`, id).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec model.SessionRecord
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &rec, nil
}

// ListSessions returns the most recent sessions, newest first.
// A limit <= 0 returns every session.
func (hdb *DB) ListSessions(ctx context.Context, limit int) ([]*model.SessionRecord, error) {
	query := `SELECT record_json FROM sessions ORDER BY started_at DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []*model.SessionRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		var rec model.SessionRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			continue // Skip malformed rows
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// HasRecentSubmission reports whether numero was saved successfully within
// the given duration before now.
func (hdb *DB) HasRecentSubmission(ctx context.Context, numero int64, within time.Duration) (bool, error) {
	since := formatTimestamp(time.Now().Add(-within))

	var count int
	err := hdb.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM sessions
	WHERE numero = ? AND ok = 1 AND started_at > ?
	`, numero, since).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent submission: %w", err)
	}

	return count > 0, nil
}

// Summary counts stored sessions by outcome.
type Summary struct {
	// Total is the number of stored sessions.
	Total int

	// ByOutcome maps model.Outcome names to session counts.
	ByOutcome map[string]int

	// LastSession is when the newest stored session started.
	LastSession time.Time
}

// Summarize counts stored sessions by outcome.
func (hdb *DB) Summarize(ctx context.Context) (*Summary, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM sessions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sessions: %w", err)
	}
	defer rows.Close()

	summary := &Summary{ByOutcome: make(map[string]int)}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary.ByOutcome[outcome] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullString
	if err := hdb.db.QueryRowContext(ctx, `SELECT MAX(started_at) FROM sessions`).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to read last session: %w", err)
	}
	if last.Valid {
		summary.LastSession = parseTimestamp(last.String)
	}

	return summary, nil
}

// storedTimestampFormat sorts lexically in time order.
const storedTimestampFormat = "2006-01-02T15:04:05.000000000Z"

// formatTimestamp renders t in UTC with a fixed width.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestampFormat,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
