// Package trajectory persists engine runs to a SQLite event log so a run
// can be inspected after the fact. The Recorder hooks the hub's message
// observer; the Reader serves the status and report tooling.
package trajectory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hexad/pkg/protocol"

	_ "modernc.org/sqlite"
)

// Event types recorded alongside hub messages.
const (
	EventMessage   = "message"
	EventRunStart  = "run_start"
	EventRunFinish = "run_finish"
)

// Open opens (or creates) the trajectory database at path with WAL journal
// mode, a 5-second busy timeout, and the schema applied.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, protocol.SchemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema on %s: %w", path, err)
	}

	return db, nil
}

// DefaultDBPath returns the default trajectory database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hexad", "trajectory.db")
}

// Recorder appends engine events for one run. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	db    *sql.DB
	runID string
}

// NewRecorder creates a recorder writing to db under a fresh run id.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db, runID: uuid.NewString()}
}

// RunID returns this recorder's run identifier.
func (r *Recorder) RunID() string {
	return r.runID
}

// RecordMessage persists one hub message. Shaped to plug straight into the
// hub's message observer; insert errors are intentionally ignored
// (try/ignore pattern).
func (r *Recorder) RecordMessage(msg protocol.Message) {
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		payload = []byte("{}")
	}
	r.insert(EventMessage, string(msg.Sender), string(msg.Receiver),
		string(msg.Type), msg.Content, string(payload))
}

// RecordRunStart marks the beginning of a task run.
func (r *Recorder) RecordRunStart(task string) {
	r.insert(EventRunStart, "", "", "", task, "{}")
}

// RecordRunFinish marks the end of a task run with its final result.
func (r *Recorder) RecordRunFinish(result string) {
	r.insert(EventRunFinish, "", "", "", result, "{}")
}

func (r *Recorder) insert(typ, sender, receiver, msgType, content, payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.db.Exec(
		`INSERT INTO events (run_id, type, sender, receiver, message_type, content, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.runID, typ, sender, receiver, msgType, content, payload,
	)
}

// Event is one row of the trajectory log.
type Event struct {
	ID          int64
	RunID       string
	Type        string
	Sender      string
	Receiver    string
	MessageType string
	Content     string
	Payload     string
	CreatedAt   time.Time
}

// QueryOpts filters trajectory queries.
type QueryOpts struct {
	// RunID restricts results to one run.
	RunID string

	// Sender filters by originating role.
	Sender string

	// Type filters by event type (message, run_start, run_finish).
	Type string

	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// Reader provides read-only access to a trajectory database.
type Reader struct {
	db *sql.DB
}

// NewReader opens the trajectory database in read-only mode.
func NewReader(dbPath string) (*Reader, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Reader{db: db}, nil
}

// Close releases the database connection. Safe to call multiple times.
func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Runs lists distinct run ids, newest first.
func (r *Reader) Runs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id FROM events GROUP BY run_id ORDER BY MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Query retrieves events matching opts in insertion order.
func (r *Reader) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	query, args := buildQuery(opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt string
		err := rows.Scan(&e.ID, &e.RunID, &e.Type, &e.Sender, &e.Receiver,
			&e.MessageType, &e.Content, &e.Payload, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if createdAt != "" {
			parsed, err := time.Parse("2006-01-02 15:04:05", createdAt)
			if err != nil {
				parsed, err = time.Parse(time.RFC3339, createdAt)
				if err != nil {
					return nil, fmt.Errorf("parse created_at: %w", err)
				}
			}
			e.CreatedAt = parsed
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func buildQuery(opts QueryOpts) (string, []any) {
	var conditions []string
	var args []any

	query := `SELECT id, run_id, type, sender, receiver, message_type, content, payload, created_at FROM events WHERE 1=1`

	if opts.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if opts.Sender != "" {
		conditions = append(conditions, "sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.Type)
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	return query, args
}
