// Package audit persists an inspection audit trail to SQLite: one row per
// inspect_element call with selector, URL, outcome and timing. Writes are
// buffered and flushed off the request path.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ofriw/inspect-mcp/dbopen"
	"github.com/ofriw/inspect-mcp/idgen"
	"github.com/ofriw/inspect-mcp/inspector"
)

// Schema for the inspections table.
const Schema = `
CREATE TABLE IF NOT EXISTS inspections (
	id          TEXT PRIMARY KEY,
	timestamp   INTEGER NOT NULL,
	selector    TEXT NOT NULL,
	url         TEXT NOT NULL,
	matched     INTEGER NOT NULL,
	error_code  TEXT DEFAULT '',
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inspections_timestamp ON inspections(timestamp);
`

// Entry is one persisted inspection row.
type Entry struct {
	ID         string
	Timestamp  time.Time
	Selector   string
	URL        string
	Matched    int
	ErrorCode  string
	DurationMs int64
}

// Logger buffers inspection records and flushes them to SQLite.
// It implements inspector.Recorder.
type Logger struct {
	db    *sql.DB
	newID idgen.Generator
	log   *slog.Logger
	ch    chan *Entry
	stop  chan struct{}
	done  chan struct{}
}

// Option configures a Logger.
type Option func(*Logger)

// WithIDGenerator sets a custom ID generator for entry IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *Logger) { l.newID = gen }
}

// WithLogger sets the slog logger for flush failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Logger) { l.log = log }
}

// New creates an async audit logger on an open database. The schema is
// applied by the caller (dbopen.WithSchema(audit.Schema)).
func New(db *sql.DB, bufferSize int, opts ...Option) *Logger {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	l := &Logger{
		db:    db,
		newID: idgen.Prefixed("insp_", idgen.UUIDv7()),
		log:   slog.Default(),
		ch:    make(chan *Entry, bufferSize),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.flushLoop()
	return l
}

// Record queues one inspection record. Never blocks; when the buffer is
// full the record is dropped with a warning, since losing an audit row is
// preferable to stalling an inspection call.
func (l *Logger) Record(_ context.Context, rec inspector.InspectionRecord) {
	e := &Entry{
		ID:         l.newID(),
		Timestamp:  time.Now(),
		Selector:   rec.Selector,
		URL:        rec.URL,
		Matched:    rec.Matched,
		ErrorCode:  rec.ErrorCode,
		DurationMs: rec.Duration.Milliseconds(),
	}
	select {
	case l.ch <- e:
	default:
		l.log.Warn("audit: buffer full, dropping record", "selector", rec.Selector)
	}
}

func (l *Logger) flushLoop() {
	defer close(l.done)
	for {
		select {
		case e := <-l.ch:
			if err := l.insert(context.Background(), e); err != nil {
				l.log.Error("audit: insert failed", "error", err)
			}
		case <-l.stop:
			// Drain whatever is queued before exiting.
			for {
				select {
				case e := <-l.ch:
					if err := l.insert(context.Background(), e); err != nil {
						l.log.Error("audit: drain insert failed", "error", err)
					}
				default:
					return
				}
			}
		}
	}
}

// insert writes one row, retrying on SQLITE_BUSY so concurrent flushes and
// cleanup cannot drop records.
func (l *Logger) insert(ctx context.Context, e *Entry) error {
	_, err := dbopen.Exec(ctx, l.db, `
		INSERT INTO inspections (id, timestamp, selector, url, matched, error_code, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Unix(), e.Selector, e.URL, e.Matched, e.ErrorCode, e.DurationMs,
	)
	return err
}

// Filter controls Query results.
type Filter struct {
	Since     *time.Time
	ErrorCode *string // "" matches successful calls only
	Limit     int     // default 100
}

// Query retrieves inspection entries, newest first.
func (l *Logger) Query(ctx context.Context, f *Filter) ([]*Entry, error) {
	q := `SELECT id, timestamp, selector, url, matched, error_code, duration_ms
		FROM inspections WHERE 1=1`
	var args []any

	if f.Since != nil {
		q += " AND timestamp >= ?"
		args = append(args, f.Since.Unix())
	}
	if f.ErrorCode != nil {
		q += " AND error_code = ?"
		args = append(args, *f.ErrorCode)
	}

	limit := 100
	if f.Limit > 0 {
		limit = f.Limit
	}
	q += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Selector, &e.URL, &e.Matched, &e.ErrorCode, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Cleanup deletes entries older than the retention window and returns the
// number removed.
func (l *Logger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	res, err := dbopen.Exec(ctx, l.db, `DELETE FROM inspections WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the flush loop after draining queued records.
func (l *Logger) Close() error {
	close(l.stop)
	<-l.done
	return nil
}
