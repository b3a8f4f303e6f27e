package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/psusim/psusim/internal/host"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	// timestampLayout is fixed width so created_at sorts as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrInvalidEntry is returned when an event cannot be journalled.
var ErrInvalidEntry = errors.New("history: invalid entry")

// Entry is one journalled change event.
type Entry struct {
	ID         string         `json:"id"`
	Supply     string         `json:"supply"`
	Kind       string         `json:"kind"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Logger defines the logging interface used by the journal.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Journal stores change events in the supply_events table.
type Journal struct {
	db     *sql.DB
	logger Logger
}

// NewJournal creates a journal on an open, migrated database.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db, logger: noopLogger{}}
}

// SetLogger sets the logger used by the retention loop.
func (j *Journal) SetLogger(logger Logger) {
	if logger != nil {
		j.logger = logger
	}
}

// HandleEvent implements host.Sink.
func (j *Journal) HandleEvent(ctx context.Context, ev host.Event) error {
	return j.Record(ctx, ev)
}

// Record inserts ev. Events without an ID or supply name are rejected.
func (j *Journal) Record(ctx context.Context, ev host.Event) error {
	if ev.ID == "" || ev.Supply == "" {
		return fmt.Errorf("%w: id and supply are required", ErrInvalidEntry)
	}
	props := ev.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshalling properties: %w", err)
	}
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO supply_events (id, supply, kind, properties, created_at) VALUES (?, ?, ?, ?, ?)",
		ev.ID,
		ev.Supply,
		ev.Kind,
		string(propsJSON),
		at.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting supply event: %w", err)
	}
	return nil
}

// History returns the most recent entries for supply, newest first.
// A non-positive limit selects the default of 50; limits above 200 are
// capped.
func (j *Journal) History(ctx context.Context, supply string, limit int) ([]Entry, error) {
	if supply == "" {
		return nil, fmt.Errorf("%w: supply is required", ErrInvalidEntry)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, supply, kind, properties, created_at
		 FROM supply_events
		 WHERE supply = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		supply,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying supply events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var propsJSON, createdAt string
		if err := rows.Scan(&e.ID, &e.Supply, &e.Kind, &propsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning supply event: %w", err)
		}
		if err := json.Unmarshal([]byte(propsJSON), &e.Properties); err != nil {
			return nil, fmt.Errorf("unmarshalling properties: %w", err)
		}
		if e.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating supply events: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than olderThan and returns how many went.
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timestampLayout)
	result, err := j.db.ExecContext(ctx, "DELETE FROM supply_events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting supply events: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// RunRetention prunes entries older than retention every interval until
// ctx is cancelled.
func (j *Journal) RunRetention(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := j.Prune(ctx, retention)
			if err != nil {
				j.logger.Warn("pruning supply events failed", "error", err)
				continue
			}
			if n > 0 {
				j.logger.Info("pruned supply events", "deleted", n, "retention", retention)
			}
		}
	}
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}
	if t, err := time.Parse(timestampLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return t, nil
}
