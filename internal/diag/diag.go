// Package diag records the faults the video coordinator reports, for the
// admin dashboard.
package diag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/devfolio/folio/internal/media"
)

// Event kinds.
const (
	KindMissingControl   = "missing_control"
	KindPlaybackRejected = "playback_rejected"
	KindPlaybackError    = "playback_error"
	KindInternal         = "internal"
)

// Event is one recorded fault.
type Event struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Session   string    `json:"session"`
	Widget    string    `json:"widget"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarises the recorded events.
type Stats struct {
	Total  int64            `json:"total"`
	ByKind map[string]int64 `json:"by_kind"`
	Today  int64            `json:"today"`
	Recent []Event          `json:"recent"`
}

// Kind classifies an error reported by the coordinator.
func Kind(err error) string {
	var (
		missing  *media.MissingControlError
		rejected *media.PlaybackRejected
		runtime  *media.PlaybackRuntimeError
	)
	switch {
	case errors.As(err, &missing):
		return KindMissingControl
	case errors.As(err, &rejected):
		return KindPlaybackRejected
	case errors.As(err, &runtime):
		return KindPlaybackError
	default:
		return KindInternal
	}
}

// Recorder stores events in the media_events table.
type Recorder struct {
	db  *sql.DB
	now func() time.Time
	wg  sync.WaitGroup
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Init creates the table if needed.
func (r *Recorder) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS media_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		session TEXT,
		widget TEXT,
		message TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create media_events: %w", err)
	}
	return nil
}

// Record stores ev. A zero timestamp is set to now.
func (r *Recorder) Record(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_events (kind, session, widget, message, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, ev.Kind, ev.Session, ev.Widget, ev.Message, ev.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert media event: %w", err)
	}
	return nil
}

// Sink returns the media.Sink for one page session. Reports are logged right
// away and stored in the background.
func (r *Recorder) Sink(session string) media.Sink {
	return media.SinkFunc(func(widget string, err error) {
		ev := Event{Kind: Kind(err), Session: session, Widget: widget, Message: err.Error(), Timestamp: r.now()}
		log.Printf("media [%s] session %s: %v", ev.Kind, session, err)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.Record(context.Background(), ev); err != nil {
				log.Printf("Error recording media event: %v", err)
			}
		}()
	})
}

// Wait blocks until background writes finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// Stats aggregates the stored events.
func (r *Recorder) Stats(ctx context.Context, recent int) (*Stats, error) {
	stats := &Stats{ByKind: map[string]int64{}}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media_events").Scan(&stats.Total); err != nil {
		return nil, err
	}

	startOfDay := r.now().UTC().Truncate(24 * time.Hour)
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM media_events WHERE timestamp >= ?", startOfDay,
	).Scan(&stats.Today); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM media_events GROUP BY kind")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByKind[kind] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT id, kind, COALESCE(session, ''), COALESCE(widget, ''), COALESCE(message, ''), timestamp
		FROM media_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, recent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.Session, &ev.Widget, &ev.Message, &ev.Timestamp); err != nil {
			log.Printf("Error reading media event: %v", err)
			continue
		}
		stats.Recent = append(stats.Recent, ev)
	}
	return stats, rows.Err()
}

// Cleanup removes events older than the cutoff.
func (r *Recorder) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM media_events WHERE timestamp < ?", r.now().Add(-olderThan).UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup media events: %w", err)
	}
	return res.RowsAffected()
}
