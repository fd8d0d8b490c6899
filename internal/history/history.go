// Package history persists the notable events of a table session (shots,
// pocketed balls and scratches) to PostgreSQL.
package history

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/models"
)

// Store reads and writes table_events.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Insert writes one event.
func (s *Store) Insert(ctx context.Context, ev models.TableEvent) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO table_events (tick, event_type, ball_id, target_id, speed, vx, vy, created_at)
		VALUES (:tick, :event_type, :ball_id, :target_id, :speed, :vx, :vy, NOW())
	`, ev)
	if err != nil {
		return fmt.Errorf("insert table event: %w", err)
	}
	return nil
}

// Recent returns the newest events first. An empty eventType matches all.
func (s *Store) Recent(ctx context.Context, eventType string, limit int) ([]models.TableEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	events := []models.TableEvent{}
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, tick, event_type, ball_id, target_id, speed, vx, vy, created_at
		FROM table_events
		WHERE ($1 = '' OR event_type = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("select table events: %w", err)
	}
	return events, nil
}

// Writer is the subset of Store the recorder needs.
type Writer interface {
	Insert(ctx context.Context, ev models.TableEvent) error
}

// Recorder is a game.FrameObserver that queues the events worth keeping
// and writes them from its own goroutine.
type Recorder struct {
	w       Writer
	queue   chan models.TableEvent
	dropped atomic.Uint64
}

func NewRecorder(w Writer, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Recorder{w: w, queue: make(chan models.TableEvent, queueSize)}
}

// Persisted reports whether an event type is written to history. Contacts
// happen every tick during a break and are not kept.
func Persisted(eventType string) bool {
	switch eventType {
	case game.EventShot, game.EventPocket, game.EventScratch:
		return true
	}
	return false
}

// OnFrame queues the frame's persisted events without blocking.
func (r *Recorder) OnFrame(f game.Frame) {
	for _, e := range f.Events {
		if !Persisted(e.Type) {
			continue
		}
		ev := models.TableEvent{
			Tick:      int64(f.Tick),
			EventType: e.Type,
			BallID:    e.BallID,
			TargetID:  e.TargetID,
			Speed:     e.Speed,
			VX:        e.Velocity.X,
			VY:        e.Velocity.Y,
		}
		select {
		case r.queue <- ev:
		default:
			r.dropped.Add(1)
		}
	}
}

// Dropped counts events lost to a full queue.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Run writes queued events until ctx is cancelled, then flushes what is
// already queued.
func (r *Recorder) Run(ctx context.Context) {
	log.Println("[DB] History recorder started")
	for {
		select {
		case <-ctx.Done():
			r.flush()
			log.Println("[DB] History recorder stopping")
			return
		case ev := <-r.queue:
			if err := r.w.Insert(ctx, ev); err != nil {
				log.Printf("[DB] Failed to record %s event for ball %d: %v", ev.EventType, ev.BallID, err)
			}
		}
	}
}

func (r *Recorder) flush() {
	for {
		select {
		case ev := <-r.queue:
			if err := r.w.Insert(context.Background(), ev); err != nil {
				log.Printf("[DB] Failed to flush %s event: %v", ev.EventType, err)
			}
		default:
			return
		}
	}
}
