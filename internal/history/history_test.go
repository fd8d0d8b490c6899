package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/models"
)

type memWriter struct {
	mu     sync.Mutex
	events []models.TableEvent
}

func (m *memWriter) Insert(ctx context.Context, ev models.TableEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memWriter) snapshot() []models.TableEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TableEvent(nil), m.events...)
}

func TestRecorderKeepsShotsAndPockets(t *testing.T) {
	w := &memWriter{}
	rec := NewRecorder(w, 16)

	rec.OnFrame(game.Frame{
		Tick: 42,
		Events: []game.CollisionEvent{
			{Type: game.EventShot, BallID: 0, TargetID: -1, Speed: 5, Velocity: game.NewVec2(3, 4)},
			{Type: game.EventBall, BallID: 0, TargetID: 3},
			{Type: game.EventRail, BallID: 3, TargetID: -1},
			{Type: game.EventPocket, BallID: 3, TargetID: 1, Speed: 2},
			{Type: game.EventScratch, BallID: 0, TargetID: 4},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for len(w.snapshot()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	got := w.snapshot()
	if len(got) != 3 {
		t.Fatalf("recorded %d events, want 3: %+v", len(got), got)
	}
	wantTypes := []string{game.EventShot, game.EventPocket, game.EventScratch}
	for i, ev := range got {
		if ev.EventType != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, ev.EventType, wantTypes[i])
		}
		if ev.Tick != 42 {
			t.Errorf("event %d tick = %d, want 42", i, ev.Tick)
		}
	}
	if got[0].VX != 3 || got[0].VY != 4 {
		t.Errorf("shot velocity = (%v,%v), want (3,4)", got[0].VX, got[0].VY)
	}
	if got[1].TargetID != 1 {
		t.Errorf("pocket id = %d, want 1", got[1].TargetID)
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	rec := NewRecorder(&memWriter{}, 1)
	shot := game.CollisionEvent{Type: game.EventShot}

	rec.OnFrame(game.Frame{Events: []game.CollisionEvent{shot, shot, shot}})

	if got := rec.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
}

func TestRecorderFlushesOnStop(t *testing.T) {
	w := &memWriter{}
	rec := NewRecorder(w, 8)
	rec.OnFrame(game.Frame{Events: []game.CollisionEvent{{Type: game.EventPocket}, {Type: game.EventPocket}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if got := len(w.snapshot()); got != 2 {
		t.Errorf("flushed %d events, want 2", got)
	}
}
