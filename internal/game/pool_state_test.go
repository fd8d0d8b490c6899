package game

import (
	"errors"
	"testing"
)

func TestSnapshotListsCueFirst(t *testing.T) {
	s := NewSimulation(NewTable(DefaultTableConfig()))
	f := s.Snapshot()

	if len(f.Balls) != 16 {
		t.Fatalf("snapshot has %d balls, want 16", len(f.Balls))
	}
	if !f.Balls[0].IsCue || f.Balls[0].ID != 0 {
		t.Errorf("first ball = %+v, want cue", f.Balls[0])
	}
	cue, ok := f.Cue()
	if !ok || cue.X != DefaultCueStartX {
		t.Errorf("Cue() = %+v, %v", cue, ok)
	}
	if !f.Stopped {
		t.Error("opening rack should be at rest")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := setupTable(NewVec2(300, 250))
	f := s.Snapshot()
	s.Cue().Position = NewVec2(1, 1)
	if f.Balls[0].X != 300 {
		t.Errorf("snapshot changed with the body store: %+v", f.Balls[0])
	}
}

func TestRestoreSimulation(t *testing.T) {
	table := NewTable(DefaultTableConfig())
	s := setupTable(NewVec2(300, 250), NewVec2(600, 250), NewVec2(700, 300))
	s.ApplyShot(NewVec2(8, 1))
	for i := 0; i < 5; i++ {
		s.Step()
	}
	f := s.Snapshot()

	r, err := RestoreSimulation(table, f)
	if err != nil {
		t.Fatalf("RestoreSimulation: %v", err)
	}
	if r.Tick() != s.Tick() {
		t.Errorf("tick = %d, want %d", r.Tick(), s.Tick())
	}
	if r.Len() != s.Len() {
		t.Fatalf("len = %d, want %d", r.Len(), s.Len())
	}

	// Both copies continue identically.
	s.Step()
	r.Step()
	a, b := s.Snapshot().Balls, r.Snapshot().Balls
	for i := range a {
		if a[i].X != b[i].X || a[i].Y != b[i].Y || a[i].VX != b[i].VX || a[i].VY != b[i].VY {
			t.Errorf("ball %d diverged: %+v vs %+v", a[i].ID, a[i], b[i])
		}
	}
}

func TestRestoreWithoutCue(t *testing.T) {
	_, err := RestoreSimulation(NewTable(DefaultTableConfig()), Frame{Balls: []BallState{{ID: 1, X: 500, Y: 250}}})
	if !errors.Is(err, ErrInvalidTable) {
		t.Errorf("err = %v, want ErrInvalidTable", err)
	}
}

func TestRestoreWithTwoCues(t *testing.T) {
	f := Frame{Tick: 9, Balls: []BallState{
		{ID: 0, IsCue: true, X: 300, Y: 250},
		{ID: 1, X: 500, Y: 250},
		{ID: 2, IsCue: true, X: 700, Y: 250},
	}}
	if _, err := RestoreSimulation(NewTable(DefaultTableConfig()), f); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("err = %v, want ErrInvalidTable", err)
	}
}

func TestCueOnReturnedFrame(t *testing.T) {
	s := setupTable(NewVec2(320, 240), NewVec2(600, 250))
	cue, ok := s.Snapshot().Cue()
	if !ok || cue.X != 320 || cue.Y != 240 {
		t.Errorf("Cue() = %+v, %v", cue, ok)
	}
	if _, ok := (Frame{Balls: []BallState{{ID: 1}}}).Cue(); ok {
		t.Error("Cue() found a cue in a frame without one")
	}
}
