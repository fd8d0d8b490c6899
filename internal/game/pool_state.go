package game

import (
	"fmt"
	"time"
)

// BallState is the read-only view of a ball handed to renderers.
type BallState struct {
	ID     int     `json:"id" msgpack:"id"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	VX     float64 `json:"vx" msgpack:"vx"`
	VY     float64 `json:"vy" msgpack:"vy"`
	Radius float64 `json:"radius" msgpack:"radius"`
	Color  string  `json:"color" msgpack:"color"`
	IsCue  bool    `json:"is_cue" msgpack:"is_cue"`
}

// Frame is an immutable snapshot published after every tick.
type Frame struct {
	Tick      uint64           `json:"tick" msgpack:"tick"`
	Status    RunnerStatus     `json:"status" msgpack:"status"`
	Balls     []BallState      `json:"balls" msgpack:"balls"`
	Aim       *AimLine         `json:"aim,omitempty" msgpack:"aim,omitempty"`
	Events    []CollisionEvent `json:"events,omitempty" msgpack:"events,omitempty"`
	Stopped   bool             `json:"stopped" msgpack:"stopped"` // every ball at rest
	Timestamp time.Time        `json:"timestamp" msgpack:"timestamp"`
}

// Cue returns the cue ball entry of the frame.
func (f Frame) Cue() (BallState, bool) {
	for _, b := range f.Balls {
		if b.IsCue {
			return b, true
		}
	}
	return BallState{}, false
}

// Snapshot copies the body store into a Frame.
func (s *Simulation) Snapshot() Frame {
	balls := s.Balls()
	states := make([]BallState, len(balls))
	for i, b := range balls {
		states[i] = BallState{
			ID:     b.ID,
			X:      b.Position.X,
			Y:      b.Position.Y,
			VX:     b.Velocity.X,
			VY:     b.Velocity.Y,
			Radius: b.Radius,
			Color:  b.Color,
			IsCue:  b.IsCue,
		}
	}
	return Frame{
		Tick:      s.tick,
		Balls:     states,
		Stopped:   s.AllStopped(),
		Timestamp: time.Now(),
	}
}

// RestoreSimulation rebuilds a simulation from a published frame, resuming
// at the frame's tick. It fails unless the frame has exactly one cue ball.
func RestoreSimulation(table *Table, f Frame) (*Simulation, error) {
	var (
		cue     *Ball
		objects []*Ball
	)
	for _, bs := range f.Balls {
		b := &Ball{
			ID:       bs.ID,
			Position: NewVec2(bs.X, bs.Y),
			Velocity: NewVec2(bs.VX, bs.VY),
			Radius:   bs.Radius,
			Color:    bs.Color,
		}
		if b.Radius <= 0 {
			b.Radius = table.Config.BallRadius
		}
		if bs.IsCue {
			if cue != nil {
				return nil, fmt.Errorf("%w: frame %d has more than one cue ball", ErrInvalidTable, f.Tick)
			}
			cue = b
			continue
		}
		objects = append(objects, b)
	}
	if cue == nil {
		return nil, fmt.Errorf("%w: frame %d has no cue ball", ErrInvalidTable, f.Tick)
	}
	s := NewSimulationWithBalls(table, cue, objects)
	s.tick = f.Tick
	return s, nil
}
