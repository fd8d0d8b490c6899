package game

import "math"

// Ball is a single body on the table. Radius never changes after creation.
type Ball struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
	Color    string  `json:"color"`
	IsCue    bool    `json:"is_cue"`
}

// Event types reported by a step.
const (
	EventBall    = "ball"    // two balls touched
	EventRail    = "rail"    // a ball reflected off a rail
	EventPocket  = "pocket"  // an object ball was sunk
	EventScratch = "scratch" // the cue ball was sunk and respawned
	EventShot    = "shot"    // a shot vector was applied to the cue ball
)

// CollisionEvent records something that happened during a tick.
type CollisionEvent struct {
	Type     string  `json:"type" msgpack:"type"`
	BallID   int     `json:"ball_id" msgpack:"ball_id"`
	TargetID int     `json:"target_id" msgpack:"target_id"` // ball ID or pocket ID; -1 when not applicable
	Speed    float64 `json:"speed" msgpack:"speed"`
	Velocity Vec2    `json:"velocity" msgpack:"velocity"` // shot events only
}

// StepResult is what one call to Step produced.
type StepResult struct {
	Tick   uint64
	Events []CollisionEvent
}

// Simulation owns the body store. The cue ball lives in its own field and
// is never removed; object balls live in an ordered slice.
type Simulation struct {
	Table *Table

	cue     *Ball
	objects []*Ball
	tick    uint64
	events  []CollisionEvent
}

// NewSimulation racks the table.
func NewSimulation(table *Table) *Simulation {
	s := &Simulation{Table: table}
	s.Rerack()
	return s
}

// NewSimulationWithBalls builds a simulation from an explicit layout.
// The cue ball must not be nil.
func NewSimulationWithBalls(table *Table, cue *Ball, objects []*Ball) *Simulation {
	cue.IsCue = true
	for _, b := range objects {
		b.IsCue = false
	}
	return &Simulation{Table: table, cue: cue, objects: objects}
}

// DrainEvents returns the events recorded since the last Step and clears
// them.
func (s *Simulation) DrainEvents() []CollisionEvent {
	events := s.events
	s.events = nil
	return events
}

// Rerack restores the opening layout and clears pending events. Callers
// that need a pending shot recorded drain it first.
func (s *Simulation) Rerack() {
	s.cue, s.objects = s.Table.Rack()
	s.events = nil
}

// Cue returns the cue ball.
func (s *Simulation) Cue() *Ball {
	return s.cue
}

// Objects returns the object balls still on the table.
func (s *Simulation) Objects() []*Ball {
	return s.objects
}

// Balls enumerates every body: cue ball first, then object balls in order.
func (s *Simulation) Balls() []*Ball {
	all := make([]*Ball, 0, len(s.objects)+1)
	if s.cue != nil {
		all = append(all, s.cue)
	}
	return append(all, s.objects...)
}

// Len is the number of bodies in the store.
func (s *Simulation) Len() int {
	n := len(s.objects)
	if s.cue != nil {
		n++
	}
	return n
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() uint64 {
	return s.tick
}

// AllStopped reports whether every ball is at rest.
func (s *Simulation) AllStopped() bool {
	for _, b := range s.Balls() {
		if !b.Velocity.IsZero() {
			return false
		}
	}
	return true
}

// ApplyShot sets the cue ball velocity. Without a cue ball it does nothing.
func (s *Simulation) ApplyShot(v Vec2) bool {
	if s.cue == nil {
		return false
	}
	s.cue.Velocity = v
	s.events = append(s.events, CollisionEvent{
		Type:     EventShot,
		BallID:   s.cue.ID,
		TargetID: -1,
		Speed:    v.Magnitude(),
		Velocity: v,
	})
	return true
}

// Step advances the table by one tick: integrate, resolve contacts, then
// check pockets. Events recorded since the previous step are returned.
func (s *Simulation) Step() StepResult {
	balls := s.Balls()
	s.Integrate(balls)
	s.ResolveCollisions(balls)
	s.DetectPockets()
	s.tick++

	return StepResult{Tick: s.tick, Events: s.DrainEvents()}
}

// Integrate moves each ball by its velocity, applies friction, snaps slow
// balls to rest and reflects them off the rails.
func (s *Simulation) Integrate(balls []*Ball) {
	cfg := s.Table.Config
	for _, b := range balls {
		b.Position = b.Position.Plus(b.Velocity)
		b.Velocity = b.Velocity.Times(cfg.Friction)

		if b.Velocity.Magnitude() < cfg.VelocityFloor {
			b.Velocity = Vec2{}
		}

		minX, maxX, minY, maxY := s.Table.Bounds(b.Radius)
		if b.Position.X < minX || b.Position.X > maxX {
			s.railHit(b, math.Abs(b.Velocity.X))
			b.Velocity.X = -b.Velocity.X
			b.Position.X = clamp(b.Position.X, minX, maxX)
		}
		if b.Position.Y < minY || b.Position.Y > maxY {
			s.railHit(b, math.Abs(b.Velocity.Y))
			b.Velocity.Y = -b.Velocity.Y
			b.Position.Y = clamp(b.Position.Y, minY, maxY)
		}
	}
}

func (s *Simulation) railHit(b *Ball, speed float64) {
	s.events = append(s.events, CollisionEvent{
		Type:     EventRail,
		BallID:   b.ID,
		TargetID: -1,
		Speed:    speed,
	})
}

// ResolveCollisions separates every penetrating pair and exchanges the
// normal component of their velocities. Pairs are visited i<j in
// enumeration order, each using positions already corrected by earlier
// pairs in the same pass.
func (s *Simulation) ResolveCollisions(balls []*Ball) {
	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			if p, ok := resolvePair(balls[i], balls[j]); ok {
				s.events = append(s.events, CollisionEvent{
					Type:     EventBall,
					BallID:   balls[i].ID,
					TargetID: balls[j].ID,
					Speed:    math.Abs(p),
				})
			}
		}
	}
}

// resolvePair applies the equal-mass elastic law along the contact normal.
// It returns the impulse magnitude and whether the pair was penetrating.
func resolvePair(a, b *Ball) (float64, bool) {
	delta := b.Position.Minus(a.Position)
	dist := delta.Magnitude()
	minDist := a.Radius + b.Radius
	if dist >= minDist {
		return 0, false
	}

	// Coincident centers have no direction; push apart along +x.
	n := Vec2{X: 1}
	if dist > 0 {
		n = Vec2{X: delta.X / dist, Y: delta.Y / dist}
	}

	overlap := (minDist - dist) / 2
	a.Position = a.Position.Minus(n.Times(overlap))
	b.Position = b.Position.Plus(n.Times(overlap))

	p := n.Dot(a.Velocity.Minus(b.Velocity))
	a.Velocity = a.Velocity.Minus(n.Times(p))
	b.Velocity = b.Velocity.Plus(n.Times(p))
	return p, true
}

// DetectPockets removes sunk object balls and respawns a scratched cue
// ball. The object slice is rebuilt rather than edited in place.
func (s *Simulation) DetectPockets() {
	cfg := s.Table.Config

	if s.cue != nil {
		if pocket, ok := s.Table.PocketAt(s.cue.Position); ok {
			s.events = append(s.events, CollisionEvent{
				Type:     EventScratch,
				BallID:   s.cue.ID,
				TargetID: pocket.ID,
				Speed:    s.cue.Velocity.Magnitude(),
			})
			s.cue.Position = cfg.CueSpawn
			s.cue.Velocity = Vec2{}
		}
	}

	kept := make([]*Ball, 0, len(s.objects))
	for _, b := range s.objects {
		pocket, ok := s.Table.PocketAt(b.Position)
		if !ok {
			kept = append(kept, b)
			continue
		}
		s.events = append(s.events, CollisionEvent{
			Type:     EventPocket,
			BallID:   b.ID,
			TargetID: pocket.ID,
			Speed:    b.Velocity.Magnitude(),
		})
	}
	s.objects = kept
}
