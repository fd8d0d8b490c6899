package game

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

// setupTable builds a simulation with a cue ball at cuePos and the given
// object balls, all with the default radius.
func setupTable(cuePos Vec2, objects ...Vec2) *Simulation {
	table := NewTable(DefaultTableConfig())
	cue := &Ball{ID: 0, Position: cuePos, Radius: DefaultBallRadius, Color: "white"}
	balls := make([]*Ball, len(objects))
	for i, p := range objects {
		balls[i] = &Ball{ID: i + 1, Position: p, Radius: DefaultBallRadius, Color: "red"}
	}
	return NewSimulationWithBalls(table, cue, balls)
}

func TestIntegrateMovesAndDecays(t *testing.T) {
	sim := setupTable(NewVec2(100, 100))
	sim.Cue().Velocity = NewVec2(5, 0)

	sim.Integrate(sim.Balls())

	cue := sim.Cue()
	if cue.Position.X != 105 || cue.Position.Y != 100 {
		t.Errorf("position = (%v,%v), want (105,100)", cue.Position.X, cue.Position.Y)
	}
	if !approx(cue.Velocity.X, 4.925) || cue.Velocity.Y != 0 {
		t.Errorf("velocity = (%v,%v), want (4.925,0)", cue.Velocity.X, cue.Velocity.Y)
	}
}

func TestVelocityFloorSnapsToRest(t *testing.T) {
	sim := setupTable(NewVec2(200, 200))
	sim.Cue().Velocity = NewVec2(0.03, 0.04) // speed 0.05

	sim.Integrate(sim.Balls())

	if !sim.Cue().Velocity.IsZero() {
		t.Errorf("velocity = %+v, want exactly zero after one tick", sim.Cue().Velocity)
	}
	if !sim.AllStopped() {
		t.Error("AllStopped should be true")
	}
}

func TestFrictionDecaysMonotonically(t *testing.T) {
	sim := setupTable(NewVec2(500, 250))
	sim.Cue().Velocity = NewVec2(3, 2)

	prev := sim.Cue().Velocity.Magnitude()
	for i := 0; i < 2000 && !sim.AllStopped(); i++ {
		sim.Integrate(sim.Balls())
		speed := sim.Cue().Velocity.Magnitude()
		if speed > prev {
			t.Fatalf("tick %d: speed rose from %v to %v", i, prev, speed)
		}
		prev = speed
	}
	if !sim.AllStopped() {
		t.Error("ball never came to rest")
	}
}

func TestRailReflectionClampsAndReverses(t *testing.T) {
	table := NewTable(DefaultTableConfig())
	minX, maxX, minY, maxY := table.Bounds(DefaultBallRadius)

	tests := []struct {
		name    string
		pos     Vec2
		vel     Vec2
		wantPos Vec2
		flipX   bool
		flipY   bool
	}{
		{"left rail", NewVec2(minX+1, 250), NewVec2(-4, 0), NewVec2(minX, 250), true, false},
		{"right rail", NewVec2(maxX-1, 250), NewVec2(4, 0), NewVec2(maxX, 250), true, false},
		{"top rail", NewVec2(500, minY+1), NewVec2(0, -4), NewVec2(500, minY), false, true},
		{"bottom rail", NewVec2(500, maxY-1), NewVec2(0, 4), NewVec2(500, maxY), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := setupTable(tt.pos)
			sim.Cue().Velocity = tt.vel
			decayed := tt.vel.Times(DefaultFriction)

			sim.Integrate(sim.Balls())
			cue := sim.Cue()

			if cue.Position != tt.wantPos {
				t.Errorf("position = %+v, want %+v", cue.Position, tt.wantPos)
			}
			wantV := decayed
			if tt.flipX {
				wantV.X = -wantV.X
			}
			if tt.flipY {
				wantV.Y = -wantV.Y
			}
			if !approx(cue.Velocity.X, wantV.X) || !approx(cue.Velocity.Y, wantV.Y) {
				t.Errorf("velocity = %+v, want %+v", cue.Velocity, wantV)
			}
		})
	}
}

func TestPositionsStayInsideRails(t *testing.T) {
	sim := NewSimulation(NewTable(DefaultTableConfig()))
	sim.ApplyShot(NewVec2(40, 7))

	for tick := 0; tick < 600; tick++ {
		balls := sim.Balls()
		sim.Integrate(balls)
		for _, b := range balls {
			minX, maxX, minY, maxY := sim.Table.Bounds(b.Radius)
			if b.Position.X < minX || b.Position.X > maxX || b.Position.Y < minY || b.Position.Y > maxY {
				t.Fatalf("tick %d: ball %d at %+v outside [%v,%v]x[%v,%v]",
					tick, b.ID, b.Position, minX, maxX, minY, maxY)
			}
		}
		sim.ResolveCollisions(balls)
		sim.DetectPockets()
	}
}

func TestHeadOnCollisionReverses(t *testing.T) {
	sim := setupTable(NewVec2(100, 100), NewVec2(115, 100))
	a, b := sim.Cue(), sim.Objects()[0]
	a.Velocity = NewVec2(2, 0)
	b.Velocity = NewVec2(-2, 0)
	midpoint := (a.Position.X + b.Position.X) / 2

	sim.ResolveCollisions(sim.Balls())

	if d := a.Position.DistanceTo(b.Position); d != 20 {
		t.Errorf("center distance = %v, want exactly 20", d)
	}
	if a.Position.X != 97.5 || b.Position.X != 117.5 {
		t.Errorf("positions = %v, %v; want 97.5, 117.5", a.Position.X, b.Position.X)
	}
	if got := (a.Position.X + b.Position.X) / 2; got != midpoint {
		t.Errorf("midpoint moved from %v to %v", midpoint, got)
	}
	if a.Velocity != NewVec2(-2, 0) || b.Velocity != NewVec2(2, 0) {
		t.Errorf("velocities = %+v, %+v; want (-2,0), (2,0)", a.Velocity, b.Velocity)
	}
}

func TestCollisionConservesEnergyAndKeepsTangent(t *testing.T) {
	sim := setupTable(NewVec2(200, 200), NewVec2(212, 209)) // d = 15 along (0.8, 0.6)
	a, b := sim.Cue(), sim.Objects()[0]
	a.Velocity = NewVec2(3, 1)
	b.Velocity = NewVec2(-1, 0.5)

	n := b.Position.Minus(a.Position).Normalize()
	tangent := Vec2{X: -n.Y, Y: n.X}
	energyBefore := a.Velocity.Dot(a.Velocity) + b.Velocity.Dot(b.Velocity)
	relBefore := a.Velocity.Minus(b.Velocity).Dot(n)
	tanA, tanB := a.Velocity.Dot(tangent), b.Velocity.Dot(tangent)

	sim.ResolveCollisions(sim.Balls())

	energyAfter := a.Velocity.Dot(a.Velocity) + b.Velocity.Dot(b.Velocity)
	if !approx(energyBefore, energyAfter) {
		t.Errorf("kinetic energy %v -> %v", energyBefore, energyAfter)
	}
	if relAfter := a.Velocity.Minus(b.Velocity).Dot(n); !approx(relAfter, -relBefore) {
		t.Errorf("relative normal velocity %v -> %v, want %v", relBefore, relAfter, -relBefore)
	}
	if !approx(a.Velocity.Dot(tangent), tanA) || !approx(b.Velocity.Dot(tangent), tanB) {
		t.Error("tangential components changed")
	}
	if d := a.Position.DistanceTo(b.Position); !approx(d, 20) {
		t.Errorf("center distance = %v, want 20", d)
	}
}

func TestSeparatedBallsUntouched(t *testing.T) {
	sim := setupTable(NewVec2(100, 100), NewVec2(120, 100))
	sim.Cue().Velocity = NewVec2(1, 0)

	sim.ResolveCollisions(sim.Balls())

	if sim.Cue().Position != NewVec2(100, 100) || sim.Objects()[0].Position != NewVec2(120, 100) {
		t.Error("touching but not penetrating balls should not move")
	}
	if sim.Cue().Velocity != NewVec2(1, 0) {
		t.Error("touching but not penetrating balls should keep velocity")
	}
}

func TestCoincidentCentersDoNotPanic(t *testing.T) {
	sim := setupTable(NewVec2(300, 300), NewVec2(300, 300))

	sim.ResolveCollisions(sim.Balls())

	a, b := sim.Cue(), sim.Objects()[0]
	for _, v := range []float64{a.Position.X, a.Position.Y, b.Position.X, b.Position.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite position after coincident collision: %+v %+v", a.Position, b.Position)
		}
	}
	if d := a.Position.DistanceTo(b.Position); !approx(d, 20) {
		t.Errorf("center distance = %v, want 20", d)
	}
}

func TestObjectBallSunkInCornerPocket(t *testing.T) {
	table := NewTable(DefaultTableConfig())
	corner := table.Pockets[0].Position
	sim := setupTable(NewVec2(500, 250), corner, NewVec2(600, 250))

	sim.DetectPockets()

	if got := sim.Len(); got != 2 {
		t.Fatalf("store size = %d, want 2", got)
	}
	for _, b := range sim.Objects() {
		if b.ID == 1 {
			t.Error("ball in the corner pocket was not removed")
		}
	}
}

func TestScratchRespawnsCueBall(t *testing.T) {
	table := NewTable(DefaultTableConfig())
	sim := setupTable(table.Pockets[4].Position, NewVec2(600, 250))
	sim.Cue().Velocity = NewVec2(3, -3)

	sim.DetectPockets()

	cue := sim.Cue()
	if cue == nil {
		t.Fatal("cue ball removed")
	}
	if cue.Position != table.Config.CueSpawn {
		t.Errorf("cue at %+v, want respawn %+v", cue.Position, table.Config.CueSpawn)
	}
	if !cue.Velocity.IsZero() {
		t.Errorf("cue velocity = %+v, want zero", cue.Velocity)
	}
	if sim.Len() != 2 {
		t.Errorf("store size = %d, want 2", sim.Len())
	}
}

func TestManyBallsCapturedInOneTick(t *testing.T) {
	table := NewTable(DefaultTableConfig())
	var positions []Vec2
	for _, p := range table.Pockets {
		positions = append(positions, p.Position.Plus(NewVec2(1, 1)))
	}
	positions = append(positions, NewVec2(500, 250), NewVec2(700, 250))
	sim := setupTable(NewVec2(300, 250), positions...)
	before := sim.Len()

	sim.DetectPockets()

	if got, want := sim.Len(), before-NumPockets; got != want {
		t.Errorf("store size = %d, want %d", got, want)
	}
	res := sim.Step()
	pocketed := 0
	for _, e := range res.Events {
		if e.Type == EventPocket {
			pocketed++
		}
	}
	// The events from DetectPockets are drained by the next Step.
	if pocketed != NumPockets {
		t.Errorf("pocket events = %d, want %d", pocketed, NumPockets)
	}
}

func TestStepOrderAndEvents(t *testing.T) {
	sim := setupTable(NewVec2(100, 100), NewVec2(121, 100))
	sim.ApplyShot(NewVec2(5, 0))

	res := sim.Step()

	if res.Tick != 1 || sim.Tick() != 1 {
		t.Errorf("tick = %d, want 1", res.Tick)
	}
	var sawShot, sawBall bool
	for _, e := range res.Events {
		switch e.Type {
		case EventShot:
			sawShot = true
		case EventBall:
			sawBall = true
			if e.BallID != 0 || e.TargetID != 1 {
				t.Errorf("ball event ids = %d,%d; want 0,1", e.BallID, e.TargetID)
			}
		}
	}
	if !sawShot || !sawBall {
		t.Errorf("events = %+v, want shot and ball contact", res.Events)
	}
	if d := sim.Cue().Position.DistanceTo(sim.Objects()[0].Position); !approx(d, 20) {
		t.Errorf("distance after step = %v, want 20", d)
	}
	if res2 := sim.Step(); len(res2.Events) != 0 {
		t.Errorf("events should be drained, got %+v", res2.Events)
	}
}

func TestBreakShotScattersBalls(t *testing.T) {
	sim := NewSimulation(NewTable(DefaultTableConfig()))
	_, rack := sim.Table.Rack()

	sim.ApplyShot(NewVec2(25, 0))

	ballHits := 0
	for i := 0; i < 3000 && !(sim.AllStopped() && i > 0); i++ {
		for _, e := range sim.Step().Events {
			if e.Type == EventBall {
				ballHits++
			}
		}
	}

	if ballHits < 3 {
		t.Errorf("expected at least 3 ball-ball contacts on break, got %d", ballHits)
	}
	moved := 0
	for _, b := range sim.Objects() {
		start := rack[b.ID-1].Position
		if b.Position.DistanceTo(start) > DefaultBallRadius {
			moved++
		}
	}
	moved += len(rack) - len(sim.Objects())
	if moved < 5 {
		t.Errorf("expected at least 5 balls to move on break, got %d", moved)
	}
	if sim.Cue() == nil {
		t.Error("cue ball must survive the break")
	}
}

func TestDeterminism(t *testing.T) {
	run := func() []Vec2 {
		sim := NewSimulation(NewTable(DefaultTableConfig()))
		sim.ApplyShot(NewVec2(20, 1.5))
		for i := 0; i < 500; i++ {
			sim.Step()
		}
		var out []Vec2
		for _, b := range sim.Balls() {
			out = append(out, b.Position)
		}
		return out
	}

	r1, r2 := run(), run()
	if len(r1) != len(r2) {
		t.Fatalf("ball counts differ: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i] != r2[i] {
			t.Errorf("ball %d: %+v vs %+v", i, r1[i], r2[i])
		}
	}
}

func TestApplyShotWithoutCueIsNoop(t *testing.T) {
	sim := &Simulation{Table: NewTable(DefaultTableConfig())}

	if sim.ApplyShot(NewVec2(1, 1)) {
		t.Error("ApplyShot should report false without a cue ball")
	}
	sim.Step()
	if sim.Len() != 0 {
		t.Errorf("empty store grew to %d", sim.Len())
	}
}
