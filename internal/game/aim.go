package game

// AimLine is the segment a renderer draws while a gesture is in progress.
type AimLine struct {
	From Vec2 `json:"from" msgpack:"from"`
	To   Vec2 `json:"to" msgpack:"to"`
}

// Aim tracks one drag gesture on the cue ball. It is input state only; the
// shot it produces is applied through Simulation.ApplyShot.
type Aim struct {
	active  bool
	start   Vec2
	current Vec2
}

// Active reports whether a gesture is in progress.
func (a *Aim) Active() bool {
	return a.active
}

// Begin starts a gesture if p is within grab distance of the cue ball.
func (a *Aim) Begin(s *Simulation, p Vec2) bool {
	cue := s.Cue()
	if cue == nil || !withinReach(cue, p, s.Table.Config.GrabMargin) {
		return false
	}
	a.active = true
	a.start = p
	a.current = p
	return true
}

// Move updates the pointer position of an active gesture.
func (a *Aim) Move(p Vec2) {
	if a.active {
		a.current = p
	}
}

// Release ends the gesture and returns the shot vector: the pull from the
// release point back to the cue ball, divided by the shot scale. The shot
// is applied to the cue ball. ok is false when no gesture was active or the
// cue ball is missing.
func (a *Aim) Release(s *Simulation, p Vec2) (shot Vec2, ok bool) {
	if !a.active {
		return Vec2{}, false
	}
	a.Cancel()

	cue := s.Cue()
	if cue == nil {
		return Vec2{}, false
	}
	shot = ShotVector(cue.Position, p, s.Table.Config.ShotScale)
	s.ApplyShot(shot)
	return shot, true
}

// Cancel drops the gesture without shooting.
func (a *Aim) Cancel() {
	a.active = false
	a.start = Vec2{}
	a.current = Vec2{}
}

// Line returns the aim line from the cue ball to the pointer.
func (a *Aim) Line(s *Simulation) *AimLine {
	cue := s.Cue()
	if !a.active || cue == nil {
		return nil
	}
	return &AimLine{From: cue.Position, To: a.current}
}

// ShotVector maps a release point to a cue velocity. Pulling away from the
// ball launches it the opposite way, proportionally to the pull.
func ShotVector(cue, release Vec2, scale float64) Vec2 {
	return cue.Minus(release).Times(1 / scale)
}
