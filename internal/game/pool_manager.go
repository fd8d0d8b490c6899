package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrRunnerStopped is returned by commands issued after Run has exited.
var ErrRunnerStopped = errors.New("table runner stopped")

// Scheduler paces the loop. Each value received from C is one tick; the
// simulation itself never looks at wall-clock time.
type Scheduler interface {
	C() <-chan time.Time
	Stop()
}

type tickerScheduler struct {
	ticker *time.Ticker
}

// NewTickerScheduler ticks rate times per second.
func NewTickerScheduler(rate int) Scheduler {
	if rate <= 0 {
		rate = 60
	}
	return &tickerScheduler{ticker: time.NewTicker(time.Second / time.Duration(rate))}
}

func (t *tickerScheduler) C() <-chan time.Time { return t.ticker.C }
func (t *tickerScheduler) Stop()               { t.ticker.Stop() }

// FrameObserver receives every published frame on the loop goroutine.
// Implementations must not block.
type FrameObserver interface {
	OnFrame(Frame)
}

// FrameObserverFunc adapts a function to FrameObserver.
type FrameObserverFunc func(Frame)

func (f FrameObserverFunc) OnFrame(fr Frame) { f(fr) }

// Runner owns a Simulation and the aim gesture and drives them from a
// single goroutine. Input and control calls are queued onto that goroutine,
// so the body store is never touched concurrently.
type Runner struct {
	sim       *Simulation
	aim       Aim
	sched     Scheduler
	commands  chan func()
	observers []FrameObserver
	status    RunnerStatus

	mu     sync.RWMutex
	latest Frame

	done chan struct{}
}

// NewRunner wires a simulation to a scheduler. Observers are notified in
// the order given.
func NewRunner(sim *Simulation, sched Scheduler, observers ...FrameObserver) *Runner {
	r := &Runner{
		sim:       sim,
		sched:     sched,
		commands:  make(chan func()),
		observers: observers,
		status:    StatusIdle,
		done:      make(chan struct{}),
	}
	r.latest = r.frame(nil)
	return r
}

// AddObserver registers another frame consumer. It must be called before Run.
func (r *Runner) AddObserver(o FrameObserver) {
	r.observers = append(r.observers, o)
}

// Table returns the static table geometry.
func (r *Runner) Table() *Table {
	return r.sim.Table
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Latest returns the most recently published frame.
func (r *Runner) Latest() Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Run steps the simulation on every scheduler tick until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.sched.Stop()

	r.status = StatusRunning
	log.Printf("[TABLE] Loop started (%d balls)", r.sim.Len())
	r.publish(r.frame(nil))

	for {
		select {
		case <-ctx.Done():
			r.status = StatusStopped
			r.publish(r.frame(nil))
			log.Printf("[TABLE] Loop stopped at tick %d", r.sim.Tick())
			return ctx.Err()
		case cmd := <-r.commands:
			cmd()
		case <-r.sched.C():
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	if r.status == StatusPaused {
		return
	}
	res := r.sim.Step()
	for _, e := range res.Events {
		switch e.Type {
		case EventPocket:
			log.Printf("[TABLE] Ball %d sunk in pocket %d (tick %d)", e.BallID, e.TargetID, res.Tick)
		case EventScratch:
			log.Printf("[TABLE] Scratch in pocket %d, cue ball respawned (tick %d)", e.TargetID, res.Tick)
		}
	}
	r.publish(r.frame(res.Events))
}

func (r *Runner) frame(events []CollisionEvent) Frame {
	f := r.sim.Snapshot()
	f.Status = r.status
	f.Aim = r.aim.Line(r.sim)
	f.Events = events
	return f
}

func (r *Runner) publish(f Frame) {
	r.mu.Lock()
	r.latest = f
	r.mu.Unlock()

	for _, o := range r.observers {
		o.OnFrame(f)
	}
}

// exec runs fn on the loop goroutine and waits for it to finish.
func (r *Runner) exec(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	cmd := func() {
		fn()
		close(finished)
	}

	select {
	case r.commands <- cmd:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// The loop always runs a command it has taken to completion.
	<-finished
	return nil
}

// Shoot sets the cue ball velocity directly and drops any gesture.
func (r *Runner) Shoot(ctx context.Context, v Vec2) error {
	return r.exec(ctx, func() {
		r.aim.Cancel()
		r.sim.ApplyShot(v)
	})
}

// BeginAim starts a gesture at p. It reports false when p is not on the
// cue ball.
func (r *Runner) BeginAim(ctx context.Context, p Vec2) (bool, error) {
	var started bool
	err := r.exec(ctx, func() {
		started = r.aim.Begin(r.sim, p)
	})
	return started, err
}

// MoveAim updates the pointer of the active gesture.
func (r *Runner) MoveAim(ctx context.Context, p Vec2) error {
	return r.exec(ctx, func() {
		r.aim.Move(p)
	})
}

// ReleaseAim ends the gesture at p and shoots. ok is false when no gesture
// was in progress.
func (r *Runner) ReleaseAim(ctx context.Context, p Vec2) (shot Vec2, ok bool, err error) {
	err = r.exec(ctx, func() {
		shot, ok = r.aim.Release(r.sim, p)
	})
	if ok {
		log.Printf("[TABLE] Shot (%.2f, %.2f)", shot.X, shot.Y)
	}
	return shot, ok, err
}

// CancelAim drops the gesture without shooting.
func (r *Runner) CancelAim(ctx context.Context) error {
	return r.exec(ctx, func() {
		r.aim.Cancel()
	})
}

// Rerack restores the opening layout and publishes it immediately. A shot
// applied since the last tick is carried in that frame's events.
func (r *Runner) Rerack(ctx context.Context) error {
	return r.exec(ctx, func() {
		r.aim.Cancel()
		pending := r.sim.DrainEvents()
		r.sim.Rerack()
		log.Printf("[TABLE] Table reracked")
		r.publish(r.frame(pending))
	})
}

// Pause stops stepping until Resume. Commands are still accepted.
func (r *Runner) Pause(ctx context.Context) error {
	return r.setStatus(ctx, StatusPaused)
}

// Resume continues stepping after Pause.
func (r *Runner) Resume(ctx context.Context) error {
	return r.setStatus(ctx, StatusRunning)
}

func (r *Runner) setStatus(ctx context.Context, status RunnerStatus) error {
	return r.exec(ctx, func() {
		if r.status == status {
			return
		}
		log.Printf("[TABLE] Status %s -> %s", r.status, status)
		r.status = status
		r.publish(r.frame(nil))
	})
}
