package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/playmatatu/billiards/internal/audio"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/redis"
	"github.com/playmatatu/billiards/internal/render"
)

// viewer owns the screen and, in local mode, drives a runner from mouse and
// keyboard input.
type viewer struct {
	screen   tcell.Screen
	renderer *render.Renderer
	runner   *game.Runner // nil when following a remote table
	sound    *audio.Player
	frames   chan game.Frame
	last     game.Frame
	dragging bool
}

func main() {
	follow := flag.Bool("follow", false, "watch the table published on REDIS_URL instead of running one locally")
	logPath := flag.String("log", "", "write logs to this file (default: discard)")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg := config.Load()
	table := game.NewTable(game.TableConfigFrom(cfg))
	if err := table.Config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Table configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.EnableMouse()

	v := &viewer{
		screen:   screen,
		renderer: render.New(screen, table),
		sound:    audio.NewPlayer(),
		frames:   make(chan game.Frame, 1),
	}
	if !*mute {
		if err := v.sound.Init(); err != nil {
			// Non-fatal, the table runs without sound
			log.Printf("Audio initialization failed: %v", err)
		}
	}
	defer v.sound.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *follow {
		if err := v.startFollowing(ctx, cfg); err != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	} else {
		v.runner = game.NewRunner(game.NewSimulation(table), game.NewTickerScheduler(cfg.TickRate), game.FrameObserverFunc(v.offer))
		go v.runner.Run(ctx)
	}

	v.run(ctx)
}

func (v *viewer) startFollowing(ctx context.Context, cfg *config.Config) error {
	if cfg.RedisURL == "" {
		return fmt.Errorf("-follow needs REDIS_URL")
	}
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if f, err := redis.LoadState(ctx, rdb); err == nil {
		v.offer(f)
	}
	go func() {
		defer rdb.Close()
		if err := redis.FollowFrames(ctx, rdb, v.offer); err != nil && ctx.Err() == nil {
			log.Printf("[REDIS] Follow stopped: %v", err)
		}
	}()
	return nil
}

// offer keeps only the newest undrawn frame. Events of a replaced frame
// are carried into the newer one so no sound is lost.
func (v *viewer) offer(f game.Frame) {
	for {
		select {
		case v.frames <- f:
			return
		default:
		}
		select {
		case old := <-v.frames:
			if len(old.Events) > 0 {
				f.Events = append(old.Events, f.Events...)
			}
		default:
		}
	}
}

func (v *viewer) run(ctx context.Context) {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-v.frames:
			v.last = f
			v.sound.OnEvents(f.Events)
			v.renderer.Draw(f)

		case ev := <-events:
			if !v.handleInput(ctx, ev) {
				return
			}
		}
	}
}

// handleInput reports false when the viewer should exit.
func (v *viewer) handleInput(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'r':
			v.command(ctx, "rerack", v.runner.Rerack)
		case 'p':
			if v.last.Status == game.StatusPaused {
				v.command(ctx, "resume", v.runner.Resume)
			} else {
				v.command(ctx, "pause", v.runner.Pause)
			}
		}

	case *tcell.EventMouse:
		v.handleMouse(ctx, ev)

	case *tcell.EventResize:
		v.screen.Sync()
		v.renderer.Draw(v.last)
	}
	return true
}

// handleMouse turns a left-button drag into an aim gesture.
func (v *viewer) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	if v.runner == nil {
		return
	}
	x, y := ev.Position()
	p := v.renderer.Viewport().ToTable(x, y)
	pressed := ev.Buttons()&tcell.Button1 != 0

	var err error
	switch {
	case pressed && !v.dragging:
		v.dragging, err = v.runner.BeginAim(ctx, p)
	case pressed && v.dragging:
		err = v.runner.MoveAim(ctx, p)
	case !pressed && v.dragging:
		v.dragging = false
		_, _, err = v.runner.ReleaseAim(ctx, p)
	}
	if err != nil {
		log.Printf("[TABLE] Aim input failed: %v", err)
	}
}

func (v *viewer) command(ctx context.Context, name string, fn func(context.Context) error) {
	if v.runner == nil {
		return
	}
	if err := fn(ctx); err != nil {
		log.Printf("[TABLE] %s failed: %v", name, err)
	}
}
