// Package audio plays short table sounds. Playback is optional: when no
// output device is available every Play call is a no-op.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/playmatatu/billiards/internal/game"
)

const sampleRate = beep.SampleRate(44100)

const (
	clickDuration  = 25 * time.Millisecond
	pocketDuration = 180 * time.Millisecond
)

// Player mixes sounds onto the speaker.
type Player struct {
	mu    sync.Mutex
	ready bool
	mixer *beep.Mixer
}

func NewPlayer() *Player {
	return &Player{mixer: &beep.Mixer{}}
}

// Init opens the output device.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.ready = true
	return nil
}

// Close releases the output device.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.ready = false
}

// OnEvents plays one sound per frame: a pocket drop wins over contacts.
func (p *Player) OnEvents(events []game.CollisionEvent) {
	var click, drop bool
	for _, ev := range events {
		switch ev.Type {
		case game.EventPocket, game.EventScratch:
			drop = true
		case game.EventBall:
			click = true
		}
	}
	switch {
	case drop:
		p.play(PocketSound())
	case click:
		p.play(ClickSound())
	}
}

func (p *Player) play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready || s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// ClickSound is a short high tick for ball-to-ball contact.
func ClickSound() beep.Streamer {
	return tone(1760, clickDuration, -2)
}

// PocketSound is a low two-note drop.
func PocketSound() beep.Streamer {
	return beep.Seq(
		tone(330, pocketDuration/2, -1),
		tone(220, pocketDuration/2, -1),
	)
}

// tone is a sine of freq Hz for d, attenuated by vol (log2 scale).
func tone(freq float64, d time.Duration, vol float64) beep.Streamer {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil
	}
	return &effects.Volume{
		Streamer: beep.Take(sampleRate.N(d), sine),
		Base:     2,
		Volume:   vol,
	}
}
