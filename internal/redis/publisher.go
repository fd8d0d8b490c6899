package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/playmatatu/billiards/internal/game"
)

const (
	// StateKey holds the latest frame as JSON.
	StateKey = "table:state"
	// FrameChannel carries every published frame.
	FrameChannel = "table_frames"
)

// FramePublisher mirrors table frames into Redis. It implements
// game.FrameObserver; frames are queued and written by Run so the table
// loop never waits on the network. When the queue is full, frames are
// dropped.
type FramePublisher struct {
	rdb     *redis.Client
	breaker *gobreaker.CircuitBreaker
	frames  chan game.Frame
	ttl     time.Duration
	dropped atomic.Uint64
}

// NewFramePublisher creates a publisher. ttl bounds how long the cached
// state survives after the server goes away.
func NewFramePublisher(rdb *redis.Client, ttl time.Duration, queueSize int) *FramePublisher {
	if queueSize <= 0 {
		queueSize = 64
	}
	settings := gobreaker.Settings{
		Name:        "redis-frames",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[REDIS] Circuit breaker %s: %s -> %s", name, from, to)
		},
	}
	return &FramePublisher{
		rdb:     rdb,
		breaker: gobreaker.NewCircuitBreaker(settings),
		frames:  make(chan game.Frame, queueSize),
		ttl:     ttl,
	}
}

// OnFrame queues a frame without blocking.
func (p *FramePublisher) OnFrame(f game.Frame) {
	select {
	case p.frames <- f:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns how many frames were discarded because the queue was full.
func (p *FramePublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Run drains the queue until ctx is cancelled.
func (p *FramePublisher) Run(ctx context.Context) {
	log.Println("[REDIS] Frame publisher started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[REDIS] Frame publisher stopping")
			return
		case f := <-p.frames:
			if err := p.Publish(ctx, f); err != nil && f.Tick%600 == 0 {
				log.Printf("[REDIS] Publish failed at tick %d: %v", f.Tick, err)
			}
		}
	}
}

// Publish caches the frame under StateKey and publishes it on FrameChannel.
func (p *FramePublisher) Publish(ctx context.Context, f game.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		pipe := p.rdb.TxPipeline()
		pipe.SetEx(ctx, StateKey, data, p.ttl)
		pipe.Publish(ctx, FrameChannel, data)
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("publish frame: %w", err)
	}
	return nil
}

// LoadState reads the cached frame back.
func LoadState(ctx context.Context, rdb *redis.Client) (game.Frame, error) {
	var f game.Frame
	data, err := rdb.Get(ctx, StateKey).Bytes()
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("decode cached frame: %w", err)
	}
	return f, nil
}
