package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/billiards/internal/game"
)

// FollowFrames subscribes to FrameChannel and calls fn for every frame until
// ctx is cancelled or the subscription closes. fn runs on the caller's
// goroutine. Malformed payloads are logged and skipped.
func FollowFrames(ctx context.Context, rdb *redis.Client, fn func(game.Frame)) error {
	pubsub := rdb.Subscribe(ctx, FrameChannel)
	defer pubsub.Close()

	// Receive confirms the subscription before any frame is read.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", FrameChannel, err)
	}
	log.Printf("[REDIS] Following %s", FrameChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var f game.Frame
			if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil {
				log.Printf("[REDIS] Invalid frame payload: %v", err)
				continue
			}
			fn(f)
		}
	}
}
