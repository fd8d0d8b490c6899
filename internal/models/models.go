package models

import "time"

// TableEvent is a persisted shot, pocket or scratch.
type TableEvent struct {
	ID        int64     `db:"id" json:"id"`
	Tick      int64     `db:"tick" json:"tick"`
	EventType string    `db:"event_type" json:"event_type"`
	BallID    int       `db:"ball_id" json:"ball_id"`
	TargetID  int       `db:"target_id" json:"target_id"`
	Speed     float64   `db:"speed" json:"speed"`
	VX        float64   `db:"vx" json:"vx"`
	VY        float64   `db:"vy" json:"vy"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
