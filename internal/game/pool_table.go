package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/playmatatu/billiards/internal/config"
)

// ErrInvalidTable is returned by TableConfig.Validate.
var ErrInvalidTable = errors.New("invalid table config")

// TableConfig holds the geometry and physics constants fixed at startup.
type TableConfig struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	RailThickness float64 `json:"rail_thickness"`
	BallRadius    float64 `json:"ball_radius"`
	PocketRadius  float64 `json:"pocket_radius"`
	Friction      float64 `json:"friction"`
	VelocityFloor float64 `json:"velocity_floor"`
	ShotScale     float64 `json:"shot_scale"`
	GrabMargin    float64 `json:"grab_margin"`
	CueSpawn      Vec2    `json:"cue_spawn"` // respawn point after a scratch
	CueStart      Vec2    `json:"cue_start"` // cue position in the opening rack
	HeadSpot      Vec2    `json:"head_spot"` // apex of the object-ball triangle
}

// DefaultTableConfig returns the standard table.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		RailThickness: DefaultRailThickness,
		BallRadius:    DefaultBallRadius,
		PocketRadius:  DefaultPocketRadius,
		Friction:      DefaultFriction,
		VelocityFloor: DefaultVelocityFloor,
		ShotScale:     DefaultShotScale,
		GrabMargin:    DefaultGrabMargin,
		CueSpawn:      NewVec2(DefaultCueSpawnX, DefaultHeight/2),
		CueStart:      NewVec2(DefaultCueStartX, DefaultHeight/2),
		HeadSpot:      NewVec2(6*DefaultWidth/8, DefaultHeight/2),
	}
}

// TableConfigFrom builds the table from loaded configuration. Spots that
// are not configured are derived from the table size the same way the
// defaults are.
func TableConfigFrom(cfg *config.Config) TableConfig {
	tc := DefaultTableConfig()
	if cfg == nil {
		return tc
	}

	tc.Width = cfg.TableWidth
	tc.Height = cfg.TableHeight
	tc.RailThickness = cfg.RailThickness
	tc.BallRadius = cfg.BallRadius
	tc.PocketRadius = cfg.PocketRadius
	if tc.PocketRadius <= 0 {
		tc.PocketRadius = 2 * tc.BallRadius
	}
	tc.Friction = cfg.Friction
	tc.VelocityFloor = cfg.VelocityFloor
	tc.ShotScale = cfg.ShotScale
	tc.GrabMargin = cfg.GrabMargin

	tc.CueSpawn = NewVec2(cfg.CueSpawnX, tc.Height/2)
	tc.CueStart = NewVec2(cfg.CueStartX, tc.Height/2)
	tc.HeadSpot = NewVec2(6*tc.Width/8, tc.Height/2)
	return tc
}

// Validate rejects tables the simulation cannot run on.
func (tc TableConfig) Validate() error {
	switch {
	case tc.Width <= 0 || tc.Height <= 0:
		return fmt.Errorf("%w: table size %.1fx%.1f", ErrInvalidTable, tc.Width, tc.Height)
	case tc.RailThickness < 0:
		return fmt.Errorf("%w: negative rail thickness", ErrInvalidTable)
	case tc.BallRadius <= 0:
		return fmt.Errorf("%w: ball radius must be positive", ErrInvalidTable)
	case tc.PocketRadius <= 0:
		return fmt.Errorf("%w: pocket radius must be positive", ErrInvalidTable)
	case tc.Friction <= 0 || tc.Friction >= 1:
		return fmt.Errorf("%w: friction %.4f outside (0,1)", ErrInvalidTable, tc.Friction)
	case tc.VelocityFloor < 0:
		return fmt.Errorf("%w: negative velocity floor", ErrInvalidTable)
	case tc.ShotScale <= 0:
		return fmt.Errorf("%w: shot scale must be positive", ErrInvalidTable)
	case 2*(tc.RailThickness+tc.BallRadius) > math.Min(tc.Width, tc.Height):
		return fmt.Errorf("%w: rails leave no room for a ball", ErrInvalidTable)
	}

	table := NewTable(tc)
	for _, spot := range []struct {
		name string
		p    Vec2
	}{{"cue spawn", tc.CueSpawn}, {"cue start", tc.CueStart}} {
		if !tc.playable(spot.p) {
			return fmt.Errorf("%w: %s (%.1f,%.1f) is off the playing surface", ErrInvalidTable, spot.name, spot.p.X, spot.p.Y)
		}
		if pocket, ok := table.PocketAt(spot.p); ok {
			return fmt.Errorf("%w: %s (%.1f,%.1f) is inside pocket %d", ErrInvalidTable, spot.name, spot.p.X, spot.p.Y, pocket.ID)
		}
	}
	return nil
}

// playable reports whether a ball centred at p fits between the rails.
func (tc TableConfig) playable(p Vec2) bool {
	lo := tc.RailThickness + tc.BallRadius
	return p.X >= lo && p.X <= tc.Width-lo && p.Y >= lo && p.Y <= tc.Height-lo
}

// Pocket is a fixed circular capture zone.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// Table is the static geometry derived from a TableConfig.
type Table struct {
	Config  TableConfig        `json:"config"`
	Pockets [NumPockets]Pocket `json:"pockets"`
}

// NewTable derives pocket centers from the config. Corner pockets sit on
// the rail inset, side pockets at the midpoint of the long rails.
func NewTable(tc TableConfig) *Table {
	w, h, rail := tc.Width, tc.Height, tc.RailThickness
	return &Table{
		Config: tc,
		Pockets: [NumPockets]Pocket{
			{ID: 0, Position: NewVec2(rail, rail)},
			{ID: 1, Position: NewVec2(w-rail, rail)},
			{ID: 2, Position: NewVec2(rail, h-rail)},
			{ID: 3, Position: NewVec2(w-rail, h-rail)},
			{ID: 4, Position: NewVec2(w/2, rail)},
			{ID: 5, Position: NewVec2(w/2, h-rail)},
		},
	}
}

// Bounds returns the playable range of a ball center with the given radius.
func (t *Table) Bounds(radius float64) (minX, maxX, minY, maxY float64) {
	rail := t.Config.RailThickness
	return rail + radius, t.Config.Width - rail - radius,
		rail + radius, t.Config.Height - rail - radius
}

// PocketAt returns the first pocket whose capture zone contains p.
func (t *Table) PocketAt(p Vec2) (Pocket, bool) {
	for _, pocket := range t.Pockets {
		if p.DistanceTo(pocket.Position) < t.Config.PocketRadius {
			return pocket, true
		}
	}
	return Pocket{}, false
}

// Rack returns the opening layout: the cue ball followed by the object
// balls, apex on the head spot, rows sqrt(3)*r apart.
func (t *Table) Rack() (cue *Ball, objects []*Ball) {
	tc := t.Config
	r := tc.BallRadius
	diffX := 3 * r / math.Sqrt(3)
	diffY := r

	cue = &Ball{
		ID:       0,
		Position: tc.CueStart,
		Radius:   r,
		Color:    cueColor,
		IsCue:    true,
	}

	objects = make([]*Ball, 0, len(rackColors))
	for row := 0; row < RackRows; row++ {
		for k := 0; k <= row; k++ {
			idx := len(objects)
			objects = append(objects, &Ball{
				ID: idx + 1,
				Position: NewVec2(
					tc.HeadSpot.X+float64(row)*diffX,
					tc.HeadSpot.Y+float64(row-2*k)*diffY,
				),
				Radius: r,
				Color:  rackColors[idx],
			})
		}
	}
	return cue, objects
}
