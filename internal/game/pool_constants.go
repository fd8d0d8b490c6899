package game

// Default table and physics constants. Units are table-space pixels and
// ticks; one tick is one frame of the render loop.
const (
	DefaultWidth         = 1000.0
	DefaultHeight        = 500.0
	DefaultRailThickness = 32.0
	DefaultBallRadius    = 10.0
	DefaultPocketRadius  = 2 * DefaultBallRadius

	DefaultFriction      = 0.985
	DefaultVelocityFloor = 0.1
	DefaultShotScale     = 10.0
	DefaultGrabMargin    = 5.0

	DefaultCueSpawnX = 150.0
	DefaultCueStartX = 300.0

	NumPockets = 6 // 4 corners + 2 side pockets
	RackRows   = 5 // 15 object balls
)

// rackColors are the display tags of the object balls in rack order
// (apex first, then each row from +y to -y).
var rackColors = [...]string{
	"red",
	"yellow", "red",
	"red", "blue", "yellow",
	"yellow", "red", "yellow", "red",
	"red", "yellow", "yellow", "red", "yellow",
}

const cueColor = "white"
