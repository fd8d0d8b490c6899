package game

import "math"

// clamp limits v to [lo, hi]. When lo > hi (a ball wider than the felt)
// the lower bound wins.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// withinReach reports whether p lies strictly inside the grab circle of b.
func withinReach(b *Ball, p Vec2, margin float64) bool {
	return b.Position.DistanceTo(p) < b.Radius+margin
}
