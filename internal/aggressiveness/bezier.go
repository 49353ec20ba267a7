// Package aggressiveness evaluates an AggressivenessProfile's cubic Bezier
// curve and computes the vocabulary-size zone.
package aggressiveness

import (
	"math"

	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// Evaluate returns the aggressiveness multiplier of profile at normalized
// position x (expected in [0,1], but callers may pass an un-clamped value —
// Evaluate clamps internally). The curve runs from (0,0) to (1,1) with two
// interior control points (x1,y1), (x2,y2); it is parametrized by t and we
// solve for the y value at the given x via binary search on t, since the
// Bezier's x(t) is not generally invertible in closed form.
//
// The result itself is not clamped to [0,2] here — Multiplier below
// clamps it.
func Evaluate(profile types.AggressivenessProfile, x float64) float64 {
	x = clamp(x, 0, 1)

	// Binary search t in [0,1] such that bezierX(t) == x.
	lo, hi := 0.0, 1.0
	var t float64
	for i := 0; i < 40; i++ {
		t = (lo + hi) / 2
		bx := cubicBezier(0, profile.X1, profile.X2, 1, t)
		if bx < x {
			lo = t
		} else {
			hi = t
		}
	}
	return cubicBezier(0, profile.Y1, profile.Y2, 1, t)
}

// cubicBezier evaluates a one-dimensional cubic Bezier with endpoints p0,p3
// and interior control points p1,p2 at parameter t.
func cubicBezier(p0, p1, p2, p3, t float64) float64 {
	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
}

// Multiplier clamps Evaluate's output to the engine's aggressiveness
// range [0,2].
func Multiplier(profile types.AggressivenessProfile, x float64) float64 {
	return clamp(Evaluate(profile, x), 0, 2)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ZoneResult bundles a vocabulary size's zone classification and the
// normalized position / multiplier used to get there.
type ZoneResult struct {
	Zone       types.Zone
	Position   float64
	Multiplier float64
}

// Classify computes the zone, normalized position, and aggressiveness
// multiplier for vocabulary size s given thresholds min (comfort upper
// bound), max (watch upper bound), and emergency (emergency upper bound):
//
//	comfort    if s <= min
//	watch      if min < s <= max
//	emergency  if max < s <= emergency
//	block      if s > emergency
//
// Normalized position x = clamp((s-min)/(emergency-min), 0, 1).
func Classify(profile types.AggressivenessProfile, s, min, max, emergency int) ZoneResult {
	var zone types.Zone
	switch {
	case s <= min:
		zone = types.ZoneComfort
	case s <= max:
		zone = types.ZoneWatch
	case s <= emergency:
		zone = types.ZoneEmergency
	default:
		zone = types.ZoneBlock
	}

	denom := float64(emergency - min)
	var x float64
	if denom > 0 {
		x = clamp(float64(s-min)/denom, 0, 1)
	} else if s > min {
		x = 1
	}

	return ZoneResult{
		Zone:       zone,
		Position:   x,
		Multiplier: Multiplier(profile, x),
	}
}
