package scoring

import "math"

// ValueInputs carries the raw signals ValueScore combines. BridgeCount is
// supplied by the caller since counting bridges requires a graph
// traversal this package itself does not perform.
type ValueInputs struct {
	UsageCount       uint64
	BridgeCount      uint64
	GroundingAverage float64 // in [-1, 1]; negative values contribute nothing
}

// ValueScore composes a single type's usage, bridging, and grounding
// signals into one comparable number. It is monotonic non-decreasing in
// each input and independent of total vocabulary size, so values from
// different consolidation passes remain comparable.
func ValueScore(in ValueInputs) float64 {
	usage := math.Log1p(float64(in.UsageCount))
	bridge := math.Log1p(float64(in.BridgeCount))
	grounding := in.GroundingAverage
	if grounding < 0 {
		grounding = 0
	}
	return usage + 0.5*bridge + grounding
}
