package aggressiveness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

func linearProfile() types.AggressivenessProfile {
	// Control points on the identity line make bezier(x) == x, a simple
	// sanity fixture for endpoint and monotonic checks.
	return types.AggressivenessProfile{Name: "linear", X1: 1.0 / 3, Y1: 1.0 / 3, X2: 2.0 / 3, Y2: 2.0 / 3}
}

func TestEvaluate_Endpoints(t *testing.T) {
	p := linearProfile()
	assert.InDelta(t, 0.0, Evaluate(p, 0), 1e-6)
	assert.InDelta(t, 1.0, Evaluate(p, 1), 1e-6)
}

func TestEvaluate_Midpoint(t *testing.T) {
	p := linearProfile()
	assert.InDelta(t, 0.5, Evaluate(p, 0.5), 1e-6)
}

func TestMultiplier_Clamps(t *testing.T) {
	// Y control points above 2 should still clamp the final multiplier.
	p := types.AggressivenessProfile{X1: 0.2, Y1: 3.0, X2: 0.8, Y2: 3.0}
	m := Multiplier(p, 0.5)
	assert.LessOrEqual(t, m, 2.0)
	assert.GreaterOrEqual(t, m, 0.0)
}

func TestClassify_Zones(t *testing.T) {
	p := linearProfile()

	tests := []struct {
		size int
		want types.Zone
	}{
		{20, types.ZoneComfort},
		{35, types.ZoneWatch},
		{55, types.ZoneEmergency},
		{200, types.ZoneBlock},
	}
	for _, tc := range tests {
		r := Classify(p, tc.size, 30, 50, 100)
		assert.Equal(t, tc.want, r.Zone, "size=%d", tc.size)
	}
}

func TestClassify_SaturatesAtEmergencyMax(t *testing.T) {
	p := linearProfile()
	atEmergency := Classify(p, 100, 30, 50, 100)
	beyond := Classify(p, 500, 30, 50, 100)
	require.Equal(t, 1.0, atEmergency.Position)
	assert.Equal(t, atEmergency.Multiplier, beyond.Multiplier)
}

func TestRoundTrip_ElevenSamplePoints(t *testing.T) {
	p := types.AggressivenessProfile{X1: 0.25, Y1: -1.2, X2: 0.75, Y2: 1.8}
	var first [11]float64
	for i := 0; i <= 10; i++ {
		first[i] = Evaluate(p, float64(i)/10)
	}
	// Re-evaluating the same control points must round-trip to the same
	// y-values.
	for i := 0; i <= 10; i++ {
		assert.InDelta(t, first[i], Evaluate(p, float64(i)/10), 1e-9)
	}
}
