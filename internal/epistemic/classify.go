package epistemic

import (
	"regexp"

	"github.com/latticegraph/vocabengine/pkg/vocab/types"
)

// classify evaluates the seven classification rules top-down. The first
// matching rule wins; HISTORICAL is checked last since a name-pattern
// match is independent of the sampled grounding stats.
func classify(name string, stats types.EpistemicStats, historical []*regexp.Regexp) types.EpistemicStatus {
	switch {
	case stats.Count < 3:
		return types.StatusInsufficient
	case stats.Mean < -0.5:
		return types.StatusContradicted
	case stats.Mean < 0.0:
		return types.StatusPoorlyGrounded
	case stats.Mean < 0.15:
		return types.StatusWeakGrounding
	case stats.Mean <= 0.8 && stats.StdDev >= 0.25:
		return types.StatusMixedGrounding
	case stats.Mean > 0.8:
		return types.StatusWellGrounded
	}
	for _, pat := range historical {
		if pat.MatchString(name) {
			return types.StatusHistorical
		}
	}
	return types.StatusWeakGrounding
}
