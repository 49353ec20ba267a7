package scoring

import "github.com/latticegraph/vocabengine/pkg/vocab/types"

// CategoryFit is the result of matching a type's embedding against every
// configured CategorySeed.
type CategoryFit struct {
	BestCategory   string
	Score          float64
	RunnerUp       string
	RunnerUpScore  float64
	Ambiguous      bool
}

// CategoryFitFor scores t's embedding against seeds and returns the best
// and runner-up category matches. Ambiguous is true when the runner-up
// scores at least 80% of the best match — the two categories are too
// close to call automatically.
func CategoryFitFor(t types.VocabularyType, seeds []types.CategorySeed) (CategoryFit, error) {
	var fit CategoryFit
	var bestSim, runnerSim float64
	haveBest, haveRunner := false, false

	for _, seed := range seeds {
		sim, err := Cosine(t.Embedding, seed.SeedEmbedding)
		if err != nil {
			return CategoryFit{}, err
		}
		switch {
		case !haveBest || sim > bestSim:
			fit.RunnerUp, runnerSim, haveRunner = fit.BestCategory, bestSim, haveBest
			fit.BestCategory, bestSim, haveBest = seed.Name, sim, true
		case !haveRunner || sim > runnerSim:
			fit.RunnerUp, runnerSim, haveRunner = seed.Name, sim, true
		}
	}

	fit.Score = bestSim
	fit.RunnerUpScore = runnerSim
	if haveRunner && runnerSim >= 0.8*bestSim {
		fit.Ambiguous = true
	}
	return fit, nil
}
