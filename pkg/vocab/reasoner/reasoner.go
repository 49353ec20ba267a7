// Package reasoner defines the Reasoning Provider external interface: a
// black-box decision maker that reads numerical context about one or two
// vocabulary types and returns a merge/skip/deprecate decision with
// rationale and confidence.
package reasoner

import "context"

// Decision is the reasoner's verdict. Unknown values received from a
// provider are treated as Skip.
type Decision string

const (
	DecisionMerge     Decision = "merge"
	DecisionSkip      Decision = "skip"
	DecisionDeprecate Decision = "deprecate"
)

// Normalize maps any unrecognized decision string to DecisionSkip.
func Normalize(d string) Decision {
	switch Decision(d) {
	case DecisionMerge, DecisionSkip, DecisionDeprecate:
		return Decision(d)
	default:
		return DecisionSkip
	}
}

// CandidateAttrs carries the per-type numeric context a single reasoner
// request needs about one side of a candidate.
type CandidateAttrs struct {
	Name        string
	Category    string
	UsageCount  uint64
	BridgeCount uint64
}

// Request is a single reasoner dispatch. Exactly one of Pair/Single is
// populated, matching the "pair or single" input shape.
type Request struct {
	// Instruction is a short key describing what's being asked, e.g.
	// "evaluate_merge" or "evaluate_low_value".
	Instruction string

	// Pair is set for two-type merge evaluation.
	Pair *PairInput

	// Single is set for one-type deprecation evaluation.
	Single *CandidateAttrs
}

// PairInput is the context for a two-type merge evaluation.
type PairInput struct {
	A, B       CandidateAttrs
	Similarity float64
}

// Response is the reasoner's answer.
type Response struct {
	Decision   Decision
	Reasoning  string
	Confidence float64
}

// Provider is the abstraction over any reasoning backend. Implementations
// must be safe for concurrent use and must respect ctx cancellation /
// deadlines — a timeout is the caller's cue to invoke the heuristic
// fallback.
type Provider interface {
	Evaluate(ctx context.Context, req Request) (Response, error)
}
