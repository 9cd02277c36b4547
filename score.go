package policyscout

// Tier is the discretized confidence bucket derived from a candidate's
// score via fixed thresholds.
type Tier int

// Confidence tiers, in ascending order.
const (
	TierNone Tier = iota
	TierWeak
	TierAcceptable
	TierStrong
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierWeak:
		return "weak"
	case TierAcceptable:
		return "acceptable"
	case TierStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Scorer ranks page text by confidence of being a privacy policy.
// Implementations must be pure and deterministic: same text, same score,
// always. No I/O.
type Scorer interface {
	Score(text string) (score int, tier Tier)
}

// ScoredCandidate pairs a fetch outcome with its confidence score.
type ScoredCandidate struct {
	Outcome Outcome
	Score   int
	Tier    Tier
}

// Better reports whether a should be preferred over b under the total
// ordering (tier desc, score desc, rank asc). Rank is the final tie-break
// so the outcome is deterministic regardless of fetch completion order.
func (a ScoredCandidate) Better(b ScoredCandidate) bool {
	if a.Tier != b.Tier {
		return a.Tier > b.Tier
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Outcome.Candidate.Rank < b.Outcome.Candidate.Rank
}
