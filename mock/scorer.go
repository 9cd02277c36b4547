package mock

import "policyscout"

var _ policyscout.Scorer = (*Scorer)(nil)

// Scorer is a mock implementation of policyscout.Scorer.
type Scorer struct {
	ScoreFn func(text string) (int, policyscout.Tier)
}

func (s *Scorer) Score(text string) (int, policyscout.Tier) {
	return s.ScoreFn(text)
}
