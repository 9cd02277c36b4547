// Package discover implements the privacy-policy discovery engine:
// candidate generation, bounded-concurrency fetch scheduling, and heuristic
// content scoring.
package discover

import (
	"regexp"
	"strings"

	"policyscout"
)

// Tier thresholds. Tuning constants calibrated against the keyword weights
// below; they must be stable across calls.
const (
	WeakThreshold       = 15
	AcceptableThreshold = 35
	StrongThreshold     = 80
)

// MinTextLength is the minimum text length considered scoreable.
// A one-line teaser is not a policy.
const MinTextLength = 50

// phraseWeight is one entry of the declarative scoring table: a lowercase
// phrase, the points awarded per occurrence, and the maximum number of
// occurrences that count. The cap keeps repetition from producing runaway
// scores.
type phraseWeight struct {
	phrase string
	weight int
	cap    int
}

// strongPhrases are near-certain privacy policy markers.
var strongPhrases = []phraseWeight{
	{"this privacy policy", 30, 3},
	{"privacy policy describes", 30, 3},
	{"privacy notice", 30, 3},
	{"privacy statement", 30, 3},
	{"information we collect", 30, 3},
	{"how we use your information", 30, 3},
	{"your privacy rights", 30, 3},
	{"data protection policy", 30, 3},
	{"data subject rights", 30, 3},
	{"privacy practices", 30, 3},
}

// commonTerms appear in most policies but also in ordinary legal or
// marketing copy, so each carries a small weight.
var commonTerms = []phraseWeight{
	{"personal data", 4, 5},
	{"personal information", 4, 5},
	{"third parties", 4, 5},
	{"third party", 4, 5},
	{"cookies", 4, 5},
	{"opt-out", 4, 5},
	{"opt out", 4, 5},
	{"data protection", 4, 5},
	{"data retention", 4, 5},
	{"data controller", 4, 5},
	{"data processor", 4, 5},
	{"service providers", 4, 5},
	{"gdpr", 4, 5},
	{"ccpa", 4, 5},
	{"consent", 4, 5},
	{"tracking", 4, 5},
	{"analytics", 4, 5},
	{"advertising", 4, 5},
	{"marketing", 4, 5},
	{"unsubscribe", 4, 5},
	{"we collect", 4, 5},
	{"we use", 4, 5},
	{"we share", 4, 5},
	{"we process", 4, 5},
	{"your information", 4, 5},
	{"your data", 4, 5},
}

// commercePhrases indicate shop or app-store pages rather than policies.
var commercePhrases = []phraseWeight{
	{"add to cart", -5, 2},
	{"buy now", -5, 2},
	{"checkout", -5, 2},
	{"order now", -5, 2},
	{"app store", -5, 2},
	{"play store", -5, 2},
}

// Structural signals of legal documents.
var (
	effectiveDateRe = regexp.MustCompile(`(effective date|last updated|last modified)`)
	sectionRe       = regexp.MustCompile(`\b(section|article|clause|paragraph)\s+\d+`)
	numberedRe      = regexp.MustCompile(`(?m)^\s*\d+\.\s+\S`)
)

// Structural and length weights.
const (
	effectiveDateWeight  = 25
	sectionWeight        = 15
	numberedClauseWeight = 10
	minNumberedClauses   = 3
)

// lengthBonuses award progressively longer texts; a full policy runs to
// thousands of characters while a teaser does not.
var lengthBonuses = []struct {
	minLen int
	bonus  int
}{
	{300, 5},
	{800, 10},
	{2000, 15},
	{5000, 20},
}

// Ensure Scorer implements policyscout.Scorer at compile time.
var _ policyscout.Scorer = (*Scorer)(nil)

// Scorer ranks page text by privacy-policy likelihood using an additive
// point system over lexical and structural signals. Pure and deterministic.
type Scorer struct{}

// NewScorer creates a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the confidence score and tier for the given page text.
func (s *Scorer) Score(text string) (int, policyscout.Tier) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinTextLength {
		return 0, policyscout.TierNone
	}

	lower := strings.ToLower(trimmed)
	score := 0

	score += foldPhrases(lower, strongPhrases)
	score += foldPhrases(lower, commonTerms)
	score += foldPhrases(lower, commercePhrases)

	if effectiveDateRe.MatchString(lower) {
		score += effectiveDateWeight
	}
	if sectionRe.MatchString(lower) {
		score += sectionWeight
	}
	if len(numberedRe.FindAllStringIndex(lower, minNumberedClauses)) >= minNumberedClauses {
		score += numberedClauseWeight
	}

	for _, lb := range lengthBonuses {
		if len(trimmed) > lb.minLen {
			score += lb.bonus
		}
	}

	if isBoilerplateDominated(trimmed) {
		score /= 5
	}

	if score < 0 {
		score = 0
	}
	return score, tierFor(score)
}

// foldPhrases sums the weighted, capped occurrence counts of each table
// entry over the lowercased text.
func foldPhrases(lower string, table []phraseWeight) int {
	total := 0
	for _, pw := range table {
		n := strings.Count(lower, pw.phrase)
		if n > pw.cap {
			n = pw.cap
		}
		total += n * pw.weight
	}
	return total
}

// isBoilerplateDominated detects pages that are mostly navigation chrome:
// many lines, most of them one-or-two-word link labels rather than prose.
func isBoilerplateDominated(text string) bool {
	lines := strings.Split(text, "\n")
	var total, short int
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if len(line) < 20 && len(strings.Fields(line)) <= 2 {
			short++
		}
	}
	return total >= 12 && short*4 >= total*3
}

// tierFor derives the confidence tier from a score via the fixed thresholds.
func tierFor(score int) policyscout.Tier {
	switch {
	case score >= StrongThreshold:
		return policyscout.TierStrong
	case score >= AcceptableThreshold:
		return policyscout.TierAcceptable
	case score >= WeakThreshold:
		return policyscout.TierWeak
	default:
		return policyscout.TierNone
	}
}
