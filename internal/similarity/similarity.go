// Package similarity decides whether a generated question is a lexical
// near-duplicate of questions seen before.
//
// Two checks run against every prior text: an exact match on normalized text
// and a Jaccard score over lowercase word sets. Uniqueness is lexical only;
// paraphrases with disjoint vocabulary pass.
package similarity

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// DefaultThreshold is the Jaccard score above which a candidate is rejected.
const DefaultThreshold = 0.5

// Checker compares candidates against prior questions.
// The zero value is not usable; use New.
type Checker struct {
	threshold float64
	ignore    map[string]struct{}
}

// Option configures a Checker.
type Option func(*Checker)

// WithIgnoredTokens drops the given words from both sides before scoring.
// By default every word counts. Tokens are matched after lowercasing.
func WithIgnoredTokens(tokens ...string) Option {
	return func(c *Checker) {
		c.ignore = toSet(lo.Map(tokens, func(t string, _ int) string { return strings.ToLower(t) }))
	}
}

// New creates a Checker. A threshold outside (0, 1] falls back to
// DefaultThreshold.
func New(threshold float64, opts ...Option) *Checker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	c := &Checker{threshold: threshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the configured Jaccard threshold.
func (c *Checker) Threshold() float64 { return c.threshold }

// Verdict explains a uniqueness decision.
type Verdict struct {
	Unique bool

	// Reason is "exact", "jaccard" or empty when unique.
	Reason string

	// MatchIndex is the index of the prior that tripped a check, or -1.
	MatchIndex int

	// Score is the highest Jaccard score seen against any prior.
	Score float64
}

// IsUnique reports whether candidate passes both checks against every prior.
func (c *Checker) IsUnique(candidate string, priors []string) bool {
	return c.Check(candidate, priors).Unique
}

// Check runs both checks and returns the full verdict. An empty prior set
// always yields a unique verdict.
func (c *Checker) Check(candidate string, priors []string) Verdict {
	v := Verdict{Unique: true, MatchIndex: -1}
	if len(priors) == 0 {
		return v
	}

	normCandidate := Normalize(candidate)
	candTokens := c.tokens(candidate)

	for i, prior := range priors {
		if Normalize(prior) == normCandidate {
			return Verdict{Unique: false, Reason: "exact", MatchIndex: i, Score: 1}
		}
		score := Jaccard(candTokens, c.tokens(prior))
		if score > v.Score {
			v.Score = score
		}
		if score > c.threshold {
			return Verdict{Unique: false, Reason: "jaccard", MatchIndex: i, Score: score}
		}
	}
	return v
}

// Similarity returns the Jaccard score of two texts using the checker's
// tokenizer.
func (c *Checker) Similarity(a, b string) float64 {
	return Jaccard(c.tokens(a), c.tokens(b))
}

func (c *Checker) tokens(s string) map[string]struct{} {
	if len(c.ignore) == 0 {
		return toSet(Tokenize(s))
	}
	words := lo.Filter(Tokenize(s), func(w string, _ int) bool {
		_, skip := c.ignore[w]
		return !skip
	})
	return toSet(words)
}

// Normalize lowercases s, collapses runs of whitespace and trims it.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tokenize splits s into lowercase words on any rune that is not a letter or
// digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
