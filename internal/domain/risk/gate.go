package risk

import (
	"regexp"
	"strings"

	"github.com/turtacn/riskwatch/pkg/errors"
)

// KeywordGate is the cheap synchronous pre-filter applied to candidates
// before the expensive validator call. It matches a configured vocabulary
// of risk-indicative terms with word-boundary semantics, so "war" matches
// "trade war looms" but never "Warsaw".
//
// The gate is immutable after construction and safe for concurrent use.
type KeywordGate struct {
	terms    []string
	patterns []*regexp.Regexp
}

// NewKeywordGate compiles the vocabulary into word-boundary patterns.
// Matching is case-insensitive. Term order is significant: Match applies a
// first-match policy over the configured order.
func NewKeywordGate(terms []string) (*KeywordGate, error) {
	if len(terms) == 0 {
		return nil, errors.InvalidParam("keyword gate requires at least one term")
	}
	g := &KeywordGate{
		terms:    make([]string, 0, len(terms)),
		patterns: make([]*regexp.Regexp, 0, len(terms)),
	}
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid gate term "+t)
		}
		g.terms = append(g.terms, t)
		g.patterns = append(g.patterns, re)
	}
	if len(g.terms) == 0 {
		return nil, errors.InvalidParam("keyword gate requires at least one non-blank term")
	}
	return g, nil
}

// Match returns the first configured term found in text on a word boundary,
// or ("", false) when no term matches. The function is pure and
// side-effect free.
func (g *KeywordGate) Match(text string) (string, bool) {
	for i, re := range g.patterns {
		if re.MatchString(text) {
			return g.terms[i], true
		}
	}
	return "", false
}

// Terms returns a copy of the configured vocabulary.
func (g *KeywordGate) Terms() []string {
	return append([]string(nil), g.terms...)
}

//Personal.AI order the ending
