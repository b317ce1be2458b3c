// Package patterns scores automation goals against a static pattern library.
package patterns

import (
	"sort"
	"strings"
	"unicode"

	"github.com/flowforge/flowforge/pkg/models"
)

// Config carries the tunable matcher knobs. The confidence threshold is
// configuration, never a constant baked into the scoring code.
type Config struct {
	MinConfidence float64
}

// Matcher ranks patterns by how many of their keywords a goal mentions.
// Matching is deterministic: equal inputs produce equal ranked lists.
type Matcher struct {
	patterns      []*models.Pattern
	minConfidence float64
}

// NewMatcher builds a matcher over the given pattern library.
func NewMatcher(library []*models.Pattern, config Config) *Matcher {
	minConfidence := config.MinConfidence
	if minConfidence <= 0 {
		minConfidence = models.DefaultMinConfidence
	}

	return &Matcher{
		patterns:      library,
		minConfidence: minConfidence,
	}
}

// NewDefaultMatcher builds a matcher over the built-in library.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(DefaultLibrary(), Config{})
}

// Match tokenizes and stems the goal, then scores every pattern as
// matchedKeywords/totalKeywords. Patterns under the confidence threshold are
// dropped. The result is sorted by confidence descending, ties broken by
// ascending pattern id. An empty result means "no intelligent match" and is
// not an error.
func (m *Matcher) Match(goal string) []models.PatternMatch {
	stems := make(map[string]bool)
	for _, token := range tokenize(goal) {
		stems[stem(token)] = true
	}

	matches := make([]models.PatternMatch, 0)

	for _, pattern := range m.patterns {
		if len(pattern.Keywords) == 0 {
			continue
		}

		matched := 0

		for _, keyword := range pattern.Keywords {
			if stems[keyword] {
				matched++
			}
		}

		confidence := float64(matched) / float64(len(pattern.Keywords))

		threshold := m.minConfidence
		if pattern.MinConfidence > 0 {
			threshold = pattern.MinConfidence
		}

		if confidence < threshold {
			continue
		}

		matches = append(matches, models.PatternMatch{
			Pattern:    pattern,
			Confidence: confidence,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}

		return matches[i].Pattern.ID < matches[j].Pattern.ID
	})

	return matches
}

// Best returns the top match, or nil when nothing cleared the threshold.
func (m *Matcher) Best(goal string) *models.PatternMatch {
	matches := m.Match(goal)
	if len(matches) == 0 {
		return nil
	}

	return &matches[0]
}

func tokenize(goal string) []string {
	return strings.FieldsFunc(strings.ToLower(goal), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stem collapses common plural and variant suffixes: "-ies" becomes "y",
// then trailing "-es" and "-s" are stripped, except for words ending in
// "-ss".
func stem(word string) string {
	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return strings.TrimSuffix(word, "ies") + "y"
	case len(word) > 2 && strings.HasSuffix(word, "es"):
		return strings.TrimSuffix(word, "es")
	case len(word) > 1 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	default:
		return word
	}
}
