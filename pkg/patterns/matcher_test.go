package patterns

import (
	"testing"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"notifications", "notification"},
		{"queries", "query"},
		{"changes", "chang"},
		{"process", "process"}, // -ss words keep their suffix
		{"files", "fil"},
		{"slack", "slack"},
		{"api", "api"},
		{"s", "s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stem(tt.word), "stem(%q)", tt.word)
	}
}

func TestMatcher_Match_SlackGoal(t *testing.T) {
	matcher := NewDefaultMatcher()

	matches := matcher.Match("Send Slack notifications when data changes")
	require.Len(t, matches, 1)

	assert.Equal(t, "slack-notification", matches[0].Pattern.ID)
	assert.GreaterOrEqual(t, matches[0].Confidence, models.DefaultMinConfidence)
	assert.InDelta(t, 0.5, matches[0].Confidence, 1e-9) // slack + notification out of 4 keywords
}

func TestMatcher_Match_NoMatchIsEmptyNotError(t *testing.T) {
	matcher := NewDefaultMatcher()

	matches := matcher.Match("launch the rocket into orbit")
	assert.Empty(t, matches)
	assert.Nil(t, matcher.Best("launch the rocket into orbit"))
}

func TestMatcher_Match_BelowThresholdExcluded(t *testing.T) {
	library := []*models.Pattern{
		{
			ID:                 "wide",
			Name:               "Wide Net",
			Keywords:           []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"},
			SuggestedNodeTypes: []string{"pkg.noOp"},
		},
	}

	matcher := NewMatcher(library, Config{})

	// 1 of 6 keywords is under the 0.2 default threshold.
	assert.Empty(t, matcher.Match("alpha only"))

	// 2 of 6 clears it.
	matches := matcher.Match("alpha and beta")
	require.Len(t, matches, 1)
	assert.InDelta(t, 2.0/6.0, matches[0].Confidence, 1e-9)
}

func TestMatcher_Match_ThresholdIsConfiguration(t *testing.T) {
	library := []*models.Pattern{
		{
			ID:                 "p",
			Name:               "P",
			Keywords:           []string{"alpha", "beta", "gamma", "delta"},
			SuggestedNodeTypes: []string{"pkg.noOp"},
		},
	}

	// The cutoff is whatever the matcher was configured with, never a
	// hardcoded constant.
	strict := NewMatcher(library, Config{MinConfidence: 0.3})
	assert.Empty(t, strict.Match("alpha"), "0.25 must not clear a 0.3 threshold")

	lax := NewMatcher(library, Config{MinConfidence: 0.2})
	assert.Len(t, lax.Match("alpha"), 1)
}

func TestMatcher_Match_DeterministicOrdering(t *testing.T) {
	library := []*models.Pattern{
		{ID: "b-pattern", Name: "B", Keywords: []string{"shared", "missing"}, SuggestedNodeTypes: []string{"pkg.noOp"}},
		{ID: "a-pattern", Name: "A", Keywords: []string{"shared", "absent"}, SuggestedNodeTypes: []string{"pkg.noOp"}},
		{ID: "c-pattern", Name: "C", Keywords: []string{"shared", "extra"}, SuggestedNodeTypes: []string{"pkg.noOp"}},
	}

	matcher := NewMatcher(library, Config{})

	matches := matcher.Match("shared and extra words")
	require.Len(t, matches, 3)

	// c-pattern scores 1.0; a and b tie at 0.5 and fall back to id order.
	assert.Equal(t, "c-pattern", matches[0].Pattern.ID)
	assert.Equal(t, "a-pattern", matches[1].Pattern.ID)
	assert.Equal(t, "b-pattern", matches[2].Pattern.ID)
}

func TestMatcher_Match_Idempotent(t *testing.T) {
	matcher := NewDefaultMatcher()
	goal := "poll the api and check for changes"

	first := matcher.Match(goal)
	for range 5 {
		assert.Equal(t, first, matcher.Match(goal))
	}
}
