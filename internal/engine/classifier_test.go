package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptforge/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.LoadEmbedded()
	require.NoError(t, err)
	return cat
}

func TestClassifyScenarios(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	tests := []struct {
		name        string
		text        string
		wantPattern int
		wantName    string
	}{
		{"bug fix request", "Fix: login returns 500 error", 4, "Debugging"},
		{"integration request", "Integrate Stripe payments with dashboard", 8, "Integration"},
		{"refactor request", "refactor the payment module", 5, "Refactoring"},
		{"scaffold request", "new project skeleton for the billing service", 1, "Scaffolding"},
		{"test request", "add tests for the session store", 6, "Test Generation"},
		{"security request", "run a security audit of the upload path", 11, "Security Audit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Classify(tt.text, NoExplicitPattern)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPattern, result.Pattern.ID)
			assert.Equal(t, tt.wantName, result.Pattern.Name)
			assert.NotEmpty(t, result.MatchedPhrases)
			assert.Greater(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	result, err := c.Classify("qwerty zxcvbnm", NoExplicitPattern)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pattern.ID, "default pattern is Implementation")
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.MatchedPhrases)
}

func TestClassifyExplicitOverride(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	t.Run("valid hint ignores text entirely", func(t *testing.T) {
		result, err := c.Classify("Build a cat", 3)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Pattern.ID)
		assert.Equal(t, "Delta Editing", result.Pattern.Name)
		assert.Equal(t, 1.0, result.Confidence)
		assert.True(t, result.Explicit)
		assert.Empty(t, result.MatchedPhrases)
	})

	t.Run("out of range hint rejected", func(t *testing.T) {
		for _, hint := range []int{-1, 13, 100} {
			_, err := c.Classify("anything", hint)
			require.Error(t, err)

			var hintErr *InvalidHintError
			require.True(t, errors.As(err, &hintErr))
			assert.Equal(t, hint, hintErr.Hint)
		}
	})
}

func TestClassifyDeterminism(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	inputs := []string{
		"Fix: login returns 500 error",
		"integrate the webhook with oauth",
		"no trigger matches this text at all",
		"",
	}
	for _, text := range inputs {
		first, err := c.Classify(text, NoExplicitPattern)
		require.NoError(t, err)
		second, err := c.Classify(text, NoExplicitPattern)
		require.NoError(t, err)

		regexCmp := cmp.Comparer(func(a, b *regexp.Regexp) bool {
			return a.String() == b.String()
		})
		if diff := cmp.Diff(first, second, regexCmp); diff != "" {
			t.Errorf("classify(%q) not deterministic (-first +second):\n%s", text, diff)
		}
	}
}

func TestClassifyMostMatchesWins(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	// "integrate" alone matches Integration once, but three debugging
	// triggers outvote it.
	result, err := c.Classify("fix: integrate call is broken with an error", NoExplicitPattern)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Pattern.ID)
	assert.GreaterOrEqual(t, len(result.MatchedPhrases), 3)
}

func TestClassifyPriorityBreaksCountTies(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	// One trigger each: Integration (priority 15) vs Scaffolding
	// (priority 40). The lower priority value wins.
	result, err := c.Classify("integrate the starter", NoExplicitPattern)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Pattern.ID)
}

func TestClassifyLowestIDBreaksFullTies(t *testing.T) {
	// Crafted catalog where patterns 7 and 9 share a priority and both
	// match the probe text exactly once.
	cat := craftedTieCatalog(t)
	c := NewClassifier(cat)

	result, err := c.Classify("probe", NoExplicitPattern)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Pattern.ID)
}

// craftedTieCatalog builds a full valid catalog where two patterns tie
// on match count and priority.
func craftedTieCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	var b strings.Builder
	b.WriteString("version: 1\ndefault_pattern: 1\npatterns:\n")
	for id := 1; id <= catalog.PatternCount; id++ {
		trigger := fmt.Sprintf("unique-trigger-%d", id)
		priority := id * 10
		if id == 7 || id == 9 {
			trigger = "probe"
			priority = 5
		}
		fmt.Fprintf(&b, "  - {id: %d, name: P%d, category: creation, priority: %d, trigger_phrases: [%q]}\n",
			id, id, priority, trigger)
	}
	b.WriteString(`
layers:
  - {id: project_identity, title: Project Identity, weight: 10, tiers: [medium, complex]}
  - {id: business_context, title: Business Context, weight: 15, tiers: [complex]}
  - {id: technical_context, title: Technical Context, weight: 25, tiers: [simple, medium, complex]}
  - {id: feature_context, title: Feature Context, weight: 30, tiers: [simple, medium, complex], skip_for_audit: true}
  - {id: constraints_context, title: Constraints, weight: 20, tiers: [complex]}
commandments:
`)
	for id := 1; id <= catalog.CommandmentCount; id++ {
		tag := "ui"
		if id == 8 {
			tag = "always"
		}
		fmt.Fprintf(&b, "  - {id: %d, name: C%d, reference: ref, feature_tags: [%s]}\n", id, id, tag)
	}

	cat, err := catalog.Parse([]byte(b.String()))
	require.NoError(t, err)
	return cat
}

func TestConfidenceRatio(t *testing.T) {
	c := NewClassifier(testCatalog(t))

	result, err := c.Classify("Fix: login returns 500 error", NoExplicitPattern)
	require.NoError(t, err)

	total := result.Pattern.TriggerCount()
	require.Greater(t, total, 0)
	want := float64(len(result.MatchedPhrases)) / float64(total)
	assert.InDelta(t, want, result.Confidence, 1e-9)
}
