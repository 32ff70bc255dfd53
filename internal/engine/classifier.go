// Package engine implements the pattern selection and prompt composition
// pipeline: request classification, context layer selection, security
// mandate resolution, seven-slot document assembly, and checklist-based
// quality scoring. Every stage is a pure function over the immutable
// rule catalog, so a request is a single deterministic pass with no
// retries and no shared mutable state.
package engine

import (
	"promptforge/internal/catalog"
)

// NoExplicitPattern marks the absence of an explicit pattern hint.
const NoExplicitPattern = 0

// ClassificationResult is the outcome of classifying one request.
type ClassificationResult struct {
	Pattern        *catalog.Pattern
	Confidence     float64
	MatchedPhrases []string
	// Explicit records that the caller's hint short-circuited matching.
	Explicit bool
}

// Classifier maps free-text requests to one of the twelve patterns using
// the catalog's priority-ordered trigger rules.
type Classifier struct {
	catalog *catalog.Catalog
}

// NewClassifier creates a classifier over the given catalog.
func NewClassifier(cat *catalog.Catalog) *Classifier {
	return &Classifier{catalog: cat}
}

// Classify resolves a request to exactly one pattern. A valid explicit
// id short-circuits text matching with confidence 1.0. Otherwise
// patterns are tested in ascending priority order and the candidate
// with the most distinct matched triggers wins; ties fall to the lowest
// priority value, then the lowest pattern id. Unmatched text falls back
// to the catalog's default pattern with confidence 0.0 — classification
// itself never fails.
//
// The only error is an InvalidHintError for an explicit id outside 1-12.
func (c *Classifier) Classify(requestText string, explicitPatternID int) (ClassificationResult, error) {
	if explicitPatternID != NoExplicitPattern {
		if explicitPatternID < 1 || explicitPatternID > catalog.PatternCount {
			return ClassificationResult{}, &InvalidHintError{Hint: explicitPatternID}
		}
		return ClassificationResult{
			Pattern:    c.catalog.Pattern(explicitPatternID),
			Confidence: 1.0,
			Explicit:   true,
		}, nil
	}

	var (
		best        *catalog.Pattern
		bestMatches []string
	)
	for _, p := range c.catalog.Patterns() {
		matched := p.MatchTriggers(requestText)
		if len(matched) == 0 {
			continue
		}
		// Patterns() is already ordered by (priority, id), so a strict
		// > keeps the earliest candidate on equal match counts.
		if best == nil || len(matched) > len(bestMatches) {
			best = p
			bestMatches = matched
		}
	}

	if best == nil {
		return ClassificationResult{
			Pattern:    c.catalog.DefaultPattern(),
			Confidence: 0.0,
		}, nil
	}

	return ClassificationResult{
		Pattern:        best,
		Confidence:     confidence(len(bestMatches), best.TriggerCount()),
		MatchedPhrases: bestMatches,
	}, nil
}

func confidence(matched, total int) float64 {
	if total < 1 {
		total = 1
	}
	c := float64(matched) / float64(total)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
