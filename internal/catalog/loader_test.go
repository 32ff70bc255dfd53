package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	data, err := embeddedData.ReadFile("data/catalog.yaml")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Patterns(), PatternCount)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var catErr *CatalogError
	assert.True(t, errors.As(err, &catErr))
}

func TestParseRejectsMalformedCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not YAML",
			yaml:    "{{{",
			wantErr: "parse YAML",
		},
		{
			name: "duplicate pattern id",
			yaml: `
patterns:
  - {id: 1, name: A, category: creation, priority: 1, trigger_phrases: [a]}
  - {id: 1, name: B, category: creation, priority: 2, trigger_phrases: [b]}
`,
			wantErr: "duplicate pattern id 1",
		},
		{
			name: "pattern id out of range",
			yaml: `
patterns:
  - {id: 13, name: A, category: creation, priority: 1, trigger_phrases: [a]}
`,
			wantErr: "out of range",
		},
		{
			name: "unknown category",
			yaml: `
patterns:
  - {id: 1, name: A, category: destruction, priority: 1, trigger_phrases: [a]}
`,
			wantErr: "unknown category",
		},
		{
			name: "empty trigger list",
			yaml: `
patterns:
  - {id: 1, name: A, category: creation, priority: 1}
`,
			wantErr: "no trigger rules",
		},
		{
			name: "malformed trigger regex",
			yaml: `
patterns:
  - {id: 1, name: A, category: creation, priority: 1, trigger_regexes: ['[unclosed']}
`,
			wantErr: "trigger regex",
		},
		{
			name: "unknown layer id",
			yaml: `
layers:
  - {id: vibes_context, title: Vibes, weight: 10}
`,
			wantErr: "unknown layer id",
		},
		{
			name: "non-positive layer weight",
			yaml: `
layers:
  - {id: feature_context, title: Feature, weight: 0}
`,
			wantErr: "non-positive weight",
		},
		{
			name: "unknown tier",
			yaml: `
layers:
  - {id: feature_context, title: Feature, weight: 10, tiers: [gigantic]}
`,
			wantErr: "unknown tier",
		},
		{
			name: "commandment without tags",
			yaml: `
commandments:
  - {id: 1, name: A, reference: r}
`,
			wantErr: "no feature tags",
		},
		{
			name: "unknown feature tag",
			yaml: `
commandments:
  - {id: 1, name: A, reference: r, feature_tags: [blockchain]}
`,
			wantErr: "unknown feature tag",
		},
		{
			name: "duplicate commandment id",
			yaml: `
commandments:
  - {id: 3, name: A, reference: r, feature_tags: [always]}
  - {id: 3, name: B, reference: r, feature_tags: [always]}
`,
			wantErr: "duplicate commandment id III",
		},
		{
			name: "wrong pattern count",
			yaml: `
patterns:
  - {id: 1, name: A, category: creation, priority: 1, trigger_phrases: [a]}
`,
			wantErr: "expected 12 patterns, found 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var catErr *CatalogError
			require.True(t, errors.As(err, &catErr), "want CatalogError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRejectsMissingAlwaysTag(t *testing.T) {
	data, err := embeddedData.ReadFile("data/catalog.yaml")
	require.NoError(t, err)

	// Strip every always tag; the catalog must then be rejected, since
	// mandate resolution could come back empty.
	mutated := string(data)
	mutated = replaceAll(t, mutated, "feature_tags: [always]", "feature_tags: [ui]")

	_, err = Parse([]byte(mutated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no commandment carries the "always" tag`)
}

func TestParseRejectsMissingDefaultPattern(t *testing.T) {
	data, err := embeddedData.ReadFile("data/catalog.yaml")
	require.NoError(t, err)

	mutated := replaceAll(t, string(data), "default_pattern: 2", "default_pattern: 99")
	_, err = Parse([]byte(mutated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default pattern 99 not in catalog")
}

func replaceAll(t *testing.T, s, old, new string) string {
	t.Helper()
	require.Contains(t, s, old)
	return strings.ReplaceAll(s, old, new)
}
