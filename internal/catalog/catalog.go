// Package catalog defines the immutable rule catalog for the prompt
// composition engine: the twelve task patterns with their trigger rules,
// the five context layers with their tier rules, and the ten
// constitutional commandments with their feature-type tags.
//
// A Catalog is loaded once at startup (from the embedded default or a
// YAML file) and is never mutated afterwards, so it is safe to share
// across concurrent requests without locking.
package catalog

import (
	"regexp"
	"strings"
)

// Category classifies a pattern by the kind of work it describes.
type Category string

const (
	CategoryCreation       Category = "creation"
	CategoryModification   Category = "modification"
	CategoryProblemSolving Category = "problem_solving"
	CategoryIntegration    Category = "integration"
	CategoryAudit          Category = "audit"
)

// AllCategories returns the defined pattern categories.
func AllCategories() []Category {
	return []Category{
		CategoryCreation,
		CategoryModification,
		CategoryProblemSolving,
		CategoryIntegration,
		CategoryAudit,
	}
}

// PatternCount is the fixed number of task patterns in a valid catalog.
const PatternCount = 12

// RateRange is the documented success-rate band for a pattern, in percent.
type RateRange struct {
	Low  int `yaml:"low"`
	High int `yaml:"high"`
}

// Pattern is one of the twelve canonical task templates. Trigger phrases
// are matched as case-insensitive substrings; trigger regexes are
// compiled case-insensitive at load time. Patterns are evaluated in
// ascending Priority order (lower = checked first).
type Pattern struct {
	ID             int
	Name           string
	Category       Category
	Priority       int
	TriggerPhrases []string
	TriggerRegexes []*regexp.Regexp
	SuccessRate    RateRange
}

// TriggerCount returns the total number of trigger rules for this
// pattern, the denominator of the classifier's confidence ratio.
func (p *Pattern) TriggerCount() int {
	return len(p.TriggerPhrases) + len(p.TriggerRegexes)
}

// MatchTriggers returns the distinct trigger rules of this pattern that
// match the given request text. Phrase matches are reported as the
// phrase itself, regex matches as the regex source.
func (p *Pattern) MatchTriggers(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, phrase := range p.TriggerPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			matched = append(matched, phrase)
		}
	}
	for _, re := range p.TriggerRegexes {
		if re.MatchString(text) {
			matched = append(matched, re.String())
		}
	}
	return matched
}

// LayerID identifies one of the five context layers.
type LayerID string

const (
	LayerProjectIdentity    LayerID = "project_identity"
	LayerBusinessContext    LayerID = "business_context"
	LayerTechnicalContext   LayerID = "technical_context"
	LayerFeatureContext     LayerID = "feature_context"
	LayerConstraintsContext LayerID = "constraints_context"
)

// LayerOrder returns the fixed render order of the context layers:
// Project, Business, Technical, Feature, Constraints. Selection results
// always preserve this order regardless of how layers were chosen.
func LayerOrder() []LayerID {
	return []LayerID{
		LayerProjectIdentity,
		LayerBusinessContext,
		LayerTechnicalContext,
		LayerFeatureContext,
		LayerConstraintsContext,
	}
}

// Tier is the caller-declared complexity classification of a request.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// ValidTier reports whether t is one of the three defined tiers.
func ValidTier(t Tier) bool {
	switch t {
	case TierSimple, TierMedium, TierComplex:
		return true
	}
	return false
}

// ContextLayer is one of the five categories of background information a
// request may need. Tiers and Categories express the Context
// Minimization rules: a layer is selected when the request's tier is in
// Tiers, or the classified pattern's category is in Categories.
// SkipForAudit excludes the layer for audit-category patterns.
type ContextLayer struct {
	ID           LayerID
	Title        string
	Weight       int
	Tiers        map[Tier]bool
	Categories   map[Category]bool
	SkipForAudit bool
}

// RequiredFor reports whether the minimization rules select this layer
// for the given tier and pattern category.
func (l *ContextLayer) RequiredFor(tier Tier, cat Category) bool {
	if l.SkipForAudit && cat == CategoryAudit {
		return false
	}
	return l.Tiers[tier] || l.Categories[cat]
}

// CommandmentID identifies a constitutional commandment, 1 through 10.
type CommandmentID int

// CommandmentCount is the fixed number of commandments in a valid catalog.
const CommandmentCount = 10

var romanNumerals = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

// String renders the id as its constitutional roman numeral (I–X).
func (id CommandmentID) String() string {
	if id < 1 || int(id) > len(romanNumerals) {
		return "?"
	}
	return romanNumerals[id-1]
}

// FeatureTag labels the kind of feature a commandment applies to.
// TagAlways marks commandments that apply to every request.
type FeatureTag string

const (
	TagAuthentication FeatureTag = "authentication"
	TagAPI            FeatureTag = "api"
	TagUI             FeatureTag = "ui"
	TagDataHandling   FeatureTag = "data_handling"
	TagFileUpload     FeatureTag = "file_upload"
	TagAlways         FeatureTag = "always"
)

// AllFeatureTags returns the defined feature tags.
func AllFeatureTags() []FeatureTag {
	return []FeatureTag{
		TagAuthentication,
		TagAPI,
		TagUI,
		TagDataHandling,
		TagFileUpload,
		TagAlways,
	}
}

// Commandment is one of the ten constitutional security/quality mandates.
// Reference is the OWASP/constitutional tag rendered alongside the
// mandate in the assembled prompt's security slot.
type Commandment struct {
	ID          CommandmentID
	Name        string
	Reference   string
	FeatureTags map[FeatureTag]bool
}

// AppliesTo reports whether this commandment applies to any of the given
// feature tags. Always-tagged commandments apply unconditionally.
func (c *Commandment) AppliesTo(tags map[FeatureTag]bool) bool {
	if c.FeatureTags[TagAlways] {
		return true
	}
	for tag := range tags {
		if c.FeatureTags[tag] {
			return true
		}
	}
	return false
}

// Catalog is the loaded, validated rule set. It exposes no mutation
// methods; all lookups are safe under concurrent readers.
type Catalog struct {
	patterns         []*Pattern // ascending priority, then ascending id
	patternsByID     map[int]*Pattern
	layers           map[LayerID]*ContextLayer
	commandments     []*Commandment // ascending id
	defaultPatternID int
}

// Patterns returns the patterns in evaluation order: ascending priority,
// ties broken by ascending id.
func (c *Catalog) Patterns() []*Pattern {
	return c.patterns
}

// Pattern returns the pattern with the given id, or nil.
func (c *Catalog) Pattern(id int) *Pattern {
	return c.patternsByID[id]
}

// DefaultPattern returns the fallback pattern used when no trigger
// matches a request.
func (c *Catalog) DefaultPattern() *Pattern {
	return c.patternsByID[c.defaultPatternID]
}

// Layer returns the context layer with the given id, or nil.
func (c *Catalog) Layer(id LayerID) *ContextLayer {
	return c.layers[id]
}

// Layers returns the five context layers in fixed render order.
func (c *Catalog) Layers() []*ContextLayer {
	ordered := make([]*ContextLayer, 0, len(c.layers))
	for _, id := range LayerOrder() {
		if l, ok := c.layers[id]; ok {
			ordered = append(ordered, l)
		}
	}
	return ordered
}

// Commandments returns the ten commandments in ascending id order.
func (c *Catalog) Commandments() []*Commandment {
	return c.commandments
}

// Commandment returns the commandment with the given id, or nil.
func (c *Catalog) Commandment(id CommandmentID) *Commandment {
	for _, cmd := range c.commandments {
		if cmd.ID == id {
			return cmd
		}
	}
	return nil
}
