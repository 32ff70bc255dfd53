package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// yamlCatalog is the on-disk schema of a catalog file.
type yamlCatalog struct {
	Version        int               `yaml:"version"`
	DefaultPattern int               `yaml:"default_pattern"`
	Patterns       []yamlPattern     `yaml:"patterns"`
	Layers         []yamlLayer       `yaml:"layers"`
	Commandments   []yamlCommandment `yaml:"commandments"`
}

type yamlPattern struct {
	ID             int       `yaml:"id"`
	Name           string    `yaml:"name"`
	Category       string    `yaml:"category"`
	Priority       int       `yaml:"priority"`
	SuccessRate    RateRange `yaml:"success_rate"`
	TriggerPhrases []string  `yaml:"trigger_phrases,omitempty"`
	TriggerRegexes []string  `yaml:"trigger_regexes,omitempty"`
}

type yamlLayer struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Weight       int      `yaml:"weight"`
	Tiers        []string `yaml:"tiers,omitempty"`
	Categories   []string `yaml:"categories,omitempty"`
	SkipForAudit bool     `yaml:"skip_for_audit,omitempty"`
}

type yamlCommandment struct {
	ID          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	Reference   string   `yaml:"reference"`
	FeatureTags []string `yaml:"feature_tags"`
}

// Load reads and validates a catalog YAML file. A missing or malformed
// file yields a CatalogError; callers treat that as fatal at startup.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Reason: fmt.Sprintf("read %s", path), Err: err}
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// Parse decodes and validates catalog YAML content.
func Parse(data []byte) (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &CatalogError{Reason: "parse YAML", Err: err}
	}
	return build(&raw)
}

func build(raw *yamlCatalog) (*Catalog, error) {
	cat := &Catalog{
		patternsByID:     make(map[int]*Pattern, len(raw.Patterns)),
		layers:           make(map[LayerID]*ContextLayer, len(raw.Layers)),
		defaultPatternID: raw.DefaultPattern,
	}

	for _, yp := range raw.Patterns {
		p, err := buildPattern(yp)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.patternsByID[p.ID]; dup {
			return nil, catalogErrorf("duplicate pattern id %d", p.ID)
		}
		cat.patternsByID[p.ID] = p
		cat.patterns = append(cat.patterns, p)
	}

	for _, yl := range raw.Layers {
		l, err := buildLayer(yl)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.layers[l.ID]; dup {
			return nil, catalogErrorf("duplicate layer %q", l.ID)
		}
		cat.layers[l.ID] = l
	}

	for _, yc := range raw.Commandments {
		cmd, err := buildCommandment(yc)
		if err != nil {
			return nil, err
		}
		for _, existing := range cat.commandments {
			if existing.ID == cmd.ID {
				return nil, catalogErrorf("duplicate commandment id %s", cmd.ID)
			}
		}
		cat.commandments = append(cat.commandments, cmd)
	}

	// Evaluation order: ascending priority, ties by ascending id.
	sort.SliceStable(cat.patterns, func(i, j int) bool {
		if cat.patterns[i].Priority != cat.patterns[j].Priority {
			return cat.patterns[i].Priority < cat.patterns[j].Priority
		}
		return cat.patterns[i].ID < cat.patterns[j].ID
	})
	sort.Slice(cat.commandments, func(i, j int) bool {
		return cat.commandments[i].ID < cat.commandments[j].ID
	})

	if err := cat.validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func buildPattern(yp yamlPattern) (*Pattern, error) {
	if yp.ID < 1 || yp.ID > PatternCount {
		return nil, catalogErrorf("pattern id %d out of range 1-%d", yp.ID, PatternCount)
	}
	if yp.Name == "" {
		return nil, catalogErrorf("pattern %d has no name", yp.ID)
	}
	cat, err := parseCategory(yp.Category)
	if err != nil {
		return nil, catalogErrorf("pattern %d: %v", yp.ID, err)
	}

	p := &Pattern{
		ID:             yp.ID,
		Name:           yp.Name,
		Category:       cat,
		Priority:       yp.Priority,
		TriggerPhrases: yp.TriggerPhrases,
		SuccessRate:    yp.SuccessRate,
	}
	for _, src := range yp.TriggerRegexes {
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			return nil, &CatalogError{
				Reason: fmt.Sprintf("pattern %d: trigger regex %q", yp.ID, src),
				Err:    err,
			}
		}
		p.TriggerRegexes = append(p.TriggerRegexes, re)
	}
	if p.TriggerCount() == 0 {
		return nil, catalogErrorf("pattern %d (%s) has no trigger rules", p.ID, p.Name)
	}
	return p, nil
}

func buildLayer(yl yamlLayer) (*ContextLayer, error) {
	id := LayerID(yl.ID)
	if !validLayerID(id) {
		return nil, catalogErrorf("unknown layer id %q", yl.ID)
	}
	if yl.Weight <= 0 {
		return nil, catalogErrorf("layer %q has non-positive weight %d", yl.ID, yl.Weight)
	}

	l := &ContextLayer{
		ID:           id,
		Title:        yl.Title,
		Weight:       yl.Weight,
		Tiers:        make(map[Tier]bool, len(yl.Tiers)),
		Categories:   make(map[Category]bool, len(yl.Categories)),
		SkipForAudit: yl.SkipForAudit,
	}
	for _, t := range yl.Tiers {
		tier := Tier(t)
		if !ValidTier(tier) {
			return nil, catalogErrorf("layer %q: unknown tier %q", yl.ID, t)
		}
		l.Tiers[tier] = true
	}
	for _, c := range yl.Categories {
		cat, err := parseCategory(c)
		if err != nil {
			return nil, catalogErrorf("layer %q: %v", yl.ID, err)
		}
		l.Categories[cat] = true
	}
	return l, nil
}

func buildCommandment(yc yamlCommandment) (*Commandment, error) {
	if yc.ID < 1 || yc.ID > CommandmentCount {
		return nil, catalogErrorf("commandment id %d out of range 1-%d", yc.ID, CommandmentCount)
	}
	if yc.Name == "" {
		return nil, catalogErrorf("commandment %d has no name", yc.ID)
	}
	if len(yc.FeatureTags) == 0 {
		return nil, catalogErrorf("commandment %d (%s) has no feature tags", yc.ID, yc.Name)
	}

	cmd := &Commandment{
		ID:          CommandmentID(yc.ID),
		Name:        yc.Name,
		Reference:   yc.Reference,
		FeatureTags: make(map[FeatureTag]bool, len(yc.FeatureTags)),
	}
	for _, t := range yc.FeatureTags {
		tag := FeatureTag(t)
		if !validFeatureTag(tag) {
			return nil, catalogErrorf("commandment %d: unknown feature tag %q", yc.ID, t)
		}
		cmd.FeatureTags[tag] = true
	}
	return cmd, nil
}

// validate enforces the catalog invariants after individual entries have
// been built: exact counts, complete coverage, and a reachable default.
func (c *Catalog) validate() error {
	if len(c.patterns) != PatternCount {
		return catalogErrorf("expected %d patterns, found %d", PatternCount, len(c.patterns))
	}
	if len(c.layers) != len(LayerOrder()) {
		return catalogErrorf("expected %d layers, found %d", len(LayerOrder()), len(c.layers))
	}
	if len(c.commandments) != CommandmentCount {
		return catalogErrorf("expected %d commandments, found %d", CommandmentCount, len(c.commandments))
	}
	if c.Pattern(c.defaultPatternID) == nil {
		return catalogErrorf("default pattern %d not in catalog", c.defaultPatternID)
	}

	// Mandate resolution must never be empty, so at least one
	// commandment has to carry the always tag.
	hasAlways := false
	for _, cmd := range c.commandments {
		if cmd.FeatureTags[TagAlways] {
			hasAlways = true
			break
		}
	}
	if !hasAlways {
		return catalogErrorf("no commandment carries the %q tag", TagAlways)
	}
	return nil
}

func parseCategory(s string) (Category, error) {
	for _, c := range AllCategories() {
		if Category(s) == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func validLayerID(id LayerID) bool {
	for _, known := range LayerOrder() {
		if id == known {
			return true
		}
	}
	return false
}

func validFeatureTag(tag FeatureTag) bool {
	for _, known := range AllFeatureTags() {
		if tag == known {
			return true
		}
	}
	return false
}
