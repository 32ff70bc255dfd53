package engine

import (
	"regexp"
	"strings"

	"promptforge/internal/catalog"
)

// ChecklistItem is one boolean rubric check evaluated against a rendered
// slot. Weight scales the item's contribution to the slot percentage;
// most items weigh 1, layer items weigh the layer's catalog weight.
type ChecklistItem struct {
	Name   string
	Weight int
	Check  func(slot *ComponentSlot, prompt *AssembledPrompt) bool
}

// SlotRubric is the weighted checklist for one component slot. Weight is
// the slot's share of the aggregate score, in percent points.
type SlotRubric struct {
	Weight int
	Items  []ChecklistItem
}

// Rubric maps each slot to its checklist. The default rubric implements
// the documented grading tables; callers may substitute their own.
type Rubric map[SlotKind]SlotRubric

// SlotResult is the checklist outcome for one slot.
type SlotResult struct {
	Kind    SlotKind
	Checked int
	Total   int
	Percent float64
	Stars   int
	Omitted bool
	// Unmet lists the names of failed checklist items. These are
	// findings, not errors: a low score is itself the signal.
	Unmet []string
}

// ScoreReport is the scorer's structured output: per-slot checklist
// results and the aggregate weighted score on a 0-100 scale.
type ScoreReport struct {
	Slots     []SlotResult
	Aggregate float64
	Stars     int
}

// Scorer grades an assembled prompt against a rubric. Scoring never
// fails: a minimal or empty prompt simply scores near zero.
type Scorer struct {
	rubric Rubric
}

// NewScorer creates a scorer with the given rubric; nil means the
// default rubric.
func NewScorer(rubric Rubric) *Scorer {
	if rubric == nil {
		rubric = DefaultRubric()
	}
	return &Scorer{rubric: rubric}
}

// Score evaluates every slot's checklist and aggregates the weighted
// mean of per-slot percentages. Slots the assembler marked omitted are
// excluded and their weight is reallocated proportionally across the
// remaining slots.
func (s *Scorer) Score(prompt *AssembledPrompt) *ScoreReport {
	report := &ScoreReport{}
	if prompt == nil {
		report.Stars = starsFor(0)
		return report
	}

	weightedSum := 0.0
	activeWeight := 0
	for i := range prompt.Slots {
		slot := &prompt.Slots[i]
		rubric := s.rubric[slot.Kind]
		result := s.scoreSlot(slot, prompt, rubric)
		report.Slots = append(report.Slots, result)

		if result.Omitted {
			continue
		}
		weightedSum += result.Percent * float64(rubric.Weight)
		activeWeight += rubric.Weight
	}

	if activeWeight > 0 {
		report.Aggregate = clampPercent(weightedSum / float64(activeWeight))
	}
	report.Stars = starsFor(report.Aggregate)
	return report
}

func (s *Scorer) scoreSlot(slot *ComponentSlot, prompt *AssembledPrompt, rubric SlotRubric) SlotResult {
	result := SlotResult{Kind: slot.Kind, Omitted: slot.Omitted}
	if slot.Omitted {
		return result
	}

	items := rubric.Items
	if slot.Kind == SlotContext {
		items = append(items, layerItems(prompt)...)
	}

	totalWeight := 0
	checkedWeight := 0
	for _, item := range items {
		w := item.Weight
		if w <= 0 {
			w = 1
		}
		totalWeight += w
		result.Total++
		if item.Check(slot, prompt) {
			checkedWeight += w
			result.Checked++
		} else {
			result.Unmet = append(result.Unmet, item.Name)
		}
	}

	if totalWeight > 0 {
		result.Percent = clampPercent(float64(checkedWeight) / float64(totalWeight) * 100)
	}
	result.Stars = starsFor(result.Percent)
	return result
}

// layerItems builds one checklist item per selected layer, weighted by
// the layer's catalog point value.
func layerItems(prompt *AssembledPrompt) []ChecklistItem {
	var items []ChecklistItem
	for _, layer := range prompt.Layers {
		layer := layer
		items = append(items, ChecklistItem{
			Name:   "layer " + string(layer.ID) + " rendered with substance",
			Weight: layer.Weight,
			Check: func(slot *ComponentSlot, _ *AssembledPrompt) bool {
				return layerRendered(slot, layer.ID) && layerSectionLen(slot, layer.Title) >= 40
			},
		})
	}
	return items
}

// starsFor maps a percentage to the fixed five-tier star scale.
func starsFor(percent float64) int {
	switch {
	case percent >= 100-1e-9:
		return 5
	case percent >= 80:
		return 4
	case percent >= 60:
		return 3
	case percent >= 40:
		return 2
	default:
		return 1
	}
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DefaultRubric returns the documented per-slot checklists with the
// fixed weights: Persona 8, Context 12, Task 10, Requirements 24,
// Security 20, Meta 12, Output 14.
func DefaultRubric() Rubric {
	return Rubric{
		SlotPersona: {Weight: 8, Items: []ChecklistItem{
			{Name: "role phrase present", Check: bodyMatchesAny("you are", "act as", "your role")},
			{Name: "at least three expertise bullets", Check: minBullets(3)},
			{Name: "numbered priority list", Check: hasNumberedList()},
		}},
		SlotContext: {Weight: 12, Items: []ChecklistItem{
			{Name: "every selected layer rendered", Check: allLayersRendered},
			{Name: "layers in canonical order", Check: layersOrdered},
		}},
		SlotTask: {Weight: 10, Items: []ChecklistItem{
			{Name: "pattern named", Check: bodyContains("**Pattern:**")},
			{Name: "task description present", Check: minBodyLen(20)},
			{Name: "task description substantive", Check: minBodyLen(80)},
		}},
		SlotRequirements: {Weight: 24, Items: []ChecklistItem{
			{Name: "functional requirements listed", Check: bodyContains("### Functional")},
			{Name: "at least three functional items", Check: minBullets(3)},
			{Name: "non-functional requirements listed", Check: bodyContains("### Non-Functional")},
			{Name: "measurable criteria present", Check: bodyMatchesRegex(`\d`)},
		}},
		SlotSecurity: {Weight: 20, Items: []ChecklistItem{
			{Name: "at least one mandate block", Check: minMandates(1)},
			{Name: "error handling mandate present", Check: hasMandate(8)},
			{Name: "mandates carry reference tags", Check: bodyContains("_Reference:")},
			{Name: "mandate boilerplate supplied", Check: mandateBoilerplatePresent},
		}},
		SlotMeta: {Weight: 12, Items: []ChecklistItem{
			{Name: "meta-instructions present", Check: minBodyLen(1)},
			{Name: "stepwise guidance", Check: minListItems(2)},
			{Name: "meta-instructions substantive", Check: minBodyLen(60)},
		}},
		SlotOutput: {Weight: 14, Items: []ChecklistItem{
			{Name: "output format declared", Check: bodyContains("**Format:**")},
			{Name: "output instructions present", Check: minBodyLen(20)},
			{Name: "output instructions substantive", Check: minBodyLen(60)},
		}},
	}
}

// Check helpers. All operate on presence/shape of rendered content only.

func bodyContains(needle string) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		return strings.Contains(slot.Body, needle)
	}
}

func bodyMatchesAny(phrases ...string) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		lower := strings.ToLower(slot.Body)
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
}

func bodyMatchesRegex(expr string) func(*ComponentSlot, *AssembledPrompt) bool {
	re := regexp.MustCompile(expr)
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		return re.MatchString(slot.Body)
	}
}

func minBodyLen(n int) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		return len(strings.TrimSpace(slot.Body)) >= n
	}
}

var bulletRe = regexp.MustCompile(`(?m)^\s*[-*] `)
var numberedRe = regexp.MustCompile(`(?m)^\s*\d+[.)] `)

func minBullets(n int) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		return len(bulletRe.FindAllString(slot.Body, -1)) >= n
	}
}

func hasNumberedList() func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		return numberedRe.MatchString(slot.Body)
	}
}

func minListItems(n int) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		items := len(bulletRe.FindAllString(slot.Body, -1)) +
			len(numberedRe.FindAllString(slot.Body, -1))
		return items >= n
	}
}

func minMandates(n int) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		return len(slot.Mandates) >= n
	}
}

func hasMandate(id catalog.CommandmentID) func(*ComponentSlot, *AssembledPrompt) bool {
	return func(slot *ComponentSlot, _ *AssembledPrompt) bool {
		for _, m := range slot.Mandates {
			if m == id {
				return true
			}
		}
		return false
	}
}

// mandateBoilerplatePresent checks that mandate blocks carry more than
// the structural header and reference line.
func mandateBoilerplatePresent(slot *ComponentSlot, _ *AssembledPrompt) bool {
	if len(slot.Mandates) == 0 {
		return false
	}
	blocks := strings.Split(slot.Body, "### Commandment")
	substantive := 0
	for _, block := range blocks[1:] {
		body := block
		if idx := strings.Index(body, "_Reference:"); idx >= 0 {
			body = body[:idx]
		}
		// Strip the header line, keep the boilerplate.
		if idx := strings.Index(body, "\n"); idx >= 0 {
			body = body[idx:]
		} else {
			body = ""
		}
		if len(strings.TrimSpace(body)) > 0 {
			substantive++
		}
	}
	return substantive == len(slot.Mandates)
}

func allLayersRendered(slot *ComponentSlot, prompt *AssembledPrompt) bool {
	if len(prompt.Layers) == 0 {
		return false
	}
	return len(slot.Layers) == len(prompt.Layers)
}

func layersOrdered(slot *ComponentSlot, _ *AssembledPrompt) bool {
	if len(slot.Layers) == 0 {
		return false
	}
	order := make(map[catalog.LayerID]int, len(catalog.LayerOrder()))
	for i, id := range catalog.LayerOrder() {
		order[id] = i
	}
	for i := 1; i < len(slot.Layers); i++ {
		if order[slot.Layers[i-1]] > order[slot.Layers[i]] {
			return false
		}
	}
	return true
}

func layerRendered(slot *ComponentSlot, id catalog.LayerID) bool {
	for _, rendered := range slot.Layers {
		if rendered == id {
			return true
		}
	}
	return false
}

// layerSectionLen measures the rendered payload length of one layer
// section, excluding its header.
func layerSectionLen(slot *ComponentSlot, title string) int {
	header := "### " + title
	idx := strings.Index(slot.Body, header)
	if idx < 0 {
		return 0
	}
	section := slot.Body[idx+len(header):]
	if next := strings.Index(section, "\n### "); next >= 0 {
		section = section[:next]
	}
	return len(strings.TrimSpace(section))
}
