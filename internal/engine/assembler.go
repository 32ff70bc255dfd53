package engine

import (
	"fmt"
	"strings"

	"promptforge/internal/catalog"
)

// SlotKind identifies one of the seven fixed components of an assembled
// prompt document.
type SlotKind string

const (
	SlotPersona      SlotKind = "persona"
	SlotContext      SlotKind = "context"
	SlotTask         SlotKind = "task"
	SlotRequirements SlotKind = "requirements"
	SlotSecurity     SlotKind = "security"
	SlotMeta         SlotKind = "meta_instructions"
	SlotOutput       SlotKind = "output"
)

// SlotCount is the fixed number of components in an assembled prompt.
const SlotCount = 7

// SlotOrder returns the mandated component sequence.
func SlotOrder() []SlotKind {
	return []SlotKind{
		SlotPersona,
		SlotContext,
		SlotTask,
		SlotRequirements,
		SlotSecurity,
		SlotMeta,
		SlotOutput,
	}
}

var slotTitles = map[SlotKind]string{
	SlotPersona:      "Persona",
	SlotContext:      "Context",
	SlotTask:         "Task",
	SlotRequirements: "Requirements",
	SlotSecurity:     "Security Mandates",
	SlotMeta:         "Meta-Instructions",
	SlotOutput:       "Output Format",
}

// TaskSpec is the caller-supplied task definition. The assembler wraps
// it structurally and never rewrites it.
type TaskSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// RequirementsSpec carries the caller's requirement items verbatim.
type RequirementsSpec struct {
	Functional    []string `yaml:"functional"`
	NonFunctional []string `yaml:"non_functional"`
}

// OutputSpec describes the expected shape of the generated output.
type OutputSpec struct {
	Format       string `yaml:"format"`
	Instructions string `yaml:"instructions"`
}

// ComponentSlot is one rendered component of the assembled document.
// Layers and Mandates list the applicable sub-items for the context and
// security slots; they are empty for the pass-through slots. Omitted
// marks a slot that is empty by rule (no applicable sub-items), which
// the scorer treats differently from a slot whose content merely fails
// its checklist.
type ComponentSlot struct {
	Kind     SlotKind
	Title    string
	Body     string
	Layers   []catalog.LayerID
	Mandates []catalog.CommandmentID
	Omitted  bool
}

// AssembledPrompt is the final ordered seven-slot document, together
// with the classification and selection results that produced it.
// It is never mutated after assembly.
type AssembledPrompt struct {
	Pattern  *catalog.Pattern
	Layers   []*catalog.ContextLayer
	Mandates []*catalog.Commandment
	Slots    [SlotCount]ComponentSlot
}

// Slot returns the slot of the given kind.
func (p *AssembledPrompt) Slot(kind SlotKind) *ComponentSlot {
	for i := range p.Slots {
		if p.Slots[i].Kind == kind {
			return &p.Slots[i]
		}
	}
	return nil
}

// Render produces the full prompt document in component order, with a
// numbered markdown header per slot. Omitted slots render header-only.
func (p *AssembledPrompt) Render() string {
	var b strings.Builder
	for i, slot := range p.Slots {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %d. %s", i+1, slot.Title)
		if body := strings.TrimSpace(slot.Body); body != "" {
			b.WriteString("\n\n")
			b.WriteString(body)
		}
	}
	b.WriteString("\n")
	return b.String()
}

// AssembleInput bundles everything the assembler consumes: the
// classified pattern, the selected layers and resolved mandates, and the
// caller-supplied content blocks for each slot.
type AssembleInput struct {
	Pattern         *catalog.Pattern
	Layers          []*catalog.ContextLayer
	Mandates        []*catalog.Commandment
	Persona         string
	ContextPayloads map[catalog.LayerID]string
	Task            TaskSpec
	Requirements    RequirementsSpec
	MandateTexts    map[catalog.CommandmentID]string
	Meta            string
	Output          OutputSpec
}

// Assembler arranges caller-supplied content into the mandated
// seven-component order. It is a pure function over its input: it adds
// structural wrapping (headers, lists, reference tags) but never invents
// content.
type Assembler struct{}

// NewAssembler creates an assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the seven-slot document. It fails fast with an
// IncompleteContextError naming every selected layer that has no
// payload, rather than silently omitting required context.
func (a *Assembler) Assemble(in AssembleInput) (*AssembledPrompt, error) {
	contextSlot, err := a.renderContext(in.Layers, in.ContextPayloads)
	if err != nil {
		return nil, err
	}

	prompt := &AssembledPrompt{
		Pattern:  in.Pattern,
		Layers:   in.Layers,
		Mandates: in.Mandates,
	}
	slots := []ComponentSlot{
		{Kind: SlotPersona, Body: strings.TrimSpace(in.Persona)},
		contextSlot,
		{Kind: SlotTask, Body: a.renderTask(in.Pattern, in.Task)},
		{Kind: SlotRequirements, Body: a.renderRequirements(in.Requirements)},
		a.renderSecurity(in.Mandates, in.MandateTexts),
		{Kind: SlotMeta, Body: strings.TrimSpace(in.Meta)},
		{Kind: SlotOutput, Body: a.renderOutput(in.Output)},
	}
	for i, slot := range slots {
		slot.Title = slotTitles[slot.Kind]
		prompt.Slots[i] = slot
	}
	return prompt, nil
}

func (a *Assembler) renderContext(layers []*catalog.ContextLayer, payloads map[catalog.LayerID]string) (ComponentSlot, error) {
	slot := ComponentSlot{Kind: SlotContext}
	if len(layers) == 0 {
		// No layers selected by rule: intentionally empty, not an error.
		slot.Omitted = true
		return slot, nil
	}

	var missing []catalog.LayerID
	var sections []string
	for _, layer := range layers {
		payload := strings.TrimSpace(payloads[layer.ID])
		if payload == "" {
			missing = append(missing, layer.ID)
			continue
		}
		slot.Layers = append(slot.Layers, layer.ID)
		sections = append(sections, fmt.Sprintf("### %s\n\n%s", layer.Title, payload))
	}
	if len(missing) > 0 {
		return ComponentSlot{}, &IncompleteContextError{Missing: missing}
	}
	slot.Body = strings.Join(sections, "\n\n")
	return slot, nil
}

func (a *Assembler) renderTask(pattern *catalog.Pattern, task TaskSpec) string {
	var b strings.Builder
	if pattern != nil {
		fmt.Fprintf(&b, "**Pattern:** %s\n\n", pattern.Name)
	}
	if name := strings.TrimSpace(task.Name); name != "" {
		fmt.Fprintf(&b, "### %s\n\n", name)
	}
	b.WriteString(strings.TrimSpace(task.Description))
	return strings.TrimSpace(b.String())
}

func (a *Assembler) renderRequirements(req RequirementsSpec) string {
	var sections []string
	if len(req.Functional) > 0 {
		sections = append(sections, renderChecklist("Functional", req.Functional))
	}
	if len(req.NonFunctional) > 0 {
		sections = append(sections, renderChecklist("Non-Functional", req.NonFunctional))
	}
	return strings.Join(sections, "\n\n")
}

func renderChecklist(title string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", title)
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s", strings.TrimSpace(item))
	}
	return b.String()
}

func (a *Assembler) renderSecurity(mandates []*catalog.Commandment, texts map[catalog.CommandmentID]string) ComponentSlot {
	slot := ComponentSlot{Kind: SlotSecurity}
	var blocks []string
	for _, m := range mandates {
		slot.Mandates = append(slot.Mandates, m.ID)
		var b strings.Builder
		fmt.Fprintf(&b, "### Commandment %s: %s", m.ID, m.Name)
		if text := strings.TrimSpace(texts[m.ID]); text != "" {
			b.WriteString("\n\n")
			b.WriteString(text)
		}
		if m.Reference != "" {
			fmt.Fprintf(&b, "\n\n_Reference: %s_", m.Reference)
		}
		blocks = append(blocks, b.String())
	}
	slot.Body = strings.Join(blocks, "\n\n")
	return slot
}

func (a *Assembler) renderOutput(out OutputSpec) string {
	var b strings.Builder
	if format := strings.TrimSpace(out.Format); format != "" {
		fmt.Fprintf(&b, "**Format:** %s\n\n", format)
	}
	b.WriteString(strings.TrimSpace(out.Instructions))
	return strings.TrimSpace(b.String())
}
