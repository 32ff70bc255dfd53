package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"promptforge/internal/catalog"
	"promptforge/internal/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	starStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	reportStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

func stars(n int) string {
	return starStyle.Render(strings.Repeat("★", n) + strings.Repeat("☆", 5-n))
}

func renderClassification(result engine.ClassificationResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Classification"))
	fmt.Fprintf(&b, "\n%s #%d %s (%s)",
		labelStyle.Render("pattern:"),
		result.Pattern.ID, result.Pattern.Name, result.Pattern.Category)
	fmt.Fprintf(&b, "\n%s %.2f", labelStyle.Render("confidence:"), result.Confidence)
	if result.Explicit {
		fmt.Fprintf(&b, " %s", dimStyle.Render("(explicit hint)"))
	}
	if len(result.MatchedPhrases) > 0 {
		fmt.Fprintf(&b, "\n%s %s",
			labelStyle.Render("matched:"),
			strings.Join(result.MatchedPhrases, ", "))
	}
	fmt.Fprintf(&b, "\n%s %d%%-%d%%",
		labelStyle.Render("typical success rate:"),
		result.Pattern.SuccessRate.Low, result.Pattern.SuccessRate.High)
	return b.String()
}

func renderReport(result *engine.Result) string {
	report := result.Report
	var b strings.Builder

	b.WriteString(titleStyle.Render("Score Report"))
	fmt.Fprintf(&b, "\n%s #%d %s  %s %.2f",
		labelStyle.Render("pattern:"),
		result.Classification.Pattern.ID,
		result.Classification.Pattern.Name,
		labelStyle.Render("confidence:"),
		result.Classification.Confidence)
	fmt.Fprintf(&b, "\n%s %s  %s %s",
		labelStyle.Render("layers:"), idList(layerIDs(result.Layers)),
		labelStyle.Render("mandates:"), mandateList(result.Mandates))
	b.WriteString("\n")

	for _, slot := range report.Slots {
		if slot.Omitted {
			fmt.Fprintf(&b, "\n%-18s %s", slot.Kind, dimStyle.Render("omitted (weight reallocated)"))
			continue
		}
		fmt.Fprintf(&b, "\n%-18s %s  %d/%d", slot.Kind, stars(slot.Stars), slot.Checked, slot.Total)
		for _, unmet := range slot.Unmet {
			fmt.Fprintf(&b, "\n%s", dimStyle.Render("    ✗ "+unmet))
		}
	}

	fmt.Fprintf(&b, "\n\n%s %.1f/100  %s",
		labelStyle.Render("aggregate:"), report.Aggregate, stars(report.Stars))
	return reportStyle.Render(b.String())
}

func renderCatalog(cat *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Patterns (evaluation order)"))
	for _, p := range cat.Patterns() {
		fmt.Fprintf(&b, "\n%3d  %-20s %-16s priority %d, %d triggers",
			p.ID, p.Name, p.Category, p.Priority, p.TriggerCount())
	}

	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Context Layers"))
	for _, l := range cat.Layers() {
		fmt.Fprintf(&b, "\n  %-22s weight %2d", l.ID, l.Weight)
	}

	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Commandments"))
	for _, c := range cat.Commandments() {
		tags := make([]string, 0, len(c.FeatureTags))
		for _, tag := range catalog.AllFeatureTags() {
			if c.FeatureTags[tag] {
				tags = append(tags, string(tag))
			}
		}
		fmt.Fprintf(&b, "\n  %-5s %-45s [%s]", c.ID.String(), c.Name, strings.Join(tags, ", "))
	}
	return b.String()
}

func layerIDs(layers []*catalog.ContextLayer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = string(l.ID)
	}
	return out
}

func idList(ids []string) string {
	if len(ids) == 0 {
		return dimStyle.Render("none")
	}
	return strings.Join(ids, ", ")
}

func mandateList(mandates []*catalog.Commandment) string {
	ids := make([]string, len(mandates))
	for i, m := range mandates {
		ids[i] = m.ID.String()
	}
	return strings.Join(ids, ", ")
}
