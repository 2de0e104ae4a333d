package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	operatorNames = []string{
		"Table", "Project", "Remove", "Rename", "RenameAll", "Restrict",
		"Sort", "Quota", "Explode", "Aggregate", "Union", "Difference",
		"GroupRestrict",
	}

	modifiers = []string{
		"enforced", "Auto", "Searched", "Scanned", "Hashed", "by", "as",
		"using", "distinct",
	}
)

// PlanHighlighter colors an operator listing: operator names, modifiers
// and numbers each get their own style. Tree guides are dimmed.
type PlanHighlighter struct {
	operators     map[string]bool
	modifiers     map[string]bool
	operatorStyle lipgloss.Style
	modifierStyle lipgloss.Style
	numberStyle   lipgloss.Style
	guideStyle    lipgloss.Style
}

func NewPlanHighlighter() *PlanHighlighter {
	h := &PlanHighlighter{
		operators: make(map[string]bool),
		modifiers: make(map[string]bool),
	}
	for _, op := range operatorNames {
		h.operators[op] = true
	}
	for _, m := range modifiers {
		h.modifiers[m] = true
	}

	h.operatorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF79C6")).
		Bold(true)

	h.modifierStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#8BE9FD"))

	h.numberStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#BD93F9"))

	h.guideStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4"))

	return h
}

// Highlight styles every line of listing, keeping its indentation.
func (h *PlanHighlighter) Highlight(listing string) string {
	lines := strings.Split(listing, "\n")
	for i, line := range lines {
		lines[i] = h.highlightLine(line)
	}
	return strings.Join(lines, "\n")
}

func (h *PlanHighlighter) highlightLine(line string) string {
	body := strings.TrimLeft(line, "│ ")
	guide := line[:len(line)-len(body)]

	words := strings.Fields(body)
	for i, word := range words {
		clean := strings.Trim(word, "{},()")
		switch {
		case h.operators[clean]:
			words[i] = h.operatorStyle.Render(word)
		case h.modifiers[clean]:
			words[i] = h.modifierStyle.Render(word)
		case isNumeric(clean):
			words[i] = h.numberStyle.Render(word)
		}
	}

	if guide == "" {
		return strings.Join(words, " ")
	}
	return h.guideStyle.Render(guide) + strings.Join(words, " ")
}

// isNumeric checks if a string represents a number
func isNumeric(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789.-", c) {
			return false
		}
	}
	return s != ""
}
