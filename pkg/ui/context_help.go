package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// helpSection is one titled group of bindings in the help modal
type helpSection struct {
	title    string
	bindings []key.Binding
}

// contextHelpSections returns the help content for a mode.
// Content should fit on one screen without scrolling.
func contextHelpSections(k keyMap, m mode) []helpSection {
	if m == modeDrag {
		return []helpSection{
			{"Moving a node", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown}},
			{"Drop", []key.Binding{k.CyclePosition, k.Drop, k.Cancel}},
		}
	}
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom}},
		{"Expand", []key.Binding{k.Toggle, k.Expand, k.Collapse}},
		{"Edit", []key.Binding{k.AddChild, k.AddRoot, k.Rename, k.Delete, k.Move}},
		{"Other", []key.Binding{k.Copy, k.Preview, k.Help, k.Quit}},
	}
}

// RenderContextHelp renders the help modal for the given mode.
// This is a compact modal (~50 chars wide) that shows quick reference info.
func RenderContextHelp(k keyMap, m mode, theme Theme, width int) string {
	r := theme.Renderer

	// Modal dimensions - compact
	modalWidth := 50
	if width > 0 && modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 30 {
		modalWidth = 30
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)
	sectionStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Secondary)
	keyStyle := r.NewStyle().
		Foreground(theme.Highlight).
		Width(10)
	descStyle := r.NewStyle().
		Foreground(theme.Subtext)
	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-6)))
	b.WriteString("\n")

	for _, section := range contextHelpSections(k, m) {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("Esc or ? to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}
