package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors and base styles of the tree view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
}

// DefaultTheme builds the default palette for renderer r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F6C177"},
		Highlight: lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#67E8F9"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#3F3F46", Dark: "#D4D4D8"},
		Border:    lipgloss.AdaptiveColor{Light: "#D4D4D8", Dark: "#3F3F46"},
		Error:     lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FF6B6B"},
		Success:   lipgloss.AdaptiveColor{Light: "#2F855A", Dark: "#4ADE80"},
	}
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#EDEDED"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E4E4F7", Dark: "#2E2A5A"}).
		Bold(true)
	return t
}
