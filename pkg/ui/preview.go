package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/arbor/pkg/outline"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// outlinePreview shows a subtree as rendered markdown in a scrollable box
type outlinePreview struct {
	viewport viewport.Model
	title    string
	theme    Theme
}

// newOutlinePreview renders nodes with glamour. If rendering fails the raw
// markdown is shown instead.
func newOutlinePreview(nodes []tree.Node, title, style string, theme Theme, width, height int) outlinePreview {
	boxWidth, boxHeight := previewSize(width, height)

	md := outline.Markdown(nodes, title)
	content := md
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(boxWidth-4),
	)
	if err == nil {
		if rendered, err := r.Render(md); err == nil {
			content = rendered
		}
	}

	vp := viewport.New(boxWidth-4, boxHeight-4)
	vp.SetContent(strings.TrimRight(content, "\n"))
	return outlinePreview{viewport: vp, title: title, theme: theme}
}

func previewSize(width, height int) (int, int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	w := width * 3 / 4
	if w < 40 {
		w = width - 2
	}
	h := height - 4
	if h < 8 {
		h = 8
	}
	return w, h
}

// View renders the preview overlay
func (p outlinePreview) View() string {
	r := p.theme.Renderer
	footer := r.NewStyle().
		Foreground(p.theme.Muted).
		Italic(true).
		Render("j/k: scroll | esc: close")

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.theme.Primary).
		Padding(0, 1)
	return box.Render(p.viewport.View() + "\n" + footer)
}
