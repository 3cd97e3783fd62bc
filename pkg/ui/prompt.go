package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/arbor/pkg/store"
)

type promptKind int

const (
	promptAddChild promptKind = iota
	promptAddRoot
	promptRename
)

// labelPrompt collects a node label inline, below the tree
type labelPrompt struct {
	kind   promptKind
	target string // parent for add-child, node for rename
	input  textinput.Model
}

func newLabelPrompt(kind promptKind, target, initial string, theme Theme, width int) (labelPrompt, tea.Cmd) {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Placeholder = "label"
	ti.PromptStyle = theme.Renderer.NewStyle().Foreground(theme.Primary).Bold(true)
	switch kind {
	case promptAddChild:
		ti.Prompt = "New child: "
	case promptAddRoot:
		ti.Prompt = "New root: "
	case promptRename:
		ti.Prompt = "Rename: "
	}
	if width > 0 {
		ti.Width = width - len(ti.Prompt) - 2
	}
	ti.SetValue(initial)
	ti.CursorEnd()
	cmd := ti.Focus()
	return labelPrompt{kind: kind, target: target, input: ti}, cmd
}

// intent turns the typed value into the store intent it commits to
func (p labelPrompt) intent() store.Intent {
	value := p.input.Value()
	switch p.kind {
	case promptAddChild:
		return store.AddChild{ParentID: p.target, Label: value}
	case promptAddRoot:
		return store.AddRoot{Label: value}
	default:
		return store.Rename{ID: p.target, Label: value}
	}
}

// commitsOnBlur reports whether leaving the prompt saves it. Only renames
// do; an abandoned add creates nothing.
func (p labelPrompt) commitsOnBlur() bool {
	return p.kind == promptRename
}

func (p labelPrompt) View() string {
	return p.input.View()
}
