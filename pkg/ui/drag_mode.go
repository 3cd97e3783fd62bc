package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/arbor/pkg/store"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// startDrag picks up n. The cursor then chooses the drop target.
func (m *Model) startDrag(n tree.Node) {
	m.drag.Start(n.ID)
	m.mode = modeDrag
	m.setStatus(fmt.Sprintf("moving %q: pick a target, tab changes position, enter drops", displayLabel(n)))
}

func (m Model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.drag.End()
		m.mode = modeBrowse
		m.setStatus("move cancelled")
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CyclePosition):
		m.drag.CyclePosition()
		return m, nil
	case key.Matches(msg, m.keys.Drop):
		return m, m.drop()
	case key.Matches(msg, m.keys.Up):
		m.view.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.view.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.view.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.view.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.view.JumpToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.view.JumpToBottom()
	default:
		return m, nil
	}
	m.hover()
	return m, nil
}

// hover reports the row under the cursor as the drop target
func (m *Model) hover() {
	m.drag.Over(m.view.SelectedID(), m.drag.Position())
}

// drop hands the gesture to the store. Without a target the drag stays
// active; any other outcome ends it.
func (m *Model) drop() tea.Cmd {
	if m.drag.Target() == "" {
		m.setStatus("move the cursor to a drop target first")
		return nil
	}
	in := store.Move{
		DraggedID: m.drag.Dragged(),
		TargetID:  m.drag.Target(),
		Position:  m.drag.Position(),
	}
	m.drag.End()
	m.mode = modeBrowse
	m.clearStatus()
	return m.apply(in)
}

// dragDecor marks the dragged row and the current target
func (m Model) dragDecor(id string) (dimmed bool, badge string) {
	r := m.theme.Renderer
	switch id {
	case m.drag.Dragged():
		return true, r.NewStyle().Foreground(m.theme.Muted).Render("⇅ moving")
	case m.drag.Target():
		if m.store.Tree().IsDescendant(m.drag.Dragged(), id) {
			return false, r.NewStyle().Foreground(m.theme.Error).Render("✗ inside moved node")
		}
		var marker string
		switch m.drag.Position() {
		case tree.Before:
			marker = "▲ before"
		case tree.After:
			marker = "▼ after"
		default:
			marker = "↳ inside"
		}
		return false, r.NewStyle().Foreground(m.theme.Highlight).Bold(true).Render(marker)
	}
	return false, ""
}
