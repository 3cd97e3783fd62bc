// tree.go - Hierarchical tree view: flattening, cursor movement, row rendering
package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// treeRow is one visible line of the tree
type treeRow struct {
	node   tree.Node // own fields only, no subtree
	parent string    // "" for roots
	depth  int       // nesting level (0 = root)
	guides []bool    // per ancestor level: does that ancestor have siblings below?
	last   bool      // last child of its parent
	kids   int       // loaded children count
}

// treeView manages the flattened, scrollable list of visible nodes
type treeView struct {
	rows           []treeRow // flattened visible nodes for navigation
	cursor         int       // current selection index in rows
	viewportOffset int       // index of first visible row
	width          int
	height         int
	theme          Theme
}

func newTreeView(theme Theme) treeView {
	return treeView{theme: theme}
}

// SetSize updates the available dimensions for the tree rows
func (v *treeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.ensureVisible()
}

// Rebuild re-flattens t, keeping the cursor on the same node when it is
// still visible.
func (v *treeView) Rebuild(t tree.Tree) {
	selected := v.SelectedID()
	v.rows = make([]treeRow, 0, len(v.rows))

	var appendVisible func(ids []string, parent string, depth int, guides []bool)
	appendVisible = func(ids []string, parent string, depth int, guides []bool) {
		for i, id := range ids {
			n, ok := t.Get(id)
			if !ok {
				continue
			}
			children := t.Children(id)
			last := i == len(ids)-1
			v.rows = append(v.rows, treeRow{
				node:   n,
				parent: parent,
				depth:  depth,
				guides: guides,
				last:   last,
				kids:   len(children),
			})
			if n.Expanded && len(children) > 0 {
				next := append(append([]bool(nil), guides...), !last)
				appendVisible(children, id, depth+1, next)
			}
		}
	}
	appendVisible(t.Roots(), "", 0, nil)

	if selected == "" || !v.SelectByID(selected) {
		v.clampCursor()
	}
}

// SelectedRow returns the row under the cursor, or nil if the tree is empty
func (v *treeView) SelectedRow() *treeRow {
	if v.cursor >= 0 && v.cursor < len(v.rows) {
		return &v.rows[v.cursor]
	}
	return nil
}

// SelectedID returns the ID under the cursor, or empty string
func (v *treeView) SelectedID() string {
	if r := v.SelectedRow(); r != nil {
		return r.node.ID
	}
	return ""
}

// SelectByID moves the cursor to id. Returns false when id is not visible.
func (v *treeView) SelectByID(id string) bool {
	for i, r := range v.rows {
		if r.node.ID == id {
			v.cursor = i
			v.ensureVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row
func (v *treeView) MoveDown() {
	if v.cursor < len(v.rows)-1 {
		v.cursor++
	}
	v.ensureVisible()
}

// MoveUp moves the cursor up one row
func (v *treeView) MoveUp() {
	if v.cursor > 0 {
		v.cursor--
	}
	v.ensureVisible()
}

// PageDown moves cursor down by half a viewport
func (v *treeView) PageDown() {
	v.cursor += v.pageSize()
	v.clampCursor()
}

// PageUp moves cursor up by half a viewport
func (v *treeView) PageUp() {
	v.cursor -= v.pageSize()
	v.clampCursor()
}

// JumpToTop moves cursor to the first row
func (v *treeView) JumpToTop() {
	v.cursor = 0
	v.ensureVisible()
}

// JumpToBottom moves cursor to the last row
func (v *treeView) JumpToBottom() {
	v.cursor = len(v.rows) - 1
	v.clampCursor()
}

// JumpToParent moves cursor to the parent of the selected row.
// At a root it does nothing.
func (v *treeView) JumpToParent() {
	r := v.SelectedRow()
	if r == nil || r.parent == "" {
		return
	}
	v.SelectByID(r.parent)
}

// MoveToFirstChild moves to the row right below an expanded parent
func (v *treeView) MoveToFirstChild() bool {
	r := v.SelectedRow()
	if r == nil || !r.node.Expanded || r.kids == 0 {
		return false
	}
	if v.cursor+1 < len(v.rows) && v.rows[v.cursor+1].parent == r.node.ID {
		v.cursor++
		v.ensureVisible()
		return true
	}
	return false
}

// RowAt returns the row index shown on screen line y of the tree area
func (v *treeView) RowAt(y int) (int, bool) {
	i := v.viewportOffset + y
	if y < 0 || i >= len(v.rows) {
		return 0, false
	}
	return i, true
}

// NodeCount returns the number of visible rows
func (v *treeView) NodeCount() int {
	return len(v.rows)
}

func (v *treeView) pageSize() int {
	pageSize := v.height / 2
	if pageSize < 1 {
		pageSize = 5
	}
	return pageSize
}

func (v *treeView) clampCursor() {
	if v.cursor >= len(v.rows) {
		v.cursor = len(v.rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	v.ensureVisible()
}

// ensureVisible scrolls so the cursor row is on screen
func (v *treeView) ensureVisible() {
	visible := v.visibleCount()
	if v.cursor < v.viewportOffset {
		v.viewportOffset = v.cursor
	}
	if v.cursor >= v.viewportOffset+visible {
		v.viewportOffset = v.cursor - visible + 1
	}
	if maxOffset := len(v.rows) - visible; v.viewportOffset > maxOffset {
		v.viewportOffset = maxOffset
	}
	if v.viewportOffset < 0 {
		v.viewportOffset = 0
	}
}

func (v *treeView) visibleCount() int {
	if v.height <= 0 {
		return 20 // Default
	}
	return v.height
}

// visibleRange returns the [start, end) row indices on screen
func (v *treeView) visibleRange() (start, end int) {
	if len(v.rows) == 0 {
		return 0, 0
	}
	start = v.viewportOffset
	end = start + v.visibleCount()
	if end > len(v.rows) {
		end = len(v.rows)
	}
	return start, end
}

// rowDecor carries per-row extras owned by the model
type rowDecor struct {
	selected bool
	spinner  string // replaces the indicator while loading
	badge    string // rendered after the label (drag markers)
	dimmed   bool   // the node being dragged
}

// renderRow renders a single tree row with tree characters and styling
func (v *treeView) renderRow(r treeRow, d rowDecor) string {
	th := v.theme
	rs := th.Renderer
	var sb strings.Builder

	prefix := v.buildTreePrefix(r)
	sb.WriteString(prefix)

	indicator := expandIndicator(r)
	if r.node.Loading && d.spinner != "" {
		sb.WriteString(d.spinner)
	} else {
		sb.WriteString(rs.NewStyle().Foreground(th.Secondary).Render(indicator))
	}
	sb.WriteString(" ")

	label := r.node.Label
	if strings.TrimSpace(label) == "" {
		label = r.node.ID
	}
	suffix := ""
	switch {
	case r.node.Loading:
		suffix = " loading…"
	case r.node.Expanded && r.node.Loaded && r.kids == 0 && r.node.HasChildren:
		suffix = " (empty)"
	}

	if v.width > 0 {
		maxLabel := v.width - runewidth.StringWidth(stripPrefix(r)) - 2 - runewidth.StringWidth(suffix) - 12
		if maxLabel < 10 {
			maxLabel = 10
		}
		label = truncateLabel(label, maxLabel)
	}

	labelStyle := th.Base
	if d.dimmed {
		labelStyle = rs.NewStyle().Foreground(th.Muted).Italic(true)
	}
	sb.WriteString(labelStyle.Render(label))
	if suffix != "" {
		sb.WriteString(rs.NewStyle().Foreground(th.Muted).Render(suffix))
	}
	if d.badge != "" {
		sb.WriteString(" ")
		sb.WriteString(d.badge)
	}

	line := sb.String()
	if d.selected {
		line = th.Selected.Render(line)
	}
	return line
}

// buildTreePrefix builds the indentation and branch characters for a row
func (v *treeView) buildTreePrefix(r treeRow) string {
	if r.depth == 0 {
		return "" // Root nodes have no prefix
	}
	return v.theme.Renderer.NewStyle().Foreground(v.theme.Muted).Render(stripPrefix(r))
}

// stripPrefix is the unstyled prefix text
func stripPrefix(r treeRow) string {
	if r.depth == 0 {
		return ""
	}
	var sb strings.Builder
	// guides[0] belongs to the root level, which draws no column
	for _, more := range r.guides[1:] {
		if more {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if r.last {
		sb.WriteString("└── ")
	} else {
		sb.WriteString("├── ")
	}
	return sb.String()
}

// expandIndicator returns the expand/collapse indicator for a row
func expandIndicator(r treeRow) string {
	if r.node.IsLeaf() {
		return "•" // Leaf node
	}
	if r.node.Expanded {
		return "▾" // Expanded
	}
	return "▸" // Collapsed
}

// truncateLabel truncates to maxWidth display cells with an ellipsis
func truncateLabel(label string, maxWidth int) string {
	if maxWidth <= 1 {
		return "…"
	}
	if runewidth.StringWidth(label) <= maxWidth {
		return label
	}
	return runewidth.Truncate(label, maxWidth, "…")
}
