// Package ui provides the terminal user interface for arbor.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/arbor/pkg/drag"
	"github.com/vanderheijden86/arbor/pkg/lazy"
	"github.com/vanderheijden86/arbor/pkg/seed"
	"github.com/vanderheijden86/arbor/pkg/store"
	"github.com/vanderheijden86/arbor/pkg/tree"
)

// mode is what the keyboard currently drives
type mode int

const (
	modeBrowse  mode = iota // moving around the tree
	modePrompt              // typing a label
	modeConfirm             // answering the delete confirmation
	modeDrag                // picking a drop target
	modePreview             // reading the outline preview
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusError
)

// header line + status/prompt line + help line
const (
	headerHeight = 1
	footerHeight = 2
)

// Options configures a Model
type Options struct {
	// Title is shown in the header and as the outline heading
	Title string
	// Watcher, when set, reloads the tree whenever the seed file changes
	Watcher *seed.Watcher
	// FetchTimeout bounds each child fetch (0 = no limit)
	FetchTimeout time.Duration
	// GlamourStyle is the glamour standard style for the outline preview
	GlamourStyle string
	Log          logrus.FieldLogger
}

// Model is the main Bubble Tea model for the tree view
type Model struct {
	store   *store.Store
	log     logrus.FieldLogger
	theme   Theme
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	view     treeView
	mode     mode
	showHelp bool
	spinning bool // a spinner tick loop is running

	prompt     labelPrompt
	confirm    *huh.Form
	confirmYes *bool
	confirmID  string
	drag       drag.Session
	preview    outlinePreview

	status      string
	statusLevel statusLevel

	watcher      *seed.Watcher
	fetchTimeout time.Duration
	glamourStyle string
	title        string
	width        int
	height       int
}

// NewModel creates the tree view over st
func NewModel(st *store.Store, theme Theme, opts Options) Model {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	title := opts.Title
	if title == "" {
		title = "arbor"
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Renderer.NewStyle().Foreground(theme.Secondary)),
	)

	m := Model{
		store:        st,
		log:          log,
		theme:        theme,
		keys:         defaultKeyMap(),
		help:         help.New(),
		spinner:      sp,
		view:         newTreeView(theme),
		watcher:      opts.Watcher,
		fetchTimeout: opts.FetchTimeout,
		glamourStyle: opts.GlamourStyle,
		title:        title,
	}
	m.view.Rebuild(st.Tree())
	return m
}

// Init starts listening for seed file changes
func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return seed.WaitCmd(m.watcher)
	}
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.view.SetSize(msg.Width, m.treeHeight())
		return m, nil

	case FetchDoneMsg:
		return m, m.apply(store.FetchDone{Result: msg.Result})

	case spinner.TickMsg:
		if !m.anyLoading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case seed.ReloadedMsg:
		cmd := m.apply(store.Reload{Nodes: msg.Nodes})
		if m.statusLevel != statusError {
			m.setStatus("seed file reloaded")
		}
		return m, tea.Batch(cmd, m.waitForSeed())

	case seed.ReloadErrorMsg:
		m.setError(msg.Err)
		return m, m.waitForSeed()

	case ClipboardMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("copy to clipboard: %w", msg.Err))
		} else {
			m.setStatus("copied " + msg.Text)
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Everything else (cursor blink, form internals) goes to the active widget.
	switch m.mode {
	case modePrompt:
		var cmd tea.Cmd
		m.prompt.input, cmd = m.prompt.input.Update(msg)
		return m, cmd
	case modeConfirm:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) waitForSeed() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return seed.WaitCmd(m.watcher)
}

// apply runs an intent against the store and refreshes the view. A returned
// fetch is started right away.
func (m *Model) apply(in store.Intent) tea.Cmd {
	eff, err := m.store.Apply(in)
	m.view.Rebuild(m.store.Tree())
	if eff.Select != "" {
		m.view.SelectByID(eff.Select)
	}
	if err != nil {
		m.reportError(err)
	}
	if eff.Fetch == nil {
		return nil
	}

	cmds := []tea.Cmd{fetchCmd(eff.Fetch, m.fetchTimeout)}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) reportError(err error) {
	switch {
	case errors.Is(err, lazy.ErrFetchInFlight):
		m.setStatus("still loading…")
	case errors.Is(err, store.ErrEmptyLabel):
		m.setStatus("empty label, nothing changed")
	default:
		m.setError(err)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusLevel = statusInfo
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusLevel = statusError
	m.log.WithError(err).Warn("ui error")
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusLevel = statusInfo
}

func (m Model) anyLoading() bool {
	loading := false
	m.store.Tree().Walk(func(n tree.Node, _ int) bool {
		if n.Loading {
			loading = true
		}
		return !loading
	})
	return loading
}

func (m Model) treeHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch m.mode {
	case modePrompt:
		return m.updatePrompt(msg)
	case modeConfirm:
		return m.updateConfirm(msg)
	case modeDrag:
		return m.updateDrag(msg)
	case modePreview:
		return m.updatePreview(msg)
	}
	return m.updateBrowse(msg)
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.clearStatus()
	row := m.view.SelectedRow()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
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
	case key.Matches(msg, m.keys.AddRoot):
		return m, m.startPrompt(promptAddRoot, "", "")
	case key.Matches(msg, m.keys.Preview):
		m.openPreview()
	}
	if row == nil {
		return m, nil
	}

	id := row.node.ID
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.apply(store.Toggle{ID: id})

	case key.Matches(msg, m.keys.Expand):
		// Expanded: step into the children. Collapsed branch: expand it.
		if row.node.Expanded && !row.node.Loading {
			m.view.MoveToFirstChild()
		} else if !row.node.IsLeaf() {
			return m, m.apply(store.Toggle{ID: id})
		}

	case key.Matches(msg, m.keys.Collapse):
		if row.node.Expanded && !row.node.Loading {
			return m, m.apply(store.Toggle{ID: id})
		}
		m.view.JumpToParent()

	case key.Matches(msg, m.keys.AddChild):
		return m, m.startPrompt(promptAddChild, id, "")
	case key.Matches(msg, m.keys.Rename):
		return m, m.startPrompt(promptRename, id, row.node.Label)
	case key.Matches(msg, m.keys.Delete):
		return m.startDelete(*row)
	case key.Matches(msg, m.keys.Move):
		m.startDrag(row.node)
	case key.Matches(msg, m.keys.Copy):
		return m, copyCmd(id)
	}
	return m, nil
}

func (m *Model) startPrompt(kind promptKind, target, initial string) tea.Cmd {
	p, cmd := newLabelPrompt(kind, target, initial, m.theme, m.width)
	m.prompt = p
	m.mode = modePrompt
	return cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.clearStatus()
		return m, nil

	case msg.Type == tea.KeyEnter:
		return m, m.commitPrompt()

	case m.prompt.commitsOnBlur() && isBlurKey(msg):
		cmd := m.commitPrompt()
		switch msg.Type {
		case tea.KeyUp:
			m.view.MoveUp()
		case tea.KeyDown:
			m.view.MoveDown()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

// isBlurKey reports keys that move focus away from an inline prompt
func isBlurKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		return true
	}
	return false
}

func (m *Model) commitPrompt() tea.Cmd {
	m.mode = modeBrowse
	in := m.prompt.intent()
	if r, ok := in.(store.Rename); ok {
		if n, found := m.store.Tree().Get(r.ID); found && n.Label == strings.TrimSpace(r.Label) {
			return nil
		}
	}
	return m.apply(in)
}

// startDelete removes a leaf right away and asks first for anything with
// loaded children.
func (m Model) startDelete(row treeRow) (tea.Model, tea.Cmd) {
	if row.kids == 0 {
		return m, m.apply(store.Delete{ID: row.node.ID})
	}

	descendants := 0
	if n, ok := m.store.Tree().Find(row.node.ID); ok {
		descendants = n.Count() - 1
	}
	yes := false
	m.confirmYes = &yes
	m.confirmID = row.node.ID
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", displayLabel(row.node))).
				Description(fmt.Sprintf("This also deletes %d nested item(s).", descendants)).
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.confirmYes),
		),
	).WithShowHelp(false).WithWidth(48)
	m.mode = modeConfirm
	return m, m.confirm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		m.mode = modeBrowse
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Cancel) {
		return m, m.finishDelete(false)
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}
	switch m.confirm.State {
	case huh.StateCompleted:
		return m, m.finishDelete(*m.confirmYes)
	case huh.StateAborted:
		return m, m.finishDelete(false)
	}
	return m, cmd
}

func (m *Model) finishDelete(confirmed bool) tea.Cmd {
	id := m.confirmID
	m.confirm = nil
	m.confirmYes = nil
	m.confirmID = ""
	m.mode = modeBrowse
	if !confirmed {
		m.setStatus("delete cancelled")
		return nil
	}
	return m.apply(store.Delete{ID: id})
}

func (m *Model) openPreview() {
	t := m.store.Tree()
	nodes := t.Nodes()
	title := m.title
	if id := m.view.SelectedID(); id != "" {
		if n, ok := t.Find(id); ok {
			nodes = []tree.Node{n}
			title = displayLabel(n)
		}
	}
	m.preview = newOutlinePreview(nodes, title, m.glamourStyle, m.theme, m.width, m.height)
	m.mode = modePreview
}

func (m Model) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel, m.keys.Preview, m.keys.Quit) {
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.preview.viewport, cmd = m.preview.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || (m.mode != modeBrowse && m.mode != modeDrag) {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.view.MoveUp()
	case tea.MouseButtonWheelDown:
		m.view.MoveDown()
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		i, ok := m.view.RowAt(msg.Y - headerHeight)
		if !ok {
			return m, nil
		}
		m.view.cursor = i
		m.view.ensureVisible()
	default:
		return m, nil
	}
	if m.mode == modeDrag {
		m.hover()
	}
	return m, nil
}

// View renders the whole screen
func (m Model) View() string {
	screen := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTree(),
		m.renderFooter(),
	)

	var overlay string
	switch {
	case m.showHelp:
		overlay = RenderContextHelp(m.keys, m.mode, m.theme, m.width)
	case m.mode == modeConfirm && m.confirm != nil:
		overlay = m.theme.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(m.theme.Error).
			Padding(1, 2).
			Render(m.confirm.View())
	case m.mode == modePreview:
		overlay = m.preview.View()
	}
	if overlay == "" || m.width == 0 || m.height == 0 {
		if overlay != "" {
			return overlay
		}
		return screen
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
}

func (m Model) renderHeader() string {
	r := m.theme.Renderer
	title := r.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(m.title)
	meta := fmt.Sprintf(" %d nodes", m.store.Tree().Len())
	if m.spinning {
		meta += " " + m.spinner.View()
	}
	if m.mode == modeDrag {
		meta += " · moving"
	}
	return title + r.NewStyle().Foreground(m.theme.Muted).Render(meta)
}

func (m Model) renderTree() string {
	height := m.treeHeight()
	if m.height == 0 {
		height = m.view.visibleCount()
	}

	lines := make([]string, 0, height)
	if m.view.NodeCount() == 0 {
		lines = append(lines, m.renderEmptyState())
	} else {
		start, end := m.view.visibleRange()
		for i := start; i < end; i++ {
			lines = append(lines, m.view.renderRow(m.view.rows[i], m.decor(i)))
		}
	}
	for len(lines) < height && m.height > 0 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEmptyState renders the view when there are no nodes.
func (m Model) renderEmptyState() string {
	r := m.theme.Renderer
	muted := r.NewStyle().Foreground(m.theme.Muted)
	return muted.Render("Nothing here yet. Press A to add a root node.")
}

func (m Model) decor(i int) rowDecor {
	row := m.view.rows[i]
	d := rowDecor{selected: i == m.view.cursor}
	if row.node.Loading {
		d.spinner = m.spinner.View()
	}
	if m.mode == modeDrag {
		d.dimmed, d.badge = m.dragDecor(row.node.ID)
	}
	return d
}

func (m Model) renderFooter() string {
	r := m.theme.Renderer

	var line string
	switch {
	case m.mode == modePrompt:
		line = m.prompt.View()
	case m.status != "":
		style := r.NewStyle().Foreground(m.theme.Subtext)
		if m.statusLevel == statusError {
			style = r.NewStyle().Foreground(m.theme.Error).Bold(true)
		}
		line = style.Render(truncateLabel(m.status, max(m.width-1, 20)))
	}

	var helpLine string
	if m.mode == modeDrag {
		helpLine = m.help.ShortHelpView(m.keys.dragHelp())
	} else {
		helpLine = m.help.View(m.keys)
	}
	return line + "\n" + helpLine
}

// displayLabel falls back to the ID for unlabeled nodes
func displayLabel(n tree.Node) string {
	if strings.TrimSpace(n.Label) == "" {
		return n.ID
	}
	return n.Label
}
