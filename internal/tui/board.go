package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/nachoandmikey/clawtrol/internal/config"
	"github.com/nachoandmikey/clawtrol/internal/subagents"
	"github.com/nachoandmikey/clawtrol/internal/tasks"
)

// View represents the current view
type View int

const (
	ViewBoard View = iota
	ViewDetail
	ViewAgents
)

// KeyMap defines keybindings
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Enter     key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	Agents    key.Binding
	Refresh   key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = KeyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open task")),
	MoveLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move left")),
	MoveRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move right")),
	Agents:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "agents")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.MoveLeft, k.MoveRight, k.Agents, k.Refresh, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Enter, k.MoveLeft, k.MoveRight},
		{k.Agents, k.Refresh, k.Quit},
	}
}

// Layout constants
const (
	headerHeight = 3
	footerHeight = 3
	minColWidth  = 18
)

// Model is the main TUI model
type Model struct {
	store  *tasks.Store
	agents *subagents.Service

	currentView View
	width       int
	height      int

	// Board view
	board    tasks.Board
	columns  [][]tasks.Task // tasks grouped per column, board order
	colIdx   int
	rowIdx   map[int]int // selected row per column

	// Detail view
	selected   *tasks.Task
	viewport   viewport.Model
	mdRenderer *glamour.TermRenderer

	// Agents view
	agentList []subagents.AgentStatus

	spinner  spinner.Model
	help     help.Model
	showHelp bool

	statusMsg   string
	statusErr   bool
	statusTimer int
}

// NewModel creates a new TUI model
func NewModel(cfg *config.Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	h := help.New()
	h.Styles.ShortKey = helpKeyStyle
	h.Styles.ShortDesc = helpDescStyle

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		store:      tasks.NewStore(cfg.TasksFile()),
		agents:     subagents.NewService(cfg),
		rowIdx:     make(map[int]int),
		viewport:   viewport.New(80, 20),
		mdRenderer: renderer,
		spinner:    s,
		help:       h,
	}
}

// Messages
type boardLoadedMsg struct{ board tasks.Board }
type agentsLoadedMsg struct{ agents []subagents.AgentStatus }
type taskMovedMsg struct{ task tasks.Task }
type errMsg struct{ err error }
type tickMsg time.Time

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadBoard(), m.loadAgents(), m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) loadBoard() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return boardLoadedMsg{board: store.Board()}
	}
}

func (m *Model) loadAgents() tea.Cmd {
	svc := m.agents
	return func() tea.Msg {
		statuses, _ := svc.List()
		return agentsLoadedMsg{agents: statuses}
	}
}

func (m *Model) moveTask(id, status string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		task, err := store.Move(id, status, nil, false, "")
		if err != nil {
			return errMsg{err}
		}
		return taskMovedMsg{task}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.currentView {
		case ViewBoard:
			return m.updateBoard(msg)
		case ViewDetail:
			return m.updateDetail(msg)
		case ViewAgents:
			return m.updateAgents(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		m.viewport.Width = msg.Width - 6
		vh := msg.Height - headerHeight - footerHeight - 4
		if vh < 5 {
			vh = 5
		}
		m.viewport.Height = vh

		if renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-10),
		); err == nil {
			m.mdRenderer = renderer
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		if m.statusTimer > 0 {
			m.statusTimer--
			if m.statusTimer == 0 {
				m.statusMsg = ""
			}
		}
		cmds = append(cmds, tickCmd(), m.loadBoard(), m.loadAgents())

	case boardLoadedMsg:
		m.board = msg.board
		m.regroup()

	case agentsLoadedMsg:
		m.agentList = msg.agents

	case taskMovedMsg:
		m.setStatus("Moved to "+tasks.StatusLabel(msg.task.Status), false)
		cmds = append(cmds, m.loadBoard())

	case errMsg:
		m.setStatus("Error: "+msg.err.Error(), true)
	}

	return m, tea.Batch(cmds...)
}

// regroup rebuilds the per-column task slices after a reload and clamps the
// selection into range.
func (m *Model) regroup() {
	cols := m.board.Columns
	if len(cols) == 0 {
		cols = tasks.Columns
	}
	grouped := make([][]tasks.Task, len(cols))
	for i, status := range cols {
		for _, t := range m.board.Tasks {
			if t.Status == status {
				grouped[i] = append(grouped[i], t)
			}
		}
	}
	m.columns = grouped

	if m.colIdx >= len(m.columns) {
		m.colIdx = len(m.columns) - 1
	}
	for i := range m.columns {
		if m.rowIdx[i] >= len(m.columns[i]) {
			m.rowIdx[i] = len(m.columns[i]) - 1
		}
		if m.rowIdx[i] < 0 {
			m.rowIdx[i] = 0
		}
	}
}

func (m *Model) selectedTask() *tasks.Task {
	if m.colIdx < 0 || m.colIdx >= len(m.columns) {
		return nil
	}
	col := m.columns[m.colIdx]
	row := m.rowIdx[m.colIdx]
	if row < 0 || row >= len(col) {
		return nil
	}
	return &col[row]
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		if m.colIdx > 0 {
			m.colIdx--
		}

	case key.Matches(msg, keys.Right):
		if m.colIdx < len(m.columns)-1 {
			m.colIdx++
		}

	case key.Matches(msg, keys.Up):
		if m.rowIdx[m.colIdx] > 0 {
			m.rowIdx[m.colIdx]--
		}

	case key.Matches(msg, keys.Down):
		if m.colIdx < len(m.columns) && m.rowIdx[m.colIdx] < len(m.columns[m.colIdx])-1 {
			m.rowIdx[m.colIdx]++
		}

	case key.Matches(msg, keys.Enter):
		if t := m.selectedTask(); t != nil {
			m.selected = t
			m.viewport.SetContent(m.renderDetailContent(*t))
			m.viewport.GotoTop()
			m.currentView = ViewDetail
		}

	case key.Matches(msg, keys.MoveLeft):
		if t := m.selectedTask(); t != nil && m.colIdx > 0 {
			return m, m.moveTask(t.ID, m.columnStatus(m.colIdx-1))
		}

	case key.Matches(msg, keys.MoveRight):
		if t := m.selectedTask(); t != nil && m.colIdx < len(m.columns)-1 {
			return m, m.moveTask(t.ID, m.columnStatus(m.colIdx+1))
		}

	case key.Matches(msg, keys.Agents):
		m.currentView = ViewAgents

	case key.Matches(msg, keys.Refresh):
		return m, tea.Batch(m.loadBoard(), m.loadAgents())

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

func (m *Model) columnStatus(idx int) string {
	cols := m.board.Columns
	if len(cols) == 0 {
		cols = tasks.Columns
	}
	if idx < 0 || idx >= len(cols) {
		return tasks.StatusBacklog
	}
	return cols[idx]
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Quit):
		m.currentView = ViewBoard
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateAgents(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Agents):
		m.currentView = ViewBoard
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Refresh):
		return m, m.loadAgents()
	}
	return m, nil
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
	m.statusTimer = 2 // ticks, 5s each
}

func (m Model) View() string {
	var content string
	switch m.currentView {
	case ViewBoard:
		content = m.renderBoard()
	case ViewDetail:
		content = m.renderDetail()
	case ViewAgents:
		content = m.renderAgents()
	}
	return appStyle.Render(content)
}

func (m Model) renderBoard() string {
	var b strings.Builder

	b.WriteString("🦀 " + logoStyle.Render("Clawtrol"))
	b.WriteString("  " + subtitleStyle.Render("mission control"))
	b.WriteString("\n\n")

	if len(m.board.Tasks) == 0 {
		b.WriteString(emptyBoxStyle.Render("No tasks yet\n\nCreate one via the API or dashboard"))
	} else {
		b.WriteString(m.renderColumns())
	}
	b.WriteString("\n")

	if m.statusMsg != "" {
		if m.statusErr {
			b.WriteString(errorMsgStyle.Render("✗ " + m.statusMsg))
		} else {
			b.WriteString(successMsgStyle.Render("✓ " + m.statusMsg))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(keys.ShortHelp()))
	}

	return b.String()
}

func (m Model) renderColumns() string {
	cols := m.board.Columns
	if len(cols) == 0 {
		cols = tasks.Columns
	}

	colWidth := minColWidth
	if m.width > 0 {
		w := (m.width-8)/len(cols) - 4
		if w > colWidth {
			colWidth = w
		}
	}

	colHeight := 10
	if m.height > 0 {
		h := m.height - headerHeight - footerHeight - 6
		if h > colHeight {
			colHeight = h
		}
	}

	rendered := make([]string, 0, len(cols))
	for i, status := range cols {
		var col []tasks.Task
		if i < len(m.columns) {
			col = m.columns[i]
		}

		var body strings.Builder
		title := columnTitleStyle.Render(tasks.StatusLabel(status))
		count := columnCountStyle.Render(fmt.Sprintf(" %d", len(col)))
		body.WriteString(title + count + "\n\n")

		for j, t := range col {
			line := truncate(t.Title, colWidth)
			if i == m.colIdx && j == m.rowIdx[i] {
				line = selectedCardStyle.Render(line)
			} else {
				line = cardStyle.Render(line)
			}
			body.WriteString(line + "\n")

			meta := t.ID
			if t.Assignee != nil {
				meta += " · " + *t.Assignee
			}
			body.WriteString(cardMetaStyle.Render(truncate(meta, colWidth)) + "\n")
		}

		style := columnStyle
		if i == m.colIdx {
			style = focusedColumnStyle
		}
		rendered = append(rendered, style.Width(colWidth+2).Height(colHeight).Render(body.String()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderDetail() string {
	var b strings.Builder

	if m.selected == nil {
		return "No task selected"
	}
	t := *m.selected

	b.WriteString(logoStyle.Render(t.ID) + " " + t.Title)
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(tasks.StatusLabel(t.Status)))
	if t.Assignee != nil {
		b.WriteString(subtitleStyle.Render(" · " + *t.Assignee))
	}
	if t.PR != nil {
		b.WriteString(subtitleStyle.Render(" · " + *t.PR))
	}
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(helpKeyStyle.Render("esc") + helpDescStyle.Render(" back") +
		"  " + helpKeyStyle.Render("↑/↓") + helpDescStyle.Render(" scroll"))

	return b.String()
}

// renderDetailContent builds the markdown body shown in the detail viewport.
func (m Model) renderDetailContent(t tasks.Task) string {
	var md strings.Builder

	if t.Description != "" {
		md.WriteString(t.Description)
		md.WriteString("\n\n")
	}

	if len(t.Activity) > 0 {
		md.WriteString("## Activity\n\n")
		for _, a := range t.Activity {
			when := time.UnixMilli(a.Timestamp).Format("Jan 02 15:04")
			md.WriteString(fmt.Sprintf("- **%s** (%s, %s): %s\n", a.Type, a.AgentID, when, a.Content))
		}
	}

	if md.Len() == 0 {
		md.WriteString("*No description*")
	}

	if m.mdRenderer != nil {
		if out, err := m.mdRenderer.Render(md.String()); err == nil {
			return out
		}
	}
	return md.String()
}

func (m Model) renderAgents() string {
	var b strings.Builder

	b.WriteString("🦀 " + logoStyle.Render("Subclawds"))
	b.WriteString("\n\n")

	if len(m.agentList) == 0 {
		b.WriteString(emptyBoxStyle.Render("No agents registered"))
	} else {
		for _, a := range m.agentList {
			status := statusIdle.Render("idle")
			if a.Status == "working" {
				status = m.spinner.View() + " " + statusWorking.Render("working")
			}
			b.WriteString(fmt.Sprintf("%s %s  %s\n", a.Emoji, logoStyle.Render(a.Name), status))

			line := a.Model
			if a.CurrentTask != "" {
				line += " · " + a.CurrentTask
			}
			if a.LastActive != nil {
				line += " · last active " + *a.LastActive
			}
			b.WriteString(subtitleStyle.Render("  "+truncate(line, m.width-6)) + "\n\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpKeyStyle.Render("esc") + helpDescStyle.Render(" back") +
		"  " + helpKeyStyle.Render("r") + helpDescStyle.Render(" refresh"))

	return b.String()
}

func truncate(s string, max int) string {
	if max <= 3 {
		max = 3
	}
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// Run starts the kanban board TUI.
func Run(cfg *config.Config) error {
	m := NewModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
