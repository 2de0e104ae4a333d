package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"relcore/pkg/cursor"
	"relcore/pkg/tuple"
	"relcore/pkg/ui/base"
)

// Source is one relation the browser can show.
type Source struct {
	Name string
	// Listing is the operator listing shown above the rows.
	Listing string
	// Bind returns a fresh, unopened cursor over the relation.
	Bind func() (cursor.Cursor, error)
}

// Model is a cursor browser. The active relation's cursor stays open while
// it is shown, and the navigation keys drive it directly: the highlighted
// row is always the cursor's current row.
type Model struct {
	sources   []Source
	active    int
	cur       cursor.Cursor
	columns   []string
	rows      [][]string
	position  int // row index, -1 before the first row, len(rows) after the last
	lastError error
	loading   bool
	loadTime  time.Duration

	listing     viewport.Model
	resultTable table.Model
	spinner     spinner.Model
	help        help.Model
	highlighter *PlanHighlighter

	width    int
	height   int
	showHelp bool
	keys     keyMap
}

func NewModel(sources []Source) Model {
	t := table.New(
		table.WithColumns([]table.Column{{Title: "Rows", Width: 40}}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	vp := viewport.New(80, 6)
	vp.Style = listingStyle

	return Model{
		sources:     sources,
		position:    -1,
		listing:     vp,
		resultTable: t,
		spinner:     sp,
		help:        help.New(),
		highlighter: NewPlanHighlighter(),
		keys:        keys,
	}
}

func (m Model) Init() tea.Cmd {
	if len(m.sources) == 0 {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.load(0))
}

// loadedMsg carries a freshly opened cursor and its rows.
type loadedMsg struct {
	index    int
	cur      cursor.Cursor
	columns  []string
	rows     [][]string
	err      error
	duration time.Duration
}

// movedMsg reports the outcome of a navigation call.
type movedMsg struct {
	position int
	err      error
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.closeCursor()
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.NextSource):
			return m.switchTo(m.active + 1)
		case key.Matches(msg, m.keys.PrevSource):
			return m.switchTo(m.active - 1)
		case key.Matches(msg, m.keys.Reload):
			return m.switchTo(m.active)
		case key.Matches(msg, m.keys.Next):
			return m, m.move(cursor.Cursor.Next, m.position+1)
		case key.Matches(msg, m.keys.Prior):
			return m, m.move(cursor.Cursor.Prior, m.position-1)
		case key.Matches(msg, m.keys.First):
			return m, m.reposition(cursor.Cursor.First, -1)
		case key.Matches(msg, m.keys.Last):
			return m, m.reposition(cursor.Cursor.Last, len(m.rows))
		}

	case loadedMsg:
		m.loading = false
		m.closeCursor()
		m.active = msg.index
		m.loadTime = msg.duration
		m.lastError = msg.err
		m.cur = msg.cur
		m.columns = msg.columns
		m.rows = msg.rows
		m.position = -1
		m.refreshTable()

	case movedMsg:
		m.lastError = msg.err
		if msg.err == nil {
			m.position = base.Clamp(msg.position, -1, len(m.rows))
			if m.position >= 0 && m.position < len(m.rows) {
				m.resultTable.SetCursor(m.position)
			}
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.listing, cmd = m.listing.Update(msg)
	return m, cmd
}

func (m Model) switchTo(index int) (tea.Model, tea.Cmd) {
	if len(m.sources) == 0 {
		return m, nil
	}
	index = (index + len(m.sources)) % len(m.sources)
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.load(index))
}

// load binds and opens source index, reads its rows, and leaves the cursor
// open before the first row.
func (m Model) load(index int) tea.Cmd {
	src := m.sources[index]
	return func() tea.Msg {
		start := time.Now()
		msg := loadedMsg{index: index}

		c, err := src.Bind()
		if err == nil {
			err = c.Open()
		}
		if err != nil {
			msg.err = err
			return msg
		}

		rows, err := cursor.Collect(c)
		if err == nil {
			err = c.First()
		}
		if err != nil {
			msg.err = err
			_ = c.Close()
			return msg
		}

		msg.cur = c
		msg.columns = c.TableVar().ColumnNames()
		msg.rows = make([][]string, len(rows))
		for i, row := range rows {
			msg.rows[i] = renderRow(row)
		}
		msg.duration = time.Since(start)
		return msg
	}
}

func renderRow(row *tuple.Tuple) []string {
	out := make([]string, row.TupleDesc.NumFields())
	for i := range out {
		if f := row.Field(i); f != nil {
			out[i] = f.String()
		} else {
			out[i] = "∅"
		}
	}
	return out
}

// move steps the cursor. position is where the highlight goes when the
// step lands on a row.
func (m Model) move(step func(cursor.Cursor) (bool, error), position int) tea.Cmd {
	c := m.cur
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		ok, err := step(c)
		if err != nil {
			return movedMsg{err: err}
		}
		if !ok {
			if c.EOF() {
				return movedMsg{position: 1 << 30}
			}
			return movedMsg{position: -1}
		}
		return movedMsg{position: position}
	}
}

func (m Model) reposition(to func(cursor.Cursor) error, position int) tea.Cmd {
	c := m.cur
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return movedMsg{position: position, err: to(c)}
	}
}

func (m *Model) closeCursor() {
	if m.cur != nil {
		_ = m.cur.Close()
		m.cur = nil
	}
}

func (m *Model) refreshTable() {
	columns := make([]table.Column, len(m.columns))
	for i, col := range m.columns {
		columns[i] = table.Column{Title: col, Width: m.columnWidth(col, i)}
	}
	rows := make([]table.Row, len(m.rows))
	for i, row := range m.rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = base.TruncateString(cell, columns[j].Width)
		}
		rows[i] = table.Row(cells)
	}
	m.resultTable.SetRows(nil)
	m.resultTable.SetColumns(columns)
	m.resultTable.SetRows(rows)

	if m.active < len(m.sources) {
		m.listing.SetContent(m.highlighter.Highlight(strings.TrimRight(m.sources[m.active].Listing, "\n")))
	}
}

func (m Model) columnWidth(columnName string, index int) int {
	maxWidth := 30
	minWidth := 8

	width := len(columnName) + 2
	for _, row := range m.rows {
		if index < len(row) && len(row[index])+2 > width {
			width = len(row[index]) + 2
		}
	}
	return base.Clamp(width, minWidth, maxWidth)
}

func (m *Model) updateLayout() {
	listingHeight := 6
	resultHeight := m.height - listingHeight - 12
	if resultHeight < 3 {
		resultHeight = 3
	}
	m.listing.Width = m.width - 6
	m.listing.Height = listingHeight
	m.resultTable.SetHeight(resultHeight)
}

func (m Model) View() string {
	sections := []string{m.renderHeader(), m.listing.View()}

	switch {
	case m.loading:
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Left, m.spinner.View(), " Opening cursor..."))
	case m.lastError != nil:
		sections = append(sections, m.renderError())
	}
	if !m.loading && m.cur != nil {
		sections = append(sections, m.renderRows())
	}

	sections = append(sections, m.renderStatusBar())
	if m.showHelp {
		sections = append(sections, m.help.FullHelpView(m.keys.FullHelp()))
	}
	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("relcore cursor browser")

	tabs := make([]string, len(m.sources))
	for i, src := range m.sources {
		if i == m.active {
			tabs[i] = activeTabStyle.Render(src.Name)
		} else {
			tabs[i] = tabStyle.Render(src.Name)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Left, tabs...))
}

func (m Model) renderRows() string {
	var crack string
	switch {
	case m.position < 0:
		crack = crackStyle.Render("before first row")
	case m.position >= len(m.rows):
		crack = crackStyle.Render("after last row")
	}
	view := m.resultTable.View()
	if crack != "" {
		view = crack + "\n" + view
	}
	return view
}

func (m Model) renderError() string {
	icon := errorStyle.Render(" ERROR ")
	message := lipgloss.NewStyle().
		Foreground(errorColor).
		Render(m.lastError.Error())
	return fmt.Sprintf("%s %s", icon, message)
}

func (m Model) renderStatusBar() string {
	status := "no relation"
	if m.cur != nil {
		status = fmt.Sprintf("%d rows | %s", len(m.rows), m.cur.Capabilities())
	}
	timer := ""
	if m.loadTime > 0 {
		timer = fmt.Sprintf(" | opened in %v", m.loadTime)
	}
	content := lipgloss.NewStyle().Foreground(accentColor).Render(status) +
		lipgloss.NewStyle().Foreground(textMuted).Render(timer+" | ? for help")

	width := m.width - 4
	if width < 0 {
		width = 0
	}
	return statusBarStyle.Width(width).Render(content)
}
