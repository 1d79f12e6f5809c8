// Package tui is the interactive search overlay: a query input that
// re-runs the search as you type (debounced here, not in the engine), a
// result list, and a preview pane that lazily enriches only the currently
// selected result.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/gaurav-prasanna/pagegrep/core"
	"github.com/gaurav-prasanna/pagegrep/core/grep"
)

// typeDebounce is how long after the last keystroke a query fires.
const typeDebounce = 150 * time.Millisecond

var (
	inputStyle   = lipgloss.NewStyle().MarginBottom(1)
	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// resultItem adapts one GrepResult to the bubbles list.
type resultItem struct {
	result core.GrepResult
}

func (i resultItem) Title() string { return i.result.Text }
func (i resultItem) Description() string {
	desc := fmt.Sprintf("%s · score %d", i.result.Tag, i.result.Score)
	if i.result.Href != "" {
		desc += " · " + i.result.Href
	}
	return desc
}
func (i resultItem) FilterValue() string { return i.result.Text }

// queryMsg fires a debounced query; stale versions are dropped.
type queryMsg struct {
	version int
}

// refreshMsg re-runs the current query after a document mutation.
type refreshMsg struct{}

// Model is the bubbletea model for the overlay.
type Model struct {
	session *grep.Session
	filters []core.Category

	textInput textinput.Model
	list      list.Model
	results   []core.GrepResult

	width   int
	height  int
	version int // query debounce generation
}

// New creates the overlay model over an already-started session.
// initialQuery, when non-empty, runs as soon as the overlay opens.
func New(session *grep.Session, filters []core.Category, initialQuery string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search the page..."
	ti.SetValue(initialQuery)
	ti.Focus()

	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Results"
	l.SetFilteringEnabled(false) // querying is ours, not the widget's
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)

	return &Model{
		session:   session,
		filters:   filters,
		textInput: ti,
		list:      l,
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen, textinput.Blink}
	if m.textInput.Value() != "" {
		version := m.version
		cmds = append(cmds, func() tea.Msg { return queryMsg{version: version} })
	}
	return tea.Batch(cmds...)
}

// Update handles keystrokes, debounced queries, and mutation refreshes.
//
// Keybindings:
//	Up/Down     - change selection (enriches the newly selected result)
//	Ctrl+R      - force re-query
//	Esc, Ctrl+C - quit
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width/2, m.height-3)
		return m, nil

	case queryMsg:
		if msg.version != m.version {
			return m, nil // superseded by later keystrokes
		}
		m.runQuery()
		return m, nil

	case refreshMsg:
		m.runQuery()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "down":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			m.enrichSelected()
			return m, cmd
		case "ctrl+r":
			m.runQuery()
			return m, nil
		}

		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		m.version++
		version := m.version
		return m, tea.Batch(cmd, tea.Tick(typeDebounce, func(time.Time) tea.Msg {
			return queryMsg{version: version}
		}))
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// runQuery executes the current input and rebuilds the list. The first
// result is enriched immediately since it starts selected.
func (m *Model) runQuery() {
	m.results = m.session.Search(m.textInput.Value(), m.filters)
	items := lo.Map(m.results, func(_ core.GrepResult, i int) list.Item {
		return resultItem{result: m.results[i]}
	})
	m.list.SetItems(items)
	m.list.ResetSelected()
	m.enrichSelected()
}

// enrichSelected lazily derives DOM context for the active selection only.
func (m *Model) enrichSelected() {
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.results) {
		return
	}
	m.session.Enrich(&m.results[idx])
	// The list holds copies; refresh the selected item so the preview and
	// list agree.
	m.list.SetItem(idx, resultItem{result: m.results[idx]})
}

func (m *Model) View() string {
	input := inputStyle.Render(m.textInput.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.preview())
	return lipgloss.JoinVertical(lipgloss.Left, input, body)
}

// preview renders the selected result's context pane.
func (m *Model) preview() string {
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.results) {
		return ""
	}
	res := m.results[idx]

	var b strings.Builder
	b.WriteString(headingStyle.Render(res.Text))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s · score %d · line %d", res.Tag, res.Score, res.LineNumber)))
	b.WriteString("\n")
	if res.Heading != "" {
		b.WriteString(dimStyle.Render("under: " + res.Heading))
		b.WriteString("\n")
	}
	if res.Href != "" {
		b.WriteString(dimStyle.Render(res.Href))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	context := res.DOMContext
	if len(context) == 0 {
		context = res.Context
	}
	b.WriteString(strings.Join(context, "\n"))

	width := m.width - m.width/2 - 4
	if width < 10 {
		width = 10
	}
	return previewStyle.Width(width).Render(b.String())
}

// Run starts the overlay over a started session. Document mutations
// re-run the current query once the engine's debounce has settled.
func Run(session *grep.Session, notifier core.ChangeNotifier, filters []core.Category, initialQuery string) error {
	model := New(session, filters, initialQuery)
	program := tea.NewProgram(model)

	var unsubscribe func()
	if notifier != nil {
		var timer *time.Timer
		unsubscribe = notifier.Subscribe(func() {
			// Fire after the cache's own debounce so the re-query sees the
			// rebuilt index, not the soon-to-be-stale one.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(700*time.Millisecond, func() {
				program.Send(refreshMsg{})
			})
		})
	}
	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
	}()

	_, err := program.Run()
	return err
}
