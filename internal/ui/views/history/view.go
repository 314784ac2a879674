package history

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "mobtime/internal/modules/session/dto"
	"mobtime/internal/ui/theme"
)

const pageSize = 200

// Port is the minimal interface this view needs from the session use-case.
type Port interface {
	History(ctx context.Context, limit int) ([]sessiondto.RotationOutput, error)
}

// LoadedMsg is sent when the rotation history finishes loading.
type LoadedMsg struct {
	Rotations []sessiondto.RotationOutput
	Err       error
}

type rotationItem struct{ r sessiondto.RotationOutput }

func (i rotationItem) Title() string {
	return fmt.Sprintf("%s → %s", i.r.Previous, i.r.Next)
}
func (i rotationItem) Description() string {
	return i.r.RotatedAt.Local().Format("2006-01-02 15:04:05") + "  after " + i.r.Elapsed
}
func (i rotationItem) FilterValue() string { return i.r.Previous + " " + i.r.Next }

// Model is the History tab.
type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
}

func New(port Port) Model {
	l := list.New(nil, theme.ListDelegate(), 0, 0)
	l.Title = "Rotations"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.SetStatusBarItemName("rotation", "rotations")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp}
}

func (m Model) Init() tea.Cmd { return m.Reload() }

// Reload fetches the most recent rotations.
func (m *Model) Reload() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		rotations, err := port.History(context.Background(), pageSize)
		return LoadedMsg{Rotations: rotations, Err: err}
	})
}

// Filtering reports whether the list's search filter is active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-2, 1))
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Rotations))
		for i, r := range msg.Rotations {
			items[i] = rotationItem{r: r}
		}
		return m, m.list.SetItems(items)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "R" && !m.Filtering() {
			return m, m.Reload()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	switch {
	case m.loading:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading rotations…")
	case m.err != nil:
		return theme.Error.Render("history unavailable: " + m.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		theme.Muted.Render("R: reload  /: filter"))
}
