package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "mobtime/internal/modules/session/dto"
	"mobtime/internal/ui/components"
	"mobtime/internal/ui/theme"
)

// Port is the minimal interface this view needs from the session use-case.
type Port interface {
	AddParticipant(ctx context.Context, input sessiondto.AddParticipantInput) (sessiondto.StatusOutput, error)
	RemoveParticipant(ctx context.Context, username string) (sessiondto.StatusOutput, error)
	Shuffle(ctx context.Context) (sessiondto.StatusOutput, error)
}

type participantItem struct {
	p     sessiondto.ParticipantOutput
	index int
}

func (i participantItem) Title() string {
	label := fmt.Sprintf("%d. %s", i.index+1, i.p.Username)
	if i.p.Role != "" {
		label += "  [" + i.p.Role + "]"
	}
	return label
}
func (i participantItem) Description() string { return i.p.AvatarURL }
func (i participantItem) FilterValue() string { return i.p.Username }

// Model is the Mob tab: the rotation order plus the add-participant input.
type Model struct {
	port   Port
	list   list.Model
	input  textinput.Model
	adding bool
	width  int
	height int
}

func New(port Port) Model {
	ti := textinput.New()
	ti.Placeholder = "username"
	ti.Prompt = "+ "
	ti.CharLimit = 39

	l := list.New(nil, theme.ListDelegate(), 0, 0)
	l.Title = "Mob"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.SetStatusBarItemName("participant", "participants")

	return Model{port: port, list: l, input: ti}
}

// SetStatus rebuilds the list from the current rotation order, keeping the
// cursor in range.
func (m *Model) SetStatus(status sessiondto.StatusOutput) tea.Cmd {
	items := make([]list.Item, len(status.Participants))
	for i, p := range status.Participants {
		items[i] = participantItem{p: p, index: i}
	}
	return m.list.SetItems(items)
}

// Typing reports whether keys must go to this view unfiltered.
func (m Model) Typing() bool {
	return m.adding || m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-3, 1))
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			switch msg.String() {
			case "esc":
				m.adding = false
				m.input.Blur()
				m.input.SetValue("")
				return m, nil
			case "enter":
				name := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if name == "" {
					return m, nil
				}
				return m, m.addCmd(name)
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "a":
				m.adding = true
				return m, m.input.Focus()
			case "d", "x":
				if item, ok := m.list.SelectedItem().(participantItem); ok {
					return m, m.removeCmd(item.p.Username)
				}
				return m, nil
			case "S":
				return m, m.shuffleCmd()
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var footer string
	if m.adding {
		footer = m.input.View() + "\n" + theme.Muted.Render("enter: add (stays open)  esc: done")
	} else {
		footer = theme.Muted.Render("a: add  d: remove  S: shuffle  /: filter")
	}
	body := lipgloss.NewStyle().Height(max(m.height-3, 1)).Render(m.list.View())
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m Model) addCmd(name string) tea.Cmd {
	return m.call("added "+name, func(ctx context.Context) (sessiondto.StatusOutput, error) {
		return m.port.AddParticipant(ctx, sessiondto.AddParticipantInput{Username: name})
	})
}

func (m Model) removeCmd(name string) tea.Cmd {
	return m.call("removed "+name, func(ctx context.Context) (sessiondto.StatusOutput, error) {
		return m.port.RemoveParticipant(ctx, name)
	})
}

func (m Model) shuffleCmd() tea.Cmd {
	return m.call("shuffled", func(ctx context.Context) (sessiondto.StatusOutput, error) {
		return m.port.Shuffle(ctx)
	})
}

func (m Model) call(note string, fn func(context.Context) (sessiondto.StatusOutput, error)) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return components.StatusMsg{Err: fmt.Errorf("session is not configured")}
		}
		status, err := fn(context.Background())
		return components.StatusMsg{Status: status, Note: note, Err: err}
	}
}
