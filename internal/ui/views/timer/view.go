package timer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	sessiondto "mobtime/internal/modules/session/dto"
	"mobtime/internal/ui/components"
	"mobtime/internal/ui/theme"
)

// Port is the slice of the session use-case this view needs.
type Port interface {
	SetIntervalField(ctx context.Context, input sessiondto.IntervalFieldInput) (sessiondto.StatusOutput, error)
}

var fields = [3]string{"hours", "minutes", "seconds"}

// Model renders the countdown and owns the interval editor.
type Model struct {
	port    Port
	status  sessiondto.StatusOutput
	bar     progress.Model
	inputs  [3]textinput.Model
	focus   int
	editing bool
	width   int
	height  int
}

func New(port Port) Model {
	bar := progress.New(progress.WithSolidFill(string(theme.Lavender)), progress.WithoutPercentage())
	var inputs [3]textinput.Model
	for i, name := range fields {
		ti := textinput.New()
		ti.Prompt = name + ": "
		ti.CharLimit = 4
		ti.Width = 6
		inputs[i] = ti
	}
	return Model{port: port, bar: bar, inputs: inputs}
}

// SetStatus replaces the displayed status. The editor keeps its own values
// while open.
func (m *Model) SetStatus(status sessiondto.StatusOutput) {
	m.status = status
}

// Editing reports whether the interval editor has focus, in which case the
// parent must forward every key here.
func (m Model) Editing() bool { return m.editing }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		if !m.editing {
			if msg.String() == "e" {
				return m, m.openEditor()
			}
			return m, nil
		}
		switch msg.String() {
		case "esc":
			m.closeEditor()
			return m, nil
		case "tab", "down":
			return m, m.focusField((m.focus + 1) % len(m.inputs))
		case "shift+tab", "up":
			return m, m.focusField((m.focus + len(m.inputs) - 1) % len(m.inputs))
		case "enter":
			field, value := fields[m.focus], m.inputs[m.focus].Value()
			if m.focus < len(m.inputs)-1 {
				return m, tea.Batch(m.applyCmd(field, value), m.focusField(m.focus+1))
			}
			m.closeEditor()
			return m, m.applyCmd(field, value)
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) openEditor() tea.Cmd {
	m.editing = true
	parts := strings.Split(m.status.Interval, ":")
	for i := range m.inputs {
		if len(parts) == len(m.inputs) {
			m.inputs[i].SetValue(strings.TrimLeft(parts[i], "0"))
		}
		if m.inputs[i].Value() == "" {
			m.inputs[i].SetValue("0")
		}
	}
	return m.focusField(0)
}

func (m *Model) closeEditor() {
	m.editing = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) focusField(i int) tea.Cmd {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focus = i
	return m.inputs[i].Focus()
}

func (m Model) applyCmd(field, value string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return components.StatusMsg{Err: fmt.Errorf("session is not configured")}
		}
		status, err := m.port.SetIntervalField(context.Background(), sessiondto.IntervalFieldInput{Field: field, Value: value})
		return components.StatusMsg{Status: status, Err: err, Note: "interval " + status.Interval}
	}
}

func (m Model) View() string {
	s := m.status
	state := theme.Idle.Render("● idle")
	if s.Active {
		state = theme.Running.Render("● running")
	}

	remaining := theme.Countdown(s.RemainingSeconds, s.Active).Render(s.Remaining)
	fraction := 0.0
	if s.IntervalSeconds > 0 {
		fraction = float64(s.ElapsedSeconds) / float64(s.IntervalSeconds)
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Rotation") + "  " + state + "\n\n")
	sb.WriteString("  " + remaining + theme.Muted.Render(" left of "+s.Interval) + "\n\n")
	sb.WriteString("  " + m.bar.ViewAs(min(fraction, 1)) + "\n\n")
	sb.WriteString(fmt.Sprintf("  elapsed %s over %d stint(s)\n\n", s.Elapsed, s.Intervals))
	sb.WriteString(m.rolesView() + "\n")
	sb.WriteString(m.alertsView() + "\n\n")
	if m.editing {
		sb.WriteString(theme.Title.Render("Interval") + "\n")
		for _, in := range m.inputs {
			sb.WriteString("  " + in.View() + "\n")
		}
		sb.WriteString(theme.Muted.Render("  enter: apply  tab: next field  esc: close"))
	} else {
		sb.WriteString(theme.Muted.Render("  space: start/stop  r: reset  e: edit interval"))
	}

	style := theme.Pane
	if s.Active {
		style = theme.PaneActive
	}
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(sb.String())
}

func (m Model) rolesView() string {
	driver, navigator := "-", "-"
	for _, p := range m.status.Participants {
		switch p.Role {
		case "driver":
			driver = p.Username
		case "navigator":
			navigator = p.Username
		}
	}
	return fmt.Sprintf("  %s %s   %s %s",
		theme.Muted.Render("driver"), theme.Driver.Render(driver),
		theme.Muted.Render("navigator"), theme.Navigator.Render(navigator))
}

func (m Model) alertsView() string {
	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	return theme.Muted.Render(fmt.Sprintf("  sound %s (m)  notification %s (n)", onOff(m.status.SoundEnabled), onOff(m.status.NotificationEnabled)))
}
