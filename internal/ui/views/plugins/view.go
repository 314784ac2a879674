package plugins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	plugindto "mobtime/internal/modules/plugin/dto"
	"mobtime/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

// Port is the minimal interface this view needs from the plugin use-case.
type Port interface {
	List(ctx context.Context) ([]plugindto.PluginInfo, error)
	Doctor(ctx context.Context) ([]plugindto.DoctorResult, error)
	Publish(ctx context.Context, input plugindto.PublishInput) ([]plugindto.DeliveryResult, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// ListedMsg is sent when the manifest list finishes loading.
type ListedMsg struct {
	Plugins []plugindto.PluginInfo
	Err     error
}

// DoctorDoneMsg is sent when every plugin has been checked.
type DoctorDoneMsg struct {
	Results []plugindto.DoctorResult
	Err     error
}

// PingDoneMsg is sent when a test notification has been delivered.
type PingDoneMsg struct {
	Results []plugindto.DeliveryResult
	Err     error
}

// ─── list item ───────────────────────────────────────────────────────────────

type pluginItem struct{ info plugindto.PluginInfo }

func (i pluginItem) Title() string {
	if !i.info.Enabled {
		return i.info.Name + " (disabled)"
	}
	return i.info.Name
}
func (i pluginItem) Description() string {
	return i.info.Version + "  [" + strings.Join(i.info.Events, ", ") + "]"
}
func (i pluginItem) FilterValue() string { return i.info.Name }

// ─── pane ────────────────────────────────────────────────────────────────────

type pane int

const (
	paneList   pane = iota
	panePing        // user types a test message
	paneOutput      // doctor or ping report
)

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the self-contained Bubble Tea model for the Plugins tab.
type Model struct {
	port      Port
	pane      pane
	list      list.Model
	pingInput textinput.Model
	output    viewport.Model
	spinner   spinner.Model
	loading   bool
	width     int
	height    int
}

func New(port Port) Model {
	ti := textinput.New()
	ti.Placeholder = "test message"
	ti.CharLimit = 200

	l := list.New(nil, theme.ListDelegate(), 0, 0)
	l.Title = "Hook plugins"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, pingInput: ti, output: vp, spinner: sp}
}

// Filtering reports whether keys must go to this view unfiltered.
func (m Model) Filtering() bool {
	return m.pane == panePing || m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return m.listCmd()
}

// RunDoctor checks every plugin and shows the report; used by the palette.
func (m *Model) RunDoctor() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	return tea.Batch(m.doctorCmd(), m.spinner.Tick)
}

// Ping delivers a test notification; used by the palette.
func (m *Model) Ping(message string) tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.loading = true
	return tea.Batch(m.pingCmd(message), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case ListedMsg:
		if msg.Err != nil {
			m.output.SetContent(theme.Error.Render("Error loading plugins: " + msg.Err.Error()))
			m.pane = paneOutput
			return m, nil
		}
		items := make([]list.Item, len(msg.Plugins))
		for i, p := range msg.Plugins {
			items[i] = pluginItem{info: p}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case DoctorDoneMsg:
		m.loading = false
		if msg.Err != nil {
			m.output.SetContent(theme.Error.Render("Error: " + msg.Err.Error()))
		} else {
			m.output.SetContent(renderDoctor(msg.Results))
		}
		m.output.GotoTop()
		m.pane = paneOutput

	case PingDoneMsg:
		m.loading = false
		if msg.Err != nil {
			m.output.SetContent(theme.Error.Render("Error: " + msg.Err.Error()))
		} else {
			m.output.SetContent(renderDeliveries(msg.Results))
		}
		m.output.GotoTop()
		m.pane = paneOutput

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch m.pane {
		case paneList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "D":
				return m, m.RunDoctor()
			case "p":
				m.pane = panePing
				m.pingInput.SetValue("")
				return m, m.pingInput.Focus()
			case "R":
				return m, m.listCmd()
			}

		case panePing:
			switch msg.String() {
			case "esc":
				m.pane = paneList
				m.pingInput.Blur()
				return m, nil
			case "enter":
				message := strings.TrimSpace(m.pingInput.Value())
				m.pingInput.Blur()
				m.pane = paneList
				if message == "" {
					message = "ping from mobtime"
				}
				return m, m.Ping(message)
			}
			var cmd tea.Cmd
			m.pingInput, cmd = m.pingInput.Update(msg)
			return m, cmd

		case paneOutput:
			if msg.String() == "esc" {
				m.pane = paneList
				return m, nil
			}
			var vCmd tea.Cmd
			m.output, vCmd = m.output.Update(msg)
			return m, vCmd
		}
	}

	if m.pane == paneList {
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Talking to plugins…")
	}
	switch m.pane {
	case panePing:
		hint := theme.Muted.Render("Message to deliver to every notification hook.\n\n")
		input := lipgloss.NewStyle().Width(m.width - 4).Render(m.pingInput.View())
		return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Center, hint+input)
	case paneOutput:
		hint := theme.Muted.Render("esc: back  ↑/↓: scroll\n")
		m.output.Height = max(m.height-lipgloss.Height(hint), 1)
		return lipgloss.JoinVertical(lipgloss.Left, hint, m.output.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		theme.Muted.Render("D: doctor  p: ping  R: reload  /: filter"))
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	m.list.SetSize(m.width, max(m.height-2, 1))
	m.output.Width = m.width - 4
	m.output.Height = m.height - 4
}

func renderDoctor(results []plugindto.DoctorResult) string {
	if len(results) == 0 {
		return theme.Muted.Render("no plugins installed")
	}
	mark := func(ok bool) string {
		if ok {
			return "ok"
		}
		return theme.Error.Render("fail")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Doctor") + "\n\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "%s\n  manifest %s  binary %s  checksum %s  handshake %s\n",
			r.Name, mark(r.ManifestValid), mark(r.BinaryReachable), mark(r.ChecksumValid), mark(r.HandshakeOK))
		if r.Reported != "" {
			sb.WriteString("  " + theme.Muted.Render("reports "+r.Reported) + "\n")
		}
		if r.Error != "" {
			sb.WriteString("  " + theme.Muted.Render(r.Error) + "\n")
		}
	}
	return sb.String()
}

func renderDeliveries(results []plugindto.DeliveryResult) string {
	if len(results) == 0 {
		return theme.Muted.Render("no enabled plugin handles notifications")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Ping") + "\n\n")
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(&sb, "%s  %s\n", r.Plugin, theme.Error.Render(r.Error))
		case r.Accepted:
			fmt.Fprintf(&sb, "%s  accepted %s\n", r.Plugin, theme.Muted.Render(r.Detail+" in "+r.Duration.Round(time.Millisecond).String()))
		default:
			fmt.Fprintf(&sb, "%s  rejected %s\n", r.Plugin, theme.Muted.Render(r.Detail))
		}
	}
	return sb.String()
}

func (m Model) listCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		plugins, err := port.List(context.Background())
		return ListedMsg{Plugins: plugins, Err: err}
	}
}

func (m Model) doctorCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		results, err := port.Doctor(context.Background())
		return DoctorDoneMsg{Results: results, Err: err}
	}
}

func (m Model) pingCmd(message string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		results, err := port.Publish(context.Background(), plugindto.PublishInput{
			Kind:       plugindto.KindNotification,
			OccurredAt: time.Now(),
			Message:    message,
		})
		return PingDoneMsg{Results: results, Err: err}
	}
}
