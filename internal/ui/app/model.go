package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	plugindto "mobtime/internal/modules/plugin/dto"
	sessiondto "mobtime/internal/modules/session/dto"
	"mobtime/internal/ui/components"
	"mobtime/internal/ui/theme"
	historyview "mobtime/internal/ui/views/history"
	pluginsview "mobtime/internal/ui/views/plugins"
	rosterview "mobtime/internal/ui/views/roster"
	timerview "mobtime/internal/ui/views/timer"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type sessionPort interface {
	Status(ctx context.Context) (sessiondto.StatusOutput, error)
	Start(ctx context.Context) (sessiondto.StatusOutput, error)
	Stop(ctx context.Context) (sessiondto.StatusOutput, error)
	Toggle(ctx context.Context) (sessiondto.StatusOutput, error)
	Reset(ctx context.Context) (sessiondto.StatusOutput, error)
	Tick(ctx context.Context) (sessiondto.StatusOutput, error)
	Shuffle(ctx context.Context) (sessiondto.StatusOutput, error)
	AddParticipant(ctx context.Context, input sessiondto.AddParticipantInput) (sessiondto.StatusOutput, error)
	RemoveParticipant(ctx context.Context, username string) (sessiondto.StatusOutput, error)
	SetInterval(ctx context.Context, input sessiondto.IntervalInput) (sessiondto.StatusOutput, error)
	SetIntervalField(ctx context.Context, input sessiondto.IntervalFieldInput) (sessiondto.StatusOutput, error)
	SetSound(ctx context.Context, enabled bool) (sessiondto.StatusOutput, error)
	SetNotification(ctx context.Context, enabled bool) (sessiondto.StatusOutput, error)
	ProbeAvatars(ctx context.Context) (sessiondto.ProbeOutput, error)
	History(ctx context.Context, limit int) ([]sessiondto.RotationOutput, error)
	ExportHistory(ctx context.Context, dir string, limit int) (sessiondto.ExportOutput, error)
}

type pluginPort interface {
	List(ctx context.Context) ([]plugindto.PluginInfo, error)
	Doctor(ctx context.Context) ([]plugindto.DoctorResult, error)
	Publish(ctx context.Context, input plugindto.PublishInput) ([]plugindto.DeliveryResult, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabMob
	tabHistory
	tabPlugins
	tabCount
)

var tabLabels = [tabCount]string{
	"Timer", "Mob", "History", "Plugins",
}

// ─── async messages ───────────────────────────────────────────────────────────

type tickMsg time.Time

type probeDoneMsg struct {
	out sessiondto.ProbeOutput
	err error
}

type exportDoneMsg struct {
	out sessiondto.ExportOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	BackTab key.Binding
	Jump    key.Binding
	Toggle  key.Binding
	Reset   key.Binding
	Sound   key.Binding
	Notify  key.Binding
	Probe   key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		BackTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous tab")),
		Jump:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "go to tab")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/stop")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset timer")),
		Sound:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle sound")),
		Notify:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "toggle notification")),
		Probe:   key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "check avatars")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.Tab, k.BackTab, k.Jump},
		{k.Sound, k.Notify, k.Probe},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the countdown
// tick, the global help overlay, and the command palette. Session state is
// always the last StatusOutput returned by the session port.
type Model struct {
	session sessionPort

	timerView   timerview.Model
	rosterView  rosterview.Model
	historyView historyview.Model
	pluginView  pluginsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	current   sessiondto.StatusOutput
	tickEvery time.Duration
	ticking   bool
	status    string
	failed    bool
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

// NewModel wires the tabs. tickEvery is how often the countdown is refreshed
// while the session runs; no tick is scheduled while idle.
func NewModel(session sessionPort, plugin pluginPort, tickEvery time.Duration) Model {
	if tickEvery <= 0 {
		tickEvery = time.Second
	}
	return Model{
		session:     session,
		timerView:   timerview.New(session),
		rosterView:  rosterview.New(session),
		historyView: historyview.New(session),
		pluginView:  pluginsview.New(plugin),
		tickEvery:   tickEvery,
		activeTab:   tabTimer,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.statusCmd(""),
		m.historyView.Init(),
		m.pluginView.Init(),
		m.probeCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case components.StatusMsg:
		return m.applyStatus(msg)

	case tickMsg:
		m.ticking = false
		if !m.current.Active {
			return m, nil
		}
		return m, m.call("", m.session.Tick)

	case probeDoneMsg:
		switch {
		case msg.err != nil:
			m.report("avatar check: "+msg.err.Error(), true)
		case len(msg.out.Failed) > 0:
			m.report("avatar fallback for "+strings.Join(msg.out.Failed, ", "), false)
		}
		return m, m.statusCmd("")

	case exportDoneMsg:
		if msg.err != nil {
			m.report("export failed: "+msg.err.Error(), true)
		} else {
			m.report(fmt.Sprintf("exported %d rotation(s) to %s", msg.out.Rotations, msg.out.Path), false)
		}
		return m, nil

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case pluginsview.ListedMsg, pluginsview.DoctorDoneMsg, pluginsview.PingDoneMsg:
		var cmd tea.Cmd
		m.pluginView, cmd = m.pluginView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.report("ready", false)
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.Type == tea.KeyEsc {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the sub-view while it captures text input.
		if m.subViewCapturing() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.BackTab):
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Jump):
			m.activeTab = tabID(msg.Runes[0] - '1')
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Toggle):
			return m, m.call("", m.session.Toggle)
		case key.Matches(msg, m.keys.Reset):
			return m, m.call("timer reset", m.session.Reset)
		case key.Matches(msg, m.keys.Sound):
			return m, m.setSoundCmd(!m.current.SoundEnabled)
		case key.Matches(msg, m.keys.Notify):
			return m, m.setNotificationCmd(!m.current.NotificationEnabled)
		case key.Matches(msg, m.keys.Probe):
			return m, m.probeCmd()
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, tabCmd = m.timerView.Update(msg)
	case tabMob:
		m.rosterView, tabCmd = m.rosterView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	case tabPlugins:
		m.pluginView, tabCmd = m.pluginView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// applyStatus records a fresh status, schedules the next tick while the
// session runs and reloads history after a rotation.
func (m Model) applyStatus(msg components.StatusMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.report(msg.Err.Error(), true)
		return m, nil
	}
	var cmds []tea.Cmd
	prev := m.current
	m.current = msg.Status
	m.timerView.SetStatus(msg.Status)
	cmds = append(cmds, m.rosterView.SetStatus(msg.Status))

	if rotated(prev, msg.Status) {
		m.report("rotate! "+driverOf(msg.Status)+" drives", false)
		cmds = append(cmds, m.historyView.Reload())
	} else if msg.Note != "" {
		m.report(msg.Note, false)
	}

	if m.current.Active && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tea.Tick(m.tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) }))
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

var (
	barStyle  = lipgloss.NewStyle().Background(theme.Mantle)
	tabActive = lipgloss.NewStyle().Foreground(theme.Base).Background(theme.Lavender).Bold(true).Padding(0, 1)
	tabIdle   = lipgloss.NewStyle().Foreground(theme.Subtext0).Padding(0, 1)
)

func (m Model) View() string {
	header := m.header()
	footer := m.footer()
	bodyH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	switch {
	case m.showHelp:
		body = lipgloss.Place(m.width, bodyH, lipgloss.Left, lipgloss.Top, m.help.View(m.keys))
	case m.palette.Visible():
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		body = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabMob:
		return m.rosterView.View()
	case tabHistory:
		return m.historyView.View()
	case tabPlugins:
		return m.pluginView.View()
	default:
		return m.timerView.View()
	}
}

// header lists the tabs and shows who drives on the right.
func (m Model) header() string {
	tabs := make([]string, 0, tabCount)
	for id, label := range tabLabels {
		style := tabIdle
		if tabID(id) == m.activeTab {
			style = tabActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%d %s", id+1, label)))
	}
	left := theme.Title.Render("mobtime ") + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	var right string
	if driver := driverOf(m.current); driver != "" {
		right = theme.Muted.Render("driving ") + theme.Driver.Render(driver)
	}
	return barStyle.Width(m.width).Render(spread(left, right, m.width)) + "\n"
}

// footer carries the countdown while running, the last status line and the
// key hints.
func (m Model) footer() string {
	msg := m.status
	if m.failed {
		msg = theme.Error.Render(msg)
	}
	if m.current.Active {
		msg = theme.Countdown(m.current.RemainingSeconds, true).Render("● "+m.current.Remaining) + "  " + msg
	}
	hints := theme.Muted.Render("?:help  1-4:tabs  ::command  q:quit")
	return "\n" + barStyle.Width(m.width).Render(spread(msg, hints, m.width))
}

func spread(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "start":
		return m, m.call("", m.session.Start)

	case "stop":
		return m, m.call("", m.session.Stop)

	case "reset":
		return m, m.call("timer reset", m.session.Reset)

	case "shuffle":
		return m, m.call("shuffled", m.session.Shuffle)

	case "add":
		if arg == "" {
			m.report(usage(parts[0]), true)
			return m, nil
		}
		return m, m.call("added "+arg, func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.AddParticipant(ctx, sessiondto.AddParticipantInput{Username: arg})
		})

	case "remove":
		if arg == "" {
			m.report(usage(parts[0]), true)
			return m, nil
		}
		return m, m.call("removed "+arg, func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.RemoveParticipant(ctx, arg)
		})

	case "interval":
		if len(parts) != 4 {
			m.report(usage(parts[0]), true)
			return m, nil
		}
		in := sessiondto.IntervalInput{Hours: parts[1], Minutes: parts[2], Seconds: parts[3]}
		return m, m.call("interval updated", func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.SetInterval(ctx, in)
		})

	case "sound", "notify":
		enabled, ok := parseOnOff(arg)
		if !ok {
			m.report(usage(parts[0]), true)
			return m, nil
		}
		if parts[0] == "sound" {
			return m, m.setSoundCmd(enabled)
		}
		return m, m.setNotificationCmd(enabled)

	case "probe":
		return m, m.probeCmd()

	case "export":
		if arg == "" {
			m.report(usage(parts[0]), true)
			return m, nil
		}
		return m, m.exportCmd(arg)

	case "plugin:doctor":
		m.activeTab = tabPlugins
		return m, m.pluginView.RunDoctor()

	case "plugin:ping":
		if arg == "" {
			arg = "ping from mobtime"
		}
		m.activeTab = tabPlugins
		return m, m.pluginView.Ping(arg)

	default:
		m.report("unknown command: "+parts[0], true)
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// report sets the status line; failed renders it as an error.
func (m *Model) report(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func usage(verb string) string {
	for _, c := range components.PaletteCommands {
		if c.Name == verb {
			return strings.TrimSpace("usage: " + c.Name + " " + c.Args)
		}
	}
	return "unknown command: " + verb
}

// subViewCapturing reports whether the active tab is taking free text, in
// which case global key bindings must yield.
func (m Model) subViewCapturing() bool {
	switch m.activeTab {
	case tabTimer:
		return m.timerView.Editing()
	case tabMob:
		return m.rosterView.Typing()
	case tabHistory:
		return m.historyView.Filtering()
	case tabPlugins:
		return m.pluginView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timerView, _ = m.timerView.Update(sz)
	m.rosterView, _ = m.rosterView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.pluginView, _ = m.pluginView.Update(sz)
}

// rotated reports whether next is the result of an automatic rotation: the
// countdown stopped on its own and the driver changed.
func rotated(prev, next sessiondto.StatusOutput) bool {
	return prev.Active && !next.Active && next.Intervals == 0 &&
		driverOf(prev) != "" && driverOf(prev) != driverOf(next)
}

func driverOf(s sessiondto.StatusOutput) string {
	if len(s.Participants) == 0 {
		return ""
	}
	return s.Participants[0].Username
}

func parseOnOff(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, true
	case "off", "false", "no", "0":
		return false, true
	}
	return false, false
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) call(note string, fn func(context.Context) (sessiondto.StatusOutput, error)) tea.Cmd {
	return func() tea.Msg {
		status, err := fn(context.Background())
		return components.StatusMsg{Status: status, Note: note, Err: err}
	}
}

func (m Model) statusCmd(note string) tea.Cmd {
	return m.call(note, m.session.Status)
}

func (m Model) setSoundCmd(enabled bool) tea.Cmd {
	note := "sound off"
	if enabled {
		note = "sound on"
	}
	return m.call(note, func(ctx context.Context) (sessiondto.StatusOutput, error) {
		return m.session.SetSound(ctx, enabled)
	})
}

func (m Model) setNotificationCmd(enabled bool) tea.Cmd {
	note := "notification off"
	if enabled {
		note = "notification on"
	}
	return m.call(note, func(ctx context.Context) (sessiondto.StatusOutput, error) {
		return m.session.SetNotification(ctx, enabled)
	})
}

func (m Model) probeCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.ProbeAvatars(context.Background())
		return probeDoneMsg{out: out, err: err}
	}
}

func (m Model) exportCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.ExportHistory(context.Background(), dir, 0)
		return exportDoneMsg{out: out, err: err}
	}
}
