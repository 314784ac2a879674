package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mobtime/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

// PaletteCommand documents one palette verb. The app model executes them.
type PaletteCommand struct {
	Name string
	Args string
	Help string
}

// PaletteCommands must stay in sync with executePalette in app/model.go.
var PaletteCommands = []PaletteCommand{
	{Name: "start", Help: "start the countdown"},
	{Name: "stop", Help: "pause the countdown"},
	{Name: "reset", Help: "stop and clear elapsed time"},
	{Name: "add", Args: "<username>", Help: "append a participant"},
	{Name: "remove", Args: "<username>", Help: "drop a participant"},
	{Name: "shuffle", Help: "randomise the order"},
	{Name: "interval", Args: "<hours> <minutes> <seconds>", Help: "set the rotation interval"},
	{Name: "sound", Args: "<on|off>", Help: "rotation sound"},
	{Name: "notify", Args: "<on|off>", Help: "desktop notification"},
	{Name: "probe", Help: "re-check participant avatars"},
	{Name: "export", Args: "<dir>", Help: "write history to markdown"},
	{Name: "plugin:doctor", Help: "check hook plugins"},
	{Name: "plugin:ping", Args: "[message]", Help: "send a test notification"},
}

const (
	maxSuggestions = 6
	maxHistory     = 20
)

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	commandStyle = lipgloss.NewStyle().Foreground(theme.Lavender)
)

// Palette is a command line overlay. Tab completes the command name and
// up/down walk through earlier submissions.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	history []string
	cursor  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "command (tab completes)"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.cursor = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// Value is the current input.
func (p Palette) Value() string { return p.input.Value() }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.remember(val)
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			p.complete()
			return p, nil
		case "up":
			p.recall(-1)
			return p, nil
		case "down":
			p.recall(1)
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) remember(val string) {
	if val == "" || (len(p.history) > 0 && p.history[len(p.history)-1] == val) {
		return
	}
	p.history = append(p.history, val)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
}

func (p *Palette) recall(step int) {
	if len(p.history) == 0 {
		return
	}
	p.cursor = min(max(p.cursor+step, 0), len(p.history))
	if p.cursor == len(p.history) {
		p.input.SetValue("")
		return
	}
	p.input.SetValue(p.history[p.cursor])
	p.input.CursorEnd()
}

// complete fills in the command name when exactly one command matches the
// typed prefix, or the longest prefix the matches share.
func (p *Palette) complete() {
	typed := strings.ToLower(p.input.Value())
	if strings.Contains(typed, " ") {
		return
	}
	matches := matchCommands(typed)
	if len(matches) == 0 {
		return
	}
	if len(matches) == 1 {
		completion := matches[0].Name
		if matches[0].Args != "" {
			completion += " "
		}
		p.input.SetValue(completion)
		p.input.CursorEnd()
		return
	}
	prefix := matches[0].Name
	for _, c := range matches[1:] {
		for !strings.HasPrefix(c.Name, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	p.input.SetValue(prefix)
	p.input.CursorEnd()
}

func matchCommands(typed string) []PaletteCommand {
	verb, _, _ := strings.Cut(strings.TrimSpace(typed), " ")
	var out []PaletteCommand
	for _, c := range PaletteCommands {
		if strings.HasPrefix(c.Name, verb) {
			out = append(out, c)
		}
	}
	return out
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")

	matches := matchCommands(strings.ToLower(p.input.Value()))
	if len(matches) > 0 {
		sb.WriteString("\n")
	}
	for i, c := range matches {
		if i == maxSuggestions {
			sb.WriteString(theme.Muted.Render("  …") + "\n")
			break
		}
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		sb.WriteString("  " + commandStyle.Render(usage) + theme.Muted.Render("  "+c.Help) + "\n")
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
