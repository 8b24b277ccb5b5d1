package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/tempfetch/pkg/download"
	"github.com/glorpus-work/tempfetch/pkg/handoff"
	"github.com/glorpus-work/tempfetch/pkg/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#909090"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	logStyle     = lipgloss.NewStyle().Faint(true)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#333333")).Padding(0, 1)
)

type tuiKeyMap struct {
	Start   key.Binding
	Stop    key.Binding
	Deliver key.Binding
	Edit    key.Binding
	Quit    key.Binding
}

func defaultTUIKeyMap() tuiKeyMap {
	return tuiKeyMap{
		Start:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "download")),
		Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Deliver: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deliver")),
		Edit:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit url")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k tuiKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Deliver, k.Edit, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k tuiKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type sessionEventMsg session.Event

type transferDoneMsg struct {
	res download.Result
	err error
}

type deliveredMsg struct {
	path  string
	bytes int64
	err   error
}

// collectMsg runs the deferred deletion one update cycle after consumption.
type collectMsg struct{}

type tuiModel struct {
	ctx    context.Context
	sess   *session.Session
	events <-chan session.Event
	output string

	input textinput.Model
	bar   progress.Model
	help  help.Model
	keys  tuiKeyMap

	state      session.State
	delivering bool
	quitting   bool
	info       string
	err        error
}

func newTUIModel(ctx context.Context, sess *session.Session, events <-chan session.Event, initialURL, output string) tuiModel {
	input := textinput.New()
	input.Placeholder = "https://example.com/file.bin"
	input.Prompt = "URL: "
	input.CharLimit = 2048
	input.Width = 60
	input.SetValue(initialURL)
	input.Focus()

	return tuiModel{
		ctx:    ctx,
		sess:   sess,
		events: events,
		output: output,
		input:  input,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(ProgressBarWidth)),
		help:   help.New(),
		keys:   defaultTUIKeyMap(),
		state:  sess.Snapshot(),
	}
}

// Init implements tea.Model.
func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg(ev)
	}
}

func (m tuiModel) startTransfer(rawURL string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.sess.Start(m.ctx, rawURL)
		return transferDoneMsg{res: res, err: err}
	}
}

func (m tuiModel) deliver(path string) tea.Cmd {
	return func() tea.Msg {
		n, err := handoff.Deliver(m.ctx, m.output, "", path)
		return deliveredMsg{path: path, bytes: n, err: err}
	}
}

// Update implements tea.Model.
func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), ProgressBarWidth*2)
		m.help.Width = msg.Width
		return m, nil

	case sessionEventMsg:
		m.state = m.sess.Snapshot()
		return m, waitForEvent(m.events)

	case transferDoneMsg:
		m.state = m.sess.Snapshot()
		if msg.err != nil {
			m.err = msg.err
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case deliveredMsg:
		m.delivering = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if err := m.sess.MarkConsumed(msg.path); err != nil {
			m.err = err
			return m, nil
		}
		m.info = fmt.Sprintf("Delivered %s to %s", humanize.IBytes(uint64(msg.bytes)), m.output)
		m.state = m.sess.Snapshot()
		return m, func() tea.Msg { return collectMsg{} }

	case collectMsg:
		if err := m.sess.CollectGarbage(); err != nil {
			m.err = err
		}
		m.state = m.sess.Snapshot()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || (!m.input.Focused() && key.Matches(msg, m.keys.Quit)) {
		return m.quit()
	}

	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.Start):
			return m.submit()
		case key.Matches(msg, m.keys.Edit):
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		if m.state.Downloading || m.delivering {
			return m, nil
		}
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Start):
		return m.submit()

	case key.Matches(msg, m.keys.Stop):
		if err := m.sess.Stop(); err != nil {
			m.err = err
		}
		return m, nil

	case key.Matches(msg, m.keys.Deliver):
		return m.startDelivery()
	}

	return m, nil
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	rawURL := strings.TrimSpace(m.input.Value())
	m.err = nil
	m.info = ""

	if !download.IsValidURL(rawURL) {
		m.err = fmt.Errorf("invalid URL format: enter a valid HTTP or HTTPS URL")
		return m, nil
	}
	// a new transfer would discard the artifact being handed off
	if m.state.Downloading || m.delivering {
		return m, nil
	}

	m.input.Blur()
	m.state.Downloading = true
	return m, m.startTransfer(rawURL)
}

func (m tuiModel) startDelivery() (tea.Model, tea.Cmd) {
	if m.delivering || m.state.Downloading || m.state.Artifact == nil {
		return m, nil
	}
	if m.output == "" {
		m.err = fmt.Errorf("no destination: start the tui with --output")
		return m, nil
	}
	m.delivering = true
	m.err = nil
	return m, m.deliver(m.state.Artifact.Path)
}

func (m tuiModel) quit() (tea.Model, tea.Cmd) {
	if m.state.Downloading {
		m.quitting = true
		_ = m.sess.Stop()
		return m, nil
	}
	return m, tea.Quit
}

// View implements tea.Model.
func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tempfetch"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	st := m.state
	switch {
	case st.Downloading && !st.ProgressKnown:
		b.WriteString(labelStyle.Render("Downloading, size unknown..."))
	default:
		b.WriteString(m.bar.ViewAs(st.Progress))
	}
	b.WriteString("\n")

	if st.Status != "" {
		b.WriteString(st.Status)
		b.WriteString("\n")
	}

	if h := st.Artifact; h != nil {
		details := []string{
			labelStyle.Render("Path:   ") + h.Path,
			labelStyle.Render("Size:   ") + humanize.IBytes(uint64(h.DisplaySize())),
		}
		if h.Format != "" {
			details = append(details, labelStyle.Render("Format: ")+h.Format)
		}
		b.WriteString(boxStyle.Render(strings.Join(details, "\n")))
		b.WriteString("\n")
	}

	if m.delivering {
		b.WriteString(labelStyle.Render("Delivering..."))
		b.WriteString("\n")
	}
	if m.info != "" {
		b.WriteString(successStyle.Render(m.info))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if st.LastError != "" && m.err == nil {
		b.WriteString(errorStyle.Render(st.LastError))
		b.WriteString("\n")
	}

	logs := st.Logs
	if len(logs) > TUILogLines {
		logs = logs[len(logs)-TUILogLines:]
	}
	if len(logs) > 0 {
		b.WriteString("\n")
		b.WriteString(logStyle.Render(strings.Join(logs, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
