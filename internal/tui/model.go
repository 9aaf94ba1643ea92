package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"study-assistant/internal/commands"
	"study-assistant/internal/conversation"
	"study-assistant/internal/logger"
	"study-assistant/internal/ui"
)

var (
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	spinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const hint = "Enter send · Esc dismiss error · PgUp/PgDn scroll · /help · Ctrl+C quit"

// resolvedMsg reports that the outstanding ask has been applied to the store
type resolvedMsg struct{ err error }

// commandMsg carries the outcome of a background command
type commandMsg struct {
	result commands.Result
	err    error
}

// Model is the interactive chat screen. It renders the store's state and
// forwards user actions to it.
type Model struct {
	ctx      context.Context
	store    *conversation.Store
	runner   *commands.Runner
	renderer *ui.Renderer

	input    textinput.Model
	spin     spinner.Model
	viewport viewport.Model

	state  conversation.State
	notice string
	warn   bool
	busy   bool // a background command is running

	width  int
	height int
}

// New creates the chat screen for store
func New(ctx context.Context, store *conversation.Store, runner *commands.Runner, renderer *ui.Renderer) Model {
	in := textinput.New()
	in.Placeholder = "Ask a question about your documents..."
	in.Prompt = "❯ "
	in.CharLimit = 0
	in.Width = 60
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinStyle

	m := Model{
		ctx:      ctx,
		store:    store,
		runner:   runner,
		renderer: renderer,
		input:    in,
		spin:     s,
		viewport: viewport.New(renderer.Width(), 20),
		width:    renderer.Width(),
		height:   26,
	}
	m.refresh()
	return m
}

// State returns the snapshot the screen was last drawn from
func (m Model) State() conversation.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.viewport.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.store.ClearError()
			m.notice = ""
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case resolvedMsg:
		if msg.err != nil {
			logger.Log.Debug("ask finished with error", "error", msg.err)
		}
		m.refresh()
		return m, nil

	case commandMsg:
		m.busy = false
		m.apply(msg.result, msg.err)
		m.refresh()
		if msg.result.Quit {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if !m.state.IsLoading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles Enter on the input line
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.state.IsLoading || m.busy {
		return m, nil
	}

	cmd := commands.Parse(m.input.Value())
	switch cmd.Kind {
	case commands.KindEmpty:
		return m, nil

	case commands.KindAsk:
		if !m.state.CanSubmit() {
			m.setNotice(conversation.MessageNotConnected, true)
			return m, nil
		}
		if err := m.store.Submit(cmd.Text); err != nil {
			logger.Log.Debug("submit rejected", "error", err)
			m.refresh()
			return m, nil
		}
		m.input.Reset()
		m.notice = ""
		m.refresh()
		return m, tea.Batch(m.ask(), m.spin.Tick)

	case commands.KindExit:
		return m, tea.Quit

	case commands.KindInit, commands.KindAdd:
		m.busy = true
		m.input.Reset()
		m.setNotice("Indexing documents...", false)
		m.refresh()
		return m, tea.Batch(m.runInBackground(cmd), m.spin.Tick)
	}

	res, err := m.runner.Run(m.ctx, cmd)
	m.input.Reset()
	m.apply(res, err)
	m.refresh()
	if res.Quit {
		return m, tea.Quit
	}
	return m, nil
}

// ask sends the pending question and applies the outcome to the store
func (m Model) ask() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return resolvedMsg{err: store.Complete(ctx)}
	}
}

func (m Model) runInBackground(cmd commands.Command) tea.Cmd {
	ctx, runner := m.ctx, m.runner
	return func() tea.Msg {
		res, err := runner.Run(ctx, cmd)
		return commandMsg{result: res, err: err}
	}
}

func (m *Model) apply(res commands.Result, err error) {
	switch {
	case err != nil && errors.Is(err, conversation.ErrRequestInFlight):
		m.setNotice("Wait for the current answer first.", true)
	case err != nil:
		m.setNotice("Error: "+err.Error(), true)
	default:
		m.setNotice(res.Notice, res.Warning)
	}
}

func (m *Model) setNotice(msg string, warn bool) {
	m.notice = msg
	m.warn = warn
}

// refresh pulls the latest snapshot and lays the screen out again
func (m *Model) refresh() {
	m.state = m.store.Snapshot()

	if m.state.IsLoading || m.busy {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
	if m.state.Connected {
		m.input.Placeholder = "Ask a question about your documents..."
	} else {
		m.input.Placeholder = "Backend disconnected, only /commands are available"
	}

	m.viewport.Height = m.transcriptHeight()
	m.viewport.SetContent(m.renderer.Transcript(m.state.Messages))
	m.viewport.GotoBottom()
}

// transcriptHeight is what is left after the fixed lines of the layout
func (m Model) transcriptHeight() int {
	fixed := 5 // header, blank, input, notice, hint
	if m.state.Error != "" {
		fixed++
	}
	return max(m.height-fixed, 3)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderer.Header(m.state.Connected))
	b.WriteString("\n")
	if m.state.Error != "" {
		b.WriteString(ui.ErrorBanner(m.state.Error) + hintStyle.Render("  (Esc to dismiss)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.state.IsLoading:
		b.WriteString(m.spin.View() + " Thinking...")
	case m.busy:
		b.WriteString(m.spin.View() + " Working...")
	default:
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")

	if m.notice != "" {
		style := noticeStyle
		if m.warn {
			style = warningStyle
		}
		b.WriteString(style.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(hint))
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
