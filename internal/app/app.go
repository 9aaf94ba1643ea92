package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"study-assistant/internal/commands"
	"study-assistant/internal/config"
	"study-assistant/internal/conversation"
	"study-assistant/internal/id"
	"study-assistant/internal/logger"
	"study-assistant/internal/ragapi"
	"study-assistant/internal/terminal"
	"study-assistant/internal/transcript"
	"study-assistant/internal/tui"
	"study-assistant/internal/ui"
)

// App is one client session: it owns the store, the backend client and the
// front end that drives them.
type App struct {
	cfg         *config.Config
	client      *ragapi.Client
	store       *conversation.Store
	renderer    *ui.Renderer
	runner      *commands.Runner
	in          io.Reader
	out         io.Writer
	interactive bool
}

// New wires a session from cfg. in and out are only used in plain mode.
func New(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	gen, err := id.NewGenerator(cfg.NodeID)
	if err != nil {
		return nil, err
	}

	interactive := !cfg.Plain && terminal.IsTerminal()

	// Plain output may be piped, so it gets no escape codes unless a
	// terminal is attached.
	style := "notty"
	if terminal.IsTerminal() {
		style = ""
	}
	width, _ := terminal.Size()
	renderer, err := ui.NewRenderer(width, style)
	if err != nil {
		return nil, err
	}
	renderer.ShowSources = cfg.ShowSources

	client := ragapi.NewClient(cfg.BaseURL, cfg.Timeout, cfg.HealthTimeout)
	store := conversation.NewStore(client, gen)
	runner := commands.NewRunner(store, client, transcript.NewWriter(cfg.TranscriptDir), renderer)

	return &App{
		cfg:         cfg,
		client:      client,
		store:       store,
		renderer:    renderer,
		runner:      runner,
		in:          in,
		out:         out,
		interactive: interactive,
	}, nil
}

// Store exposes the session's conversation store
func (a *App) Store() *conversation.Store {
	return a.store
}

// Run greets the user, performs the one-time connectivity check and hands
// control to the front end until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.store.Initialize()
	connected := a.store.Connect(ctx, a.client)
	logger.Log.Info("session started",
		"base_url", a.client.BaseURL(),
		"connected", connected,
		"session", a.store.Snapshot().SessionID,
		"interactive", a.interactive)

	if a.interactive {
		return tui.Run(ctx, tui.New(ctx, a.store, a.runner, a.renderer))
	}
	return a.runPlain(ctx)
}

// runPlain is the line-oriented loop used without a terminal or with --plain
func (a *App) runPlain(ctx context.Context) error {
	var spinner *terminal.Spinner
	if terminal.IsTerminal() {
		spinner = terminal.NewSpinner(a.out)
	}
	display := ui.NewDisplay(a.out, a.renderer, spinner)

	connected := a.store.Snapshot().Connected
	display.PrintWelcome(a.client.BaseURL(), connected)
	if !connected {
		display.PrintWarning(conversation.MessageNotConnected)
		display.PrintInfo("Questions are disabled; commands such as /help and /exit still work.")
	}
	display.PrintSeparator()

	unsubscribe := display.Follow(a.store)
	defer unsubscribe()

	lines := readLines(terminal.NewInput(a.in))

	// pending tracks the answer being fetched in the background, so the loop
	// keeps reading and can reject input typed in the meantime.
	var pending sync.WaitGroup
	finish := func() error {
		pending.Wait()
		display.PrintGoodbye()
		return nil
	}

	for {
		display.PrintPrompt()

		var line string
		select {
		case <-ctx.Done():
			return finish()
		case l, ok := <-lines:
			if !ok {
				return finish()
			}
			line = l
		}

		cmd := commands.Parse(line)
		if cmd.Kind == commands.KindAsk {
			a.ask(ctx, display, cmd.Text, &pending)
			continue
		}

		res, err := a.runner.Run(ctx, cmd)
		if err != nil {
			if errors.Is(err, conversation.ErrRequestInFlight) {
				display.PrintWarning(waitMessage)
				continue
			}
			display.PrintError(err)
			continue
		}

		if res.Notice != "" {
			switch {
			case res.Warning:
				display.PrintWarning(res.Notice)
			case res.Success:
				display.PrintSuccess(res.Notice)
			default:
				display.PrintInfo(res.Notice)
			}
		}
		if res.Quit {
			return finish()
		}
	}
}

const waitMessage = "Wait for the current answer first."

// ask submits question and fetches the answer in the background. A question
// typed while another is being answered is rejected, never queued.
func (a *App) ask(ctx context.Context, display *ui.Display, question string, pending *sync.WaitGroup) {
	err := a.store.Submit(question)
	switch {
	case err == nil:
		pending.Add(1)
		go func() {
			defer pending.Done()
			if err := a.store.Complete(ctx); err != nil {
				logger.Log.Debug("question not answered", "error", err)
			}
		}()
	case errors.Is(err, conversation.ErrRequestInFlight):
		display.PrintWarning(waitMessage)
	default:
		// Not connected: the store's error banner reports it.
		logger.Log.Debug("question rejected", "error", err)
	}
}

// readLines feeds input lines to a channel so the loop can also watch ctx.
// The channel is closed at end of input.
func readLines(in *terminal.Input) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := in.ReadLine()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.Log.Warn("reading input failed", "error", err)
				}
				return
			}
			lines <- line
		}
	}()
	return lines
}

// Describe summarises the effective configuration for verbose startup output
func Describe(cfg *config.Config) string {
	return fmt.Sprintf("backend=%s timeout=%s health_timeout=%s transcripts=%s log=%s(%s)",
		cfg.BaseURL, cfg.Timeout, cfg.HealthTimeout, cfg.TranscriptDir, cfg.LogFile, cfg.LogLevel)
}
