package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"study-assistant/internal/conversation"
	"study-assistant/internal/terminal"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Display is the line-oriented presentation used when no full-screen
// terminal is available. It prints whatever the store adds. An error banner
// is printed at most once per prompt, so a rejection repeated after a new
// prompt is reported again.
type Display struct {
	out      io.Writer
	renderer *Renderer
	spinner  *terminal.Spinner

	mu        sync.Mutex
	session   string
	printed   int
	lastError string
	loading   bool
}

// NewDisplay creates a display writing to out. spinner may be nil.
func NewDisplay(out io.Writer, renderer *Renderer, spinner *terminal.Spinner) *Display {
	return &Display{out: out, renderer: renderer, spinner: spinner}
}

// Follow subscribes to store and prints the current state immediately
func (d *Display) Follow(store *conversation.Store) func() {
	d.Update(store.Snapshot())
	return store.Subscribe(d.Update)
}

// Update prints messages and banners that changed since the last call
func (d *Display) Update(st conversation.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if st.SessionID != d.session {
		if d.session != "" {
			d.printSeparator()
			fmt.Fprintf(d.out, "%sNew conversation started%s\n", colorGray, colorReset)
		}
		d.session = st.SessionID
		d.printed = 0
		d.lastError = ""
	}

	if st.IsLoading != d.loading && !st.IsLoading && d.spinner != nil {
		d.spinner.Stop()
	}

	for _, m := range st.Messages[d.printed:] {
		fmt.Fprintf(d.out, "\n%s\n", d.renderer.Message(m))
	}
	d.printed = len(st.Messages)

	if st.Error != d.lastError {
		if st.Error != "" {
			fmt.Fprintf(d.out, "\n%s✗ %s%s %s(/dismiss to clear)%s\n", colorRed, st.Error, colorReset, colorGray, colorReset)
		}
		d.lastError = st.Error
	}

	if st.IsLoading && !d.loading && d.spinner != nil {
		d.spinner.Start("Thinking...")
	}
	d.loading = st.IsLoading
}

// PrintWelcome displays the banner and connection status
func (d *Display) PrintWelcome(baseURL string, connected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.out, "%s%s╔══════════════════════════════════════════╗%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(d.out, "%s%s║   Study Assistant · document chat        ║%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(d.out, "%s%s╚══════════════════════════════════════════╝%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(d.out, "\n%sBackend:%s %s  %s\n", colorGray, colorReset, baseURL, ConnectionStatus(connected))
	fmt.Fprintf(d.out, "%sCommands:%s /help | /clear | /save | /sources | /exit\n", colorGray, colorReset)
}

// PrintPrompt displays user input prompt
func (d *Display) PrintPrompt() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastError = ""
	fmt.Fprintf(d.out, "\n%s%s❯%s ", colorBold, colorGreen, colorReset)
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.printSeparator()
}

func (d *Display) printSeparator() {
	width := 80
	if d.renderer != nil && d.renderer.Width() < width {
		width = d.renderer.Width()
	}
	fmt.Fprintf(d.out, "%s%s%s\n", colorDim, strings.Repeat("─", width), colorReset)
}

// PrintInfo displays info message
func (d *Display) PrintInfo(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%sℹ %s%s\n", colorCyan, msg, colorReset)
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s⚠ %s%s\n", colorYellow, msg, colorReset)
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s✗ Error: %v%s\n", colorRed, err, colorReset)
}

// PrintSuccess displays success message
func (d *Display) PrintSuccess(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s✓ %s%s\n", colorGreen, msg, colorReset)
}

// PrintGoodbye displays goodbye message
func (d *Display) PrintGoodbye() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "\n%s%sGood luck with your studies!%s\n", colorBold, colorCyan, colorReset)
}
