package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"study-assistant/internal/conversation"
	"study-assistant/internal/ragapi"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// Renderer turns messages into terminal text. Assistant content is rendered
// as markdown; user content is shown verbatim.
type Renderer struct {
	md          *glamour.TermRenderer
	width       int
	ShowSources bool
}

// NewRenderer creates a renderer wrapping at width. style is a glamour
// standard style name ("dark", "light", "notty", ...); empty picks one from
// the terminal background.
func NewRenderer(width int, style string) (*Renderer, error) {
	if width < 20 {
		width = 20
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	md, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	return &Renderer{md: md, width: width, ShowSources: true}, nil
}

// Width is the wrap width the renderer was built for.
func (r *Renderer) Width() int {
	return r.width
}

// Markdown renders s, falling back to the raw text if rendering fails
func (r *Renderer) Markdown(s string) string {
	out, err := r.md.Render(s)
	if err != nil {
		return s
	}
	return strings.Trim(out, "\n")
}

// Message renders one conversation turn with its header and sources
func (r *Renderer) Message(m conversation.Message) string {
	var b strings.Builder

	stamp := m.Timestamp.Format("15:04:05")
	if m.Sender == conversation.SenderUser {
		b.WriteString(userStyle.Render("You") + metaStyle.Render(" · "+stamp) + "\n")
		b.WriteString(indent(m.Content, "  "))
		return b.String()
	}

	b.WriteString(assistantStyle.Render("Assistant") + metaStyle.Render(" · "+stamp) + "\n")
	b.WriteString(r.Markdown(m.Content))

	if r.ShowSources && len(m.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(r.Sources(m.Sources))
	}
	return b.String()
}

// Sources renders the cited documents of an answer
func (r *Renderer) Sources(sources []ragapi.SourceDocument) string {
	var b strings.Builder
	b.WriteString(metaStyle.Render("  Sources:"))
	for _, src := range sources {
		b.WriteString("\n    " + sourceStyle.Render("• "+src.Source))
		if preview := PlainPreview(src.ContentPreview, PreviewWords); preview != "" {
			b.WriteString("\n      " + metaStyle.Render(truncate(preview, r.width-8)))
		}
	}
	return b.String()
}

// Transcript renders every message separated by blank lines
func (r *Renderer) Transcript(messages []conversation.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n\n")
}

// Header renders the title line with the connection indicator
func (r *Renderer) Header(connected bool) string {
	return titleStyle.Render("Study Assistant") + metaStyle.Render(" · AI-powered document chat  ") + ConnectionStatus(connected)
}

// ConnectionStatus renders the Connected/Disconnected indicator
func ConnectionStatus(connected bool) string {
	if connected {
		return okStyle.Render("● Connected")
	}
	return errorStyle.Render("○ Disconnected")
}

// ErrorBanner renders the dismissible error line
func ErrorBanner(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 || len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
