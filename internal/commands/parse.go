package commands

import "strings"

// Kind identifies a user command
type Kind int

const (
	KindAsk Kind = iota
	KindHelp
	KindExit
	KindClear
	KindDismiss
	KindSources
	KindSave
	KindInit
	KindAdd
	KindStatus
	KindUnknown
	KindEmpty
)

// Command is a parsed line of user input
type Command struct {
	Kind Kind
	Name string   // the slash word, without the slash
	Args []string // whitespace separated arguments
	Text string   // the full trimmed line; the question for KindAsk
}

var names = map[string]Kind{
	"help":    KindHelp,
	"?":       KindHelp,
	"exit":    KindExit,
	"quit":    KindExit,
	"clear":   KindClear,
	"reset":   KindClear,
	"dismiss": KindDismiss,
	"sources": KindSources,
	"save":    KindSave,
	"export":  KindSave,
	"init":    KindInit,
	"add":     KindAdd,
	"status":  KindStatus,
}

// Parse classifies a line of input. Lines not starting with "/" are
// questions, except the bare words "exit" and "quit".
func Parse(line string) Command {
	text := strings.TrimSpace(line)
	if text == "" {
		return Command{Kind: KindEmpty}
	}

	lower := strings.ToLower(text)
	if lower == "exit" || lower == "quit" {
		return Command{Kind: KindExit, Name: lower, Text: text}
	}

	if !strings.HasPrefix(text, "/") {
		return Command{Kind: KindAsk, Text: text}
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return Command{Kind: KindUnknown, Text: text}
	}

	name := strings.ToLower(fields[0])
	kind, ok := names[name]
	if !ok {
		kind = KindUnknown
	}
	return Command{Kind: kind, Name: name, Args: fields[1:], Text: text}
}

// Help lists the available commands
const Help = `Ask any question about your documents, or use a command:
  /help               show this help
  /clear              start a new conversation
  /dismiss            dismiss the current error
  /sources            toggle source snippets under answers
  /save [path]        export the transcript as JSON
  /init <pdf>...      build the knowledge base from PDFs
  /add <pdf>...       add PDFs to the knowledge base
  /status             show connection and conversation status
  /exit               leave`
