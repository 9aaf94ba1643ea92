package terminal

import (
	"os"

	"golang.org/x/term"
)

// Default size used when the output is not a terminal
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// IsTerminal reports whether both stdin and stdout are terminals
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Size returns the terminal width and height, or 80x24 if unknown
func Size() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}
