package terminal

import (
	"bufio"
	"io"
	"strings"
)

// Input reads user lines from a stream
type Input struct {
	reader *bufio.Reader
}

// NewInput wraps r. The same Input must be reused for every read so that
// buffered data is not lost between lines.
func NewInput(r io.Reader) *Input {
	return &Input{reader: bufio.NewReader(r)}
}

// ReadLine reads a line of input from the user.
// A final line without a newline is returned before io.EOF.
func (in *Input) ReadLine() (string, error) {
	line, err := in.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}

	// Trim whitespace and newline
	return strings.TrimSpace(line), nil
}
