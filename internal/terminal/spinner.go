package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Color codes
const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner draws an activity indicator on a single line
type Spinner struct {
	out      io.Writer
	interval time.Duration

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a spinner writing to out
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{out: out, interval: 80 * time.Millisecond}
}

// Start shows the spinner with a message, replacing any running one
func (s *Spinner) Start(msg string) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(chan struct{})
	s.done = done
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		i := 0
		for {
			fmt.Fprintf(s.out, "\r%s%s %s%s", colorCyan, spinnerChars[i], msg, colorReset)
			i = (i + 1) % len(spinnerChars)

			select {
			case <-done:
				// Clear the spinner line
				fmt.Fprint(s.out, "\r\033[2K\r")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop removes the spinner and waits for it to clear its line
func (s *Spinner) Stop() {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
		s.wg.Wait()
	}
}

// Active reports whether the spinner is running
func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}
