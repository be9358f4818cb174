// Package spinner shows a progress indicator with elapsed time while a
// recording is being processed.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interval between frames.
const Interval = 100 * time.Millisecond

// Spinner redraws a single status line on w until stopped.
type Spinner struct {
	w       io.Writer
	start   time.Time
	done    chan struct{}
	cleared chan struct{}
	once    sync.Once

	mu      sync.Mutex
	message string
	width   int
}

// Start begins drawing message on w.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		start:   time.Now(),
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
		message: message,
	}
	go s.loop()
	return s
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop clears the line and returns once the spinner has stopped drawing.
// It is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.done) })
	<-s.cleared
}

func (s *Spinner) loop() {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.done:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width)) //nolint:errcheck
			s.mu.Unlock()
			close(s.cleared)
			return
		case <-ticker.C:
			s.draw(frames[i%len(frames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Since(s.start).Truncate(time.Second)
	line := fmt.Sprintf("%s %s (%s)", frame, s.message, elapsed)
	width := runewidth.StringWidth(line)
	// Pad over leftovers from a longer previous message.
	fmt.Fprintf(s.w, "\r%s", runewidth.FillRight(line, max(width, s.width))) //nolint:errcheck
	s.width = max(width, s.width)
}
