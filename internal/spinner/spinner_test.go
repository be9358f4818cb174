package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_DrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := Start(&out, "Processing visit.wav")

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Processing visit.wav (0s)")
	}, time.Second, 10*time.Millisecond)

	s.SetMessage("Almost")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Almost (")
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.True(t, strings.HasSuffix(out.String(), "\r"))
}

func TestSpinner_StopBeforeFirstFrame(t *testing.T) {
	var out syncBuffer
	s := Start(&out, "quick")
	s.Stop()

	assert.Equal(t, "\r\r", out.String())
}
