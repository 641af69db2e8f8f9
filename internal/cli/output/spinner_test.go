package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
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

func TestNewSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Connecting")

	if s.message != "Connecting" {
		t.Errorf("Spinner message = %q, want Connecting", s.message)
	}
	if len(s.frames) == 0 {
		t.Error("Spinner frames should not be empty")
	}
}

func TestSpinner_StartStop(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "Connecting to pool")

	s.Start()
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Connecting to pool") {
		t.Error("Spinner output should contain message")
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Error("Spinner should clear the line on stop")
	}
}

func TestSpinner_StopTwice(t *testing.T) {
	buf := &syncBuffer{}
	s := NewSpinner(buf, "Refreshing")

	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Test")

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Stop without Start caused panic: %v", r)
		}
	}()

	s.Stop()
}
