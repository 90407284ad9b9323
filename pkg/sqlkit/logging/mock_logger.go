package logging

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// NewMockLogger returns a logger writing to stdout and stderr without terminal colors.
// Tests capture output with testutil-style redirection or use NewBufferLogger.
func NewMockLogger(level Level) Logger {
	return &logger{
		level:     level,
		normalOut: os.Stdout,
		errorOut:  os.Stderr,
		lock:      make(chan struct{}, 1),
	}
}

// Buffer is a concurrency safe sink for NewBufferLogger.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// NewBufferLogger returns a logger that writes every entry, errors included, to buf as JSON lines.
func NewBufferLogger(level Level, buf *Buffer) Logger {
	var out io.Writer = buf

	return &logger{
		level:     level,
		normalOut: out,
		errorOut:  out,
		lock:      make(chan struct{}, 1),
	}
}
