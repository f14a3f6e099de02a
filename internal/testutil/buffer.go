package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Reset discards everything written so far.
func (b *SafeBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.b.Reset()
}

// NewLogger returns a debug-level text logger writing into buf. Setting
// BLOCKFLOW_TEST_LOGS=1 mirrors the output to stderr.
func NewLogger(t *testing.T, buf *SafeBuffer) *slog.Logger {
	t.Helper()
	var w io.Writer = buf
	if LogsEnabled() {
		w = io.MultiWriter(buf, os.Stderr)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// LogsEnabled reports whether BLOCKFLOW_TEST_LOGS asks for test logs to be
// echoed.
func LogsEnabled() bool {
	return os.Getenv("BLOCKFLOW_TEST_LOGS") != ""
}
