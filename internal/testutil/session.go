package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SessionSequence hands out predictable decode session ids.
//
// Readers normally generate a UUIDv7 per session. Tests that assert on log
// output inject ids from a SessionSequence instead, so the same test run
// twice produces identical records.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SessionSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSessionSequence creates a sequence whose ids look like
// "<prefix>-0001". An empty prefix defaults to "test-session".
func NewSessionSequence(prefix string) *SessionSequence {
	if prefix == "" {
		prefix = "test-session"
	}
	return &SessionSequence{prefix: prefix}
}

// Next returns the next id. The first call returns "<prefix>-0001".
func (s *SessionSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", s.prefix, s.n)
}

// Issued returns how many ids have been handed out.
func (s *SessionSequence) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Reset restarts the sequence.
func (s *SessionSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CaptureLogger returns a debug-level JSON logger writing to w.
func CaptureLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
