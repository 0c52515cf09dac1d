package service

import (
	"sync"

	"sensor_console/internal/models"
)

// fakeSender records envelopes and returns a fixed error.
type fakeSender struct {
	mu       sync.Mutex
	err      error
	messages []models.Envelope
}

func (s *fakeSender) Send(env models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, env)
	return s.err
}

func (s *fakeSender) sent() []models.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Envelope(nil), s.messages...)
}

// countingNotifier counts re-renders per section.
type countingNotifier struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{counts: make(map[string]int)}
}

func (n *countingNotifier) Changed(section string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts[section]++
}

func (n *countingNotifier) count(section string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[section]
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }

func ptrString(v string) *string { return &v }
