// Package history keeps the rolling temperature/humidity window shown on the
// dashboard chart.
package history

import "sync"

// DefaultCapacity is the number of samples kept for the chart.
const DefaultCapacity = 40

// Sample is one chart point.
type Sample struct {
	Label string
	Temp  float64
	Humi  float64
}

// Snapshot holds the parallel series, oldest first. All three slices have the same length.
type Snapshot struct {
	Labels []string  `json:"labels"`
	Temp   []float64 `json:"temp"`
	Humi   []float64 `json:"humi"`
}

// Len returns the number of points.
func (s Snapshot) Len() int { return len(s.Labels) }

// Buffer is a fixed-capacity FIFO ring. The oldest sample is overwritten once full.
type Buffer struct {
	mu    sync.RWMutex
	ring  []Sample
	head  int // index of the oldest sample
	count int
}

// NewBuffer returns an empty buffer. Non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{ring: make([]Sample, capacity)}
}

// Capacity returns the fixed capacity.
func (b *Buffer) Capacity() int { return len(b.ring) }

// Len returns the number of samples held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Push appends a sample, evicting the oldest when the buffer is full.
func (b *Buffer) Push(label string, temp, humi float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Sample{Label: label, Temp: temp, Humi: humi}
	if b.count == len(b.ring) {
		b.ring[b.head] = s
		b.head = (b.head + 1) % len(b.ring)
		return
	}
	b.ring[(b.head+b.count)%len(b.ring)] = s
	b.count++
}

// Reset drops every sample.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.count = 0, 0
}

// Snapshot copies the window out in oldest-to-newest order.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := Snapshot{
		Labels: make([]string, b.count),
		Temp:   make([]float64, b.count),
		Humi:   make([]float64, b.count),
	}
	for i := 0; i < b.count; i++ {
		s := b.ring[(b.head+i)%len(b.ring)]
		out.Labels[i] = s.Label
		out.Temp[i] = s.Temp
		out.Humi[i] = s.Humi
	}
	return out
}
