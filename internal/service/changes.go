package service

import "sync"

// Dashboard sections reported to a Notifier.
const (
	SectionDevices = "devices"
	SectionSensor  = "sensor"
	SectionTinyML  = "tinyml"
	SectionChart   = "chart"
	SectionConfig  = "config"
	SectionStatus  = "status"
	SectionLink    = "link"
	SectionReload  = "reload"
)

// Notifier is told that a section must be re-rendered.
type Notifier interface {
	Changed(section string)
}

// ChangeFeed counts re-renders and wakes subscribers. Wake-ups coalesce:
// a slow subscriber sees one signal for any number of changes.
type ChangeFeed struct {
	mu      sync.Mutex
	rev     uint64
	reloads uint64
	subs    map[chan struct{}]struct{}
}

// NewChangeFeed returns an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[chan struct{}]struct{})}
}

// Changed implements Notifier.
func (f *ChangeFeed) Changed(section string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rev++
	if section == SectionReload {
		f.reloads++
	}
	for ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Revision returns the number of changes so far.
func (f *ChangeFeed) Revision() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rev
}

// Reloads returns how many times viewers were told to reload.
func (f *ChangeFeed) Reloads() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

// Subscribe returns a wake-up channel and its cancel func.
func (f *ChangeFeed) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}
