package service

import (
	"sync"
	"time"

	"sensor_console/internal/clock"
	"sensor_console/internal/router"
)

// Status kinds, matching the message styles of the dashboard.
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	DefaultStatusClearAfter = 5 * time.Second
	DefaultAckTimeout       = 10 * time.Second
)

var savedText = map[router.Form]string{
	router.FormSettings:   "Network settings saved.",
	router.FormThresholds: "Thresholds saved.",
	router.FormLedPattern: "LED pattern saved.",
	router.FormNeoColor:   "NeoPixel colors saved.",
}

var pendingText = map[router.Form]string{
	router.FormSettings:   "Saving...",
	router.FormThresholds: "Sending...",
	router.FormLedPattern: "Sending...",
	router.FormNeoColor:   "Sending colors...",
}

const ackTimeoutText = "No response from board."

// StatusMessage is the transient text shown under a form.
type StatusMessage struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// StatusBoard holds one message slot per form. Every write schedules a clear
// that is never cancelled, so an earlier timer may wipe a newer message.
type StatusBoard struct {
	mu       sync.Mutex
	slots    map[router.Form]StatusMessage
	awaiting map[router.Form]uint64
	seq      uint64
	notice   string

	clock      clock.Clock
	clearAfter time.Duration
	ackTimeout time.Duration
	notifier   Notifier
}

// NewStatusBoard returns an empty board. ackTimeout 0 disables the timeout.
func NewStatusBoard(c clock.Clock, clearAfter, ackTimeout time.Duration, notifier Notifier) *StatusBoard {
	if c == nil {
		c = clock.Real{}
	}
	if clearAfter <= 0 {
		clearAfter = DefaultStatusClearAfter
	}
	return &StatusBoard{
		slots:      make(map[router.Form]StatusMessage),
		awaiting:   make(map[router.Form]uint64),
		clock:      c,
		clearAfter: clearAfter,
		ackTimeout: ackTimeout,
		notifier:   notifier,
	}
}

// Set writes a message and schedules its clear.
func (b *StatusBoard) Set(form router.Form, text, kind string) {
	b.mu.Lock()
	b.slots[form] = StatusMessage{Text: text, Kind: kind}
	b.mu.Unlock()
	b.notifier.Changed(SectionStatus)

	b.clock.AfterFunc(b.clearAfter, func() {
		b.mu.Lock()
		delete(b.slots, form)
		b.mu.Unlock()
		b.notifier.Changed(SectionStatus)
	})
}

// Pending shows the in-flight message and, if enabled, arms the ack timeout.
func (b *StatusBoard) Pending(form router.Form) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.awaiting[form] = seq
	b.mu.Unlock()

	b.Set(form, pendingText[form], StatusInfo)

	if b.ackTimeout <= 0 {
		return
	}
	b.clock.AfterFunc(b.ackTimeout, func() {
		b.mu.Lock()
		expired := b.awaiting[form] == seq
		if expired {
			delete(b.awaiting, form)
		}
		b.mu.Unlock()
		if expired {
			b.Set(form, ackTimeoutText, StatusError)
		}
	})
}

// Fail shows a validation or transport error.
func (b *StatusBoard) Fail(form router.Form, text string) {
	b.Set(form, text, StatusError)
}

// Ack marks a form as saved by the board.
func (b *StatusBoard) Ack(form router.Form) {
	b.mu.Lock()
	delete(b.awaiting, form)
	b.mu.Unlock()
	b.Set(form, savedText[form], StatusSuccess)
}

// Awaiting reports whether a form has an unacknowledged submission.
func (b *StatusBoard) Awaiting(form router.Form) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.awaiting[form]
	return ok
}

// Messages returns the visible messages keyed by form.
func (b *StatusBoard) Messages() map[router.Form]StatusMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[router.Form]StatusMessage, len(b.slots))
	for k, v := range b.slots {
		out[k] = v
	}
	return out
}

// SetNotice raises the blocking notice shown until an operator dismisses it.
func (b *StatusBoard) SetNotice(text string) {
	b.mu.Lock()
	b.notice = text
	b.mu.Unlock()
	b.notifier.Changed(SectionStatus)
}

func (b *StatusBoard) Notice() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice
}

// DismissNotice clears the notice.
func (b *StatusBoard) DismissNotice() {
	b.SetNotice("")
}

// Reset drops all messages and pending acks. The notice survives.
func (b *StatusBoard) Reset() {
	b.mu.Lock()
	b.slots = make(map[router.Form]StatusMessage)
	b.awaiting = make(map[router.Form]uint64)
	b.mu.Unlock()
	b.notifier.Changed(SectionStatus)
}
