package channel

import "time"

// DefaultReconnectInterval is the fixed pause between a close and the next dial.
const DefaultReconnectInterval = 2 * time.Second

// ReconnectPolicy decides how long to wait before reconnect attempt n (1-based).
type ReconnectPolicy interface {
	Delay(attempt int) time.Duration
}

// FixedInterval waits the same interval before every attempt, forever.
type FixedInterval struct {
	Interval time.Duration
}

// Delay implements ReconnectPolicy.
func (p FixedInterval) Delay(int) time.Duration {
	if p.Interval <= 0 {
		return DefaultReconnectInterval
	}
	return p.Interval
}
