package models

import "time"

// Journal event types.
const (
	EventCommand    = "COMMAND"    // outbound envelope handed to the channel
	EventDropped    = "DROPPED"    // outbound envelope dropped while disconnected
	EventAck        = "ACK"        // *_saved received from the board
	EventConnect    = "CONNECT"
	EventDisconnect = "DISCONNECT"
	EventReset      = "RESET"
)

// ConsoleEvent is a single operator journal entry.
type ConsoleEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
