package models

import "time"

// Notification types observable by external monitors.
const (
	NotifyEventCreated   = "event_created"
	NotifyTicketMinted   = "ticket_minted"
	NotifyTicketUsed     = "ticket_used"
	NotifyEventCancelled = "event_cancelled"
)

type EventCreated struct {
	EventID int64     `json:"event_id"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
}

type TicketMinted struct {
	TicketID int64  `json:"ticket_id"`
	EventID  int64  `json:"event_id"`
	Owner    string `json:"owner"`
}

type TicketUsed struct {
	TicketID int64 `json:"ticket_id"`
	EventID  int64 `json:"event_id"`
}

type EventCancelled struct {
	EventID int64 `json:"event_id"`
}

// Notification is the flattened form streamed to SSE subscribers.
type Notification struct {
	Type      string    `json:"type"`
	EventID   int64     `json:"event_id"`
	TicketID  int64     `json:"ticket_id,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Name      string    `json:"name,omitempty"`
	Date      time.Time `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
