package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is the ledger record for one issued ticket. The current holder is
// not a column: the ownership adapter is the authority on who owns the
// asset, and read surfaces join it in (see TicketDetails).
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID       int64     `bun:"id,pk" json:"id"`
	EventID  int64     `bun:"event_id,notnull" json:"event_id"`
	Seat     string    `bun:"seat" json:"seat"`
	Price    int64     `bun:"price,notnull" json:"price"`
	Used     bool      `bun:"used,notnull" json:"used"`
	IssuedAt time.Time `bun:"issued_at,notnull" json:"issued_at"`
	UsedAt   time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
}

// TicketDetails pairs a ledger record with the holder reported by the
// ownership adapter.
type TicketDetails struct {
	Ticket Ticket `json:"ticket"`
	Owner  string `json:"owner"`
}

// EventStats aggregates the issued tickets of one event.
type EventStats struct {
	EventID     int64 `json:"event_id"`
	TicketsSold int   `json:"tickets_sold"`
	Outstanding int   `json:"outstanding"`
	Used        int   `json:"used"`
	Revenue     int64 `json:"revenue"`
}
