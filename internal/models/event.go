package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           int64     `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Date         time.Time `bun:"date,notnull" json:"date"`
	Venue        string    `bun:"venue" json:"venue"`
	TotalTickets int       `bun:"total_tickets,notnull" json:"total_tickets"`
	TicketsSold  int       `bun:"tickets_sold,notnull" json:"tickets_sold"`
	BasePrice    int64     `bun:"base_price,notnull" json:"base_price"`
	Cancelled    bool      `bun:"cancelled,notnull" json:"cancelled"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}

// SoldOut reports whether every ticket for the event has been issued.
// Refunds never decrement tickets_sold, so a cancelled event can be sold
// out with no surviving tickets.
func (e *Event) SoldOut() bool {
	return e.TicketsSold >= e.TotalTickets
}
