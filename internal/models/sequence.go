package models

import "github.com/uptrace/bun"

// Sequence backs the monotonic id generators. One row per namespace
// ("events", "tickets"); ids are handed out by incrementing Value and are
// never reused, even when the record they named is later deleted.
type Sequence struct {
	bun.BaseModel `bun:"table:sequences"`

	Name  string `bun:"name,pk"`
	Value int64  `bun:"value,notnull"`
}

const (
	SequenceEvents  = "events"
	SequenceTickets = "tickets"
)
