package registry

import (
	"ticket-registry/internal/models"
)

// TicketPrice computes the current price of the next ticket for an event.
// Pricing is tiered on the sold percentage, integer floor division all the
// way down:
//
//	< 50% sold  -> base price
//	< 75% sold  -> base price * 3 / 2
//	otherwise   -> base price * 2
//
// The result depends on live event state and must be recomputed on every
// mint; it is never cached.
func TicketPrice(event *models.Event) (int64, error) {
	if event.TotalTickets == 0 {
		return 0, models.ErrZeroCapacity
	}
	soldPercentage := event.TicketsSold * 100 / event.TotalTickets
	switch {
	case soldPercentage < 50:
		return event.BasePrice, nil
	case soldPercentage < 75:
		return event.BasePrice * 3 / 2, nil
	default:
		return event.BasePrice * 2, nil
	}
}
