package models

import "time"

type CreateEventRequest struct {
	Name         string    `json:"name"`
	Date         time.Time `json:"date"`
	Venue        string    `json:"venue"`
	TotalTickets int       `json:"total_tickets"`
	BasePrice    int64     `json:"base_price"`
}

type MintTicketRequest struct {
	Seat    string `json:"seat"`
	Payment int64  `json:"payment"`
}

type TransferTicketRequest struct {
	To string `json:"to"`
}

type PriceResponse struct {
	EventID int64 `json:"event_id"`
	Price   int64 `json:"price"`
}
