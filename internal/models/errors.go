package models

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrTicketNotFound = errors.New("ticket not found")
)

var (
	ErrUnauthorized        = errors.New("caller lacks administrative capability")
	ErrNotOwner            = errors.New("caller does not own this ticket")
	ErrEventCancelled      = errors.New("event is cancelled")
	ErrTicketUsed          = errors.New("ticket already used")
	ErrSoldOut             = errors.New("event is sold out")
	ErrInsufficientPayment = errors.New("payment below current ticket price")
	ErrAlreadyCancelled    = errors.New("event already cancelled")
	ErrNotCancelled        = errors.New("event is not cancelled")
	ErrZeroCapacity        = errors.New("event has zero ticket capacity")
)

// Post-commit transfer failures. The state change they follow has already
// committed and is never rolled back; callers get the error so the owed
// value can be settled out of band.
var (
	ErrChangeTransfer = errors.New("change transfer failed after mint")
	ErrRefundTransfer = errors.New("refund transfer failed after ticket removal")
)
