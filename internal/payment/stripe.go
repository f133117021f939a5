package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/transfer"

	"ticket-registry/internal/logger"
)

// StripePayer settles outbound value transfers (mint change, refunds) as
// Stripe transfers. The recipient identity is used as the connected
// account destination. Stripe errors surface to the caller; nothing is
// retried here.
type StripePayer struct {
	Currency string
	Logger   *logger.Logger
}

func NewStripePayer(apiKey, currency string, log *logger.Logger) *StripePayer {
	stripe.Key = apiKey
	return &StripePayer{Currency: currency, Logger: log}
}

func (p *StripePayer) TransferValue(ctx context.Context, to string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(p.Currency),
		Destination: stripe.String(to),
	}
	params.Context = ctx
	// One key per settlement attempt: the registry never retries, so a
	// duplicate submission can only be a transport replay.
	params.SetIdempotencyKey(uuid.NewString())

	tr, err := transfer.New(params)
	if err != nil {
		return fmt.Errorf("stripe transfer to %s: %w", to, err)
	}
	p.Logger.Info("PAYMENT", fmt.Sprintf("transferred %d %s to %s (%s)", amount, p.Currency, to, tr.ID))
	return nil
}
