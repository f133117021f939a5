package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ticket-registry/internal/logger"
	"ticket-registry/internal/models"
)

// LedgerStore is the persistence layer for event and ticket records. Reads
// of a missing id return models.ErrEventNotFound / models.ErrTicketNotFound;
// existence is never inferred from zero-valued fields.
type LedgerStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error
	DeleteTicket(ctx context.Context, id int64) error
	GetTicketsByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error)
	EventStats(ctx context.Context, eventID int64) (*models.EventStats, error)

	// NextEventID and NextTicketID advance persisted sequences. Refunds
	// delete ticket rows, so MAX(id) would hand an old id out again after
	// a restart; the sequences guarantee ids are never reused.
	NextEventID(ctx context.Context) (int64, error)
	NextTicketID(ctx context.Context) (int64, error)
}

// OwnershipAdapter tracks the exclusive holder of each ticket asset.
type OwnershipAdapter interface {
	MintAsset(ctx context.Context, ticketID int64, owner string) error
	TransferAsset(ctx context.Context, ticketID int64, from, to string) error
	OwnerOf(ctx context.Context, ticketID int64) (string, error)
	BurnAsset(ctx context.Context, ticketID int64) error
}

// PaymentAdapter moves value to a recipient. Implementations fail loudly on
// an invalid recipient or insufficient funds.
type PaymentAdapter interface {
	TransferValue(ctx context.Context, to string, amount int64) error
}

// Notifier publishes the registry's observable notifications.
type Notifier interface {
	PublishEventCreated(n models.EventCreated) error
	PublishTicketMinted(n models.TicketMinted) error
	PublishTicketUsed(n models.TicketUsed) error
	PublishEventCancelled(n models.EventCancelled) error
}

// AdminChecker reports whether a caller holds the administrative capability.
type AdminChecker interface {
	IsAdministrator(caller string) bool
}

// Registry is the authoritative event/ticket ownership registry. A single
// mutex serializes every mutating operation; read-only queries go straight
// to the store.
type Registry struct {
	mu sync.Mutex

	Store     LedgerStore
	Ownership OwnershipAdapter
	Payments  PaymentAdapter
	Notifier  Notifier
	Admins    AdminChecker
	Logger    *logger.Logger
}

func NewRegistry(store LedgerStore, ownership OwnershipAdapter, payments PaymentAdapter, notifier Notifier, admins AdminChecker, log *logger.Logger) *Registry {
	return &Registry{
		Store:     store,
		Ownership: ownership,
		Payments:  payments,
		Notifier:  notifier,
		Admins:    admins,
		Logger:    log,
	}
}

// CreateEvent registers a new event. Administrative capability required.
// Zero or negative capacity is rejected here so the pricing engine can
// never divide by zero for an event that actually exists.
func (r *Registry) CreateEvent(ctx context.Context, caller string, req models.CreateEventRequest) (*models.Event, error) {
	if !r.Admins.IsAdministrator(caller) {
		r.Logger.LogSecurity("CREATE_EVENT", fmt.Sprintf("caller %s is not an administrator", caller))
		return nil, models.ErrUnauthorized
	}
	if req.TotalTickets <= 0 {
		return nil, models.ErrZeroCapacity
	}
	if req.BasePrice < 0 {
		return nil, fmt.Errorf("base price must not be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.Store.NextEventID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next event id: %w", err)
	}
	event := &models.Event{
		ID:           id,
		Name:         req.Name,
		Date:         req.Date,
		Venue:        req.Venue,
		TotalTickets: req.TotalTickets,
		TicketsSold:  0,
		BasePrice:    req.BasePrice,
		Cancelled:    false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.Store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	r.Logger.LogEvent("CREATED", event.ID, event.Name)
	if err := r.Notifier.PublishEventCreated(models.EventCreated{EventID: event.ID, Name: event.Name, Date: event.Date}); err != nil {
		r.Logger.Error("NOTIFY", fmt.Sprintf("event_created publish failed: %v", err))
	}
	return event, nil
}

// MintTicket issues a ticket against an event's capacity. The price is the
// live tier price at mint time and is snapshotted on the ticket. Excess
// payment is returned through the payment adapter after the mint has
// committed; a failure in that change transfer does not undo the mint and
// is reported alongside the minted ticket.
func (r *Registry) MintTicket(ctx context.Context, caller string, eventID int64, seat string, payment int64) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Cancelled {
		return nil, models.ErrEventCancelled
	}
	if event.SoldOut() {
		return nil, models.ErrSoldOut
	}
	price, err := TicketPrice(event)
	if err != nil {
		return nil, err
	}
	if payment < price {
		return nil, fmt.Errorf("%w: need %d, got %d", models.ErrInsufficientPayment, price, payment)
	}

	id, err := r.Store.NextTicketID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next ticket id: %w", err)
	}
	ticket := &models.Ticket{
		ID:       id,
		EventID:  event.ID,
		Seat:     seat,
		Price:    price,
		Used:     false,
		IssuedAt: time.Now().UTC(),
	}
	if err := r.Store.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if err := r.Ownership.MintAsset(ctx, ticket.ID, caller); err != nil {
		// Undo the record so a failed mint leaves no state behind.
		if delErr := r.Store.DeleteTicket(ctx, ticket.ID); delErr != nil {
			r.Logger.Error("MINT", fmt.Sprintf("rollback of ticket %d failed: %v", ticket.ID, delErr))
		}
		return nil, fmt.Errorf("mint asset: %w", err)
	}
	event.TicketsSold++
	if err := r.Store.UpdateEvent(ctx, event); err != nil {
		if burnErr := r.Ownership.BurnAsset(ctx, ticket.ID); burnErr != nil {
			r.Logger.Error("MINT", fmt.Sprintf("rollback burn of ticket %d failed: %v", ticket.ID, burnErr))
		}
		if delErr := r.Store.DeleteTicket(ctx, ticket.ID); delErr != nil {
			r.Logger.Error("MINT", fmt.Sprintf("rollback of ticket %d failed: %v", ticket.ID, delErr))
		}
		return nil, fmt.Errorf("update tickets_sold: %w", err)
	}

	r.Logger.LogTicket("MINTED", ticket.ID, fmt.Sprintf("event %d, seat %q, price %d", event.ID, seat, price))
	if err := r.Notifier.PublishTicketMinted(models.TicketMinted{TicketID: ticket.ID, EventID: event.ID, Owner: caller}); err != nil {
		r.Logger.Error("NOTIFY", fmt.Sprintf("ticket_minted publish failed: %v", err))
	}

	// The mint is committed; returning change happens last so a payment
	// failure can never claw back an issued ticket.
	if payment > price {
		if err := r.Payments.TransferValue(ctx, caller, payment-price); err != nil {
			r.Logger.Error("PAYMENT", fmt.Sprintf("change of %d for ticket %d not returned: %v", payment-price, ticket.ID, err))
			return ticket, fmt.Errorf("%w: %v", models.ErrChangeTransfer, err)
		}
	}
	return ticket, nil
}

// UseTicket redeems a ticket. Used tickets and tickets of cancelled events
// are rejected; the transition is one-way.
func (r *Registry) UseTicket(ctx context.Context, caller string, ticketID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, event, err := r.liveTicket(ctx, caller, ticketID)
	if err != nil {
		return err
	}
	if event.Cancelled {
		return models.ErrEventCancelled
	}

	ticket.Used = true
	ticket.UsedAt = time.Now().UTC()
	if err := r.Store.UpdateTicket(ctx, ticket); err != nil {
		return fmt.Errorf("mark ticket used: %w", err)
	}

	r.Logger.LogTicket("USED", ticket.ID, fmt.Sprintf("event %d", event.ID))
	if err := r.Notifier.PublishTicketUsed(models.TicketUsed{TicketID: ticket.ID, EventID: event.ID}); err != nil {
		r.Logger.Error("NOTIFY", fmt.Sprintf("ticket_used publish failed: %v", err))
	}
	return nil
}

// TransferTicket reassigns the holder of an unused ticket on a live event.
// Only the ownership adapter changes; the ledger record is untouched.
func (r *Registry) TransferTicket(ctx context.Context, caller, to string, ticketID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, event, err := r.liveTicket(ctx, caller, ticketID)
	if err != nil {
		return err
	}
	if event.Cancelled {
		return models.ErrEventCancelled
	}

	if err := r.Ownership.TransferAsset(ctx, ticket.ID, caller, to); err != nil {
		return fmt.Errorf("transfer asset: %w", err)
	}
	r.Logger.LogTicket("TRANSFERRED", ticket.ID, fmt.Sprintf("%s -> %s", caller, to))
	return nil
}

// CancelEvent flips an event to cancelled. One-way; existing tickets stay
// in the ledger and become refundable. tickets_sold is not altered.
func (r *Registry) CancelEvent(ctx context.Context, caller string, eventID int64) error {
	if !r.Admins.IsAdministrator(caller) {
		r.Logger.LogSecurity("CANCEL_EVENT", fmt.Sprintf("caller %s is not an administrator", caller))
		return models.ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	event, err := r.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Cancelled {
		return models.ErrAlreadyCancelled
	}

	event.Cancelled = true
	if err := r.Store.UpdateEvent(ctx, event); err != nil {
		return fmt.Errorf("cancel event: %w", err)
	}

	r.Logger.LogEvent("CANCELLED", event.ID, event.Name)
	if err := r.Notifier.PublishEventCancelled(models.EventCancelled{EventID: event.ID}); err != nil {
		r.Logger.Error("NOTIFY", fmt.Sprintf("event_cancelled publish failed: %v", err))
	}
	return nil
}

// RefundTicket burns the asset and deletes the ledger record, then pays
// the holder the mint-time snapshot price. State removal strictly precedes
// the value transfer: a re-entrant refund finds no record and fails, and a
// payout failure after removal is reported but never restores the ticket.
// Event capacity is not restored; tickets_sold stays where it was.
func (r *Registry) RefundTicket(ctx context.Context, caller string, ticketID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, err := r.Store.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	owner, err := r.Ownership.OwnerOf(ctx, ticket.ID)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}
	if owner != caller {
		return models.ErrNotOwner
	}
	event, err := r.Store.GetEventByID(ctx, ticket.EventID)
	if err != nil {
		return err
	}
	if !event.Cancelled {
		return models.ErrNotCancelled
	}
	if ticket.Used {
		return models.ErrTicketUsed
	}

	amount := ticket.Price
	if err := r.Ownership.BurnAsset(ctx, ticket.ID); err != nil {
		return fmt.Errorf("burn asset: %w", err)
	}
	if err := r.Store.DeleteTicket(ctx, ticket.ID); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}

	r.Logger.LogTicket("REFUNDED", ticket.ID, fmt.Sprintf("amount %d to %s", amount, caller))
	if err := r.Payments.TransferValue(ctx, caller, amount); err != nil {
		r.Logger.Error("PAYMENT", fmt.Sprintf("refund of %d for ticket %d not paid: %v", amount, ticket.ID, err))
		return fmt.Errorf("%w: %v", models.ErrRefundTransfer, err)
	}
	return nil
}

// liveTicket loads a ticket with its event and enforces the caller-owns-it
// and not-yet-used preconditions shared by use and transfer.
func (r *Registry) liveTicket(ctx context.Context, caller string, ticketID int64) (*models.Ticket, *models.Event, error) {
	ticket, err := r.Store.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := r.Ownership.OwnerOf(ctx, ticket.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve owner: %w", err)
	}
	if owner != caller {
		return nil, nil, models.ErrNotOwner
	}
	if ticket.Used {
		return nil, nil, models.ErrTicketUsed
	}
	event, err := r.Store.GetEventByID(ctx, ticket.EventID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, event, nil
}

// ---------------- read-only queries ----------------

func (r *Registry) CalculateTicketPrice(ctx context.Context, eventID int64) (int64, error) {
	event, err := r.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return TicketPrice(event)
}

func (r *Registry) GetEventDetails(ctx context.Context, eventID int64) (*models.Event, error) {
	return r.Store.GetEventByID(ctx, eventID)
}

func (r *Registry) GetTicketDetails(ctx context.Context, ticketID int64) (*models.TicketDetails, error) {
	ticket, err := r.Store.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	owner, err := r.Ownership.OwnerOf(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	return &models.TicketDetails{Ticket: *ticket, Owner: owner}, nil
}

// GetEventTickets lists an event's surviving tickets with their current
// holders. Refunded tickets are gone from the ledger and do not appear.
func (r *Registry) GetEventTickets(ctx context.Context, eventID int64) ([]models.TicketDetails, error) {
	if _, err := r.Store.GetEventByID(ctx, eventID); err != nil {
		return nil, err
	}
	tickets, err := r.Store.GetTicketsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	details := make([]models.TicketDetails, 0, len(tickets))
	for _, ticket := range tickets {
		owner, err := r.Ownership.OwnerOf(ctx, ticket.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve owner of ticket %d: %w", ticket.ID, err)
		}
		details = append(details, models.TicketDetails{Ticket: ticket, Owner: owner})
	}
	return details, nil
}

func (r *Registry) GetEventStats(ctx context.Context, eventID int64) (*models.EventStats, error) {
	event, err := r.Store.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	stats, err := r.Store.EventStats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event stats: %w", err)
	}
	stats.TicketsSold = event.TicketsSold
	return stats, nil
}
