package registry_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticket-registry/internal/logger"
	"ticket-registry/internal/models"
	"ticket-registry/internal/ownership"
	"ticket-registry/internal/payment"
	"ticket-registry/internal/registry"
	regdb "ticket-registry/internal/registry/db"
)

// recordingNotifier collects notifications so the tests can assert on the
// observable effects of each operation.
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []string
}

func (r *recordingNotifier) record(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, kind)
}

func (r *recordingNotifier) PublishEventCreated(models.EventCreated) error {
	r.record(models.NotifyEventCreated)
	return nil
}

func (r *recordingNotifier) PublishTicketMinted(models.TicketMinted) error {
	r.record(models.NotifyTicketMinted)
	return nil
}

func (r *recordingNotifier) PublishTicketUsed(models.TicketUsed) error {
	r.record(models.NotifyTicketUsed)
	return nil
}

func (r *recordingNotifier) PublishEventCancelled(models.EventCancelled) error {
	r.record(models.NotifyEventCancelled)
	return nil
}

type testRig struct {
	registry *registry.Registry
	payments *payment.Memory
	notifier *recordingNotifier
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxIdleConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Ticket)(nil),
		(*models.Sequence)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}
	t.Cleanup(func() { bunDB.Close() })

	store := &regdb.DB{Bun: bunDB}
	require.NoError(t, store.Init(ctx))

	payments := payment.NewMemory()
	notifier := &recordingNotifier{}
	reg := registry.NewRegistry(store, ownership.NewMemory(), payments, notifier, staticAdmins{admin: "admin"}, logger.NewTestLogger())
	return &testRig{registry: reg, payments: payments, notifier: notifier}
}

func createEvent(t *testing.T, rig *testRig, totalTickets int, basePrice int64) *models.Event {
	t.Helper()
	event, err := rig.registry.CreateEvent(context.Background(), "admin", models.CreateEventRequest{
		Name:         "Integration Gig",
		Date:         time.Now().Add(72 * time.Hour),
		Venue:        "Back Room",
		TotalTickets: totalTickets,
		BasePrice:    basePrice,
	})
	require.NoError(t, err)
	return event
}

// Create event (capacity 2, base 100), mint two tickets at base price, third
// mint fails sold out with no state change. The 50% tier kicks in only for
// the mint after the one that crossed the boundary.
func TestEndToEndCapacityTwo(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 2, 100)

	ticketA, err := rig.registry.MintTicket(ctx, "alice", event.ID, "A1", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ticketA.Price)

	// 1 of 2 sold = 50%, so the second mint costs 150
	price, err := rig.registry.CalculateTicketPrice(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), price)

	ticketB, err := rig.registry.MintTicket(ctx, "bob", event.ID, "A2", 150)
	require.NoError(t, err)
	assert.Equal(t, int64(150), ticketB.Price)

	_, err = rig.registry.MintTicket(ctx, "carol", event.ID, "A3", 500)
	assert.ErrorIs(t, err, models.ErrSoldOut)

	got, err := rig.registry.GetEventDetails(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TicketsSold, "failed mint must not change state")
	assert.LessOrEqual(t, got.TicketsSold, got.TotalTickets)
}

func TestEndToEndOverpaymentReturnsChange(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 100, 100)

	ticket, err := rig.registry.MintTicket(ctx, "alice", event.ID, "B4", 150)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ticket.Price)

	transfers := rig.payments.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "alice", transfers[0].To)
	assert.Equal(t, int64(50), transfers[0].Amount)
}

func TestEndToEndUseAndTransfer(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 10, 100)

	ticket, err := rig.registry.MintTicket(ctx, "alice", event.ID, "C1", 100)
	require.NoError(t, err)

	require.NoError(t, rig.registry.TransferTicket(ctx, "alice", "bob", ticket.ID))

	details, err := rig.registry.GetTicketDetails(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", details.Owner)

	// The previous holder lost all rights
	assert.ErrorIs(t, rig.registry.UseTicket(ctx, "alice", ticket.ID), models.ErrNotOwner)

	require.NoError(t, rig.registry.UseTicket(ctx, "bob", ticket.ID))

	// Used is terminal: no re-use, no transfer
	assert.ErrorIs(t, rig.registry.UseTicket(ctx, "bob", ticket.ID), models.ErrTicketUsed)
	assert.ErrorIs(t, rig.registry.TransferTicket(ctx, "bob", "carol", ticket.ID), models.ErrTicketUsed)
}

func TestEndToEndCancelAndRefundOnce(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 100, 100)

	ticket, err := rig.registry.MintTicket(ctx, "alice", event.ID, "D1", 100)
	require.NoError(t, err)

	// Refund before cancellation is rejected
	assert.ErrorIs(t, rig.registry.RefundTicket(ctx, "alice", ticket.ID), models.ErrNotCancelled)

	require.NoError(t, rig.registry.CancelEvent(ctx, "admin", event.ID))
	assert.ErrorIs(t, rig.registry.CancelEvent(ctx, "admin", event.ID), models.ErrAlreadyCancelled)

	// Cancellation froze use and transfer, refund stays open
	assert.ErrorIs(t, rig.registry.UseTicket(ctx, "alice", ticket.ID), models.ErrEventCancelled)
	assert.ErrorIs(t, rig.registry.TransferTicket(ctx, "alice", "bob", ticket.ID), models.ErrEventCancelled)

	require.NoError(t, rig.registry.RefundTicket(ctx, "alice", ticket.ID))

	transfers := rig.payments.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, int64(100), transfers[0].Amount)

	// Second refund finds no record
	assert.ErrorIs(t, rig.registry.RefundTicket(ctx, "alice", ticket.ID), models.ErrTicketNotFound)

	// Capacity is not restored by the refund
	got, err := rig.registry.GetEventDetails(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TicketsSold)
}

func TestEndToEndListTickets(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 100, 100)

	t1, err := rig.registry.MintTicket(ctx, "alice", event.ID, "G1", 100)
	require.NoError(t, err)
	_, err = rig.registry.MintTicket(ctx, "bob", event.ID, "G2", 100)
	require.NoError(t, err)

	require.NoError(t, rig.registry.CancelEvent(ctx, "admin", event.ID))
	require.NoError(t, rig.registry.RefundTicket(ctx, "alice", t1.ID))

	// Only the surviving ticket is listed, with its holder
	tickets, err := rig.registry.GetEventTickets(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "G2", tickets[0].Ticket.Seat)
	assert.Equal(t, "bob", tickets[0].Owner)
}

func TestEndToEndStats(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 10, 100)

	t1, err := rig.registry.MintTicket(ctx, "alice", event.ID, "E1", 100)
	require.NoError(t, err)
	_, err = rig.registry.MintTicket(ctx, "bob", event.ID, "E2", 100)
	require.NoError(t, err)
	require.NoError(t, rig.registry.UseTicket(ctx, "alice", t1.ID))

	stats, err := rig.registry.GetEventStats(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TicketsSold)
	assert.Equal(t, 2, stats.Outstanding)
	assert.Equal(t, 1, stats.Used)
	assert.Equal(t, int64(200), stats.Revenue)
}

func TestEndToEndNotifications(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()
	event := createEvent(t, rig, 10, 100)

	ticket, err := rig.registry.MintTicket(ctx, "alice", event.ID, "F1", 100)
	require.NoError(t, err)
	require.NoError(t, rig.registry.UseTicket(ctx, "alice", ticket.ID))
	require.NoError(t, rig.registry.CancelEvent(ctx, "admin", event.ID))

	assert.Equal(t, []string{
		models.NotifyEventCreated,
		models.NotifyTicketMinted,
		models.NotifyTicketUsed,
		models.NotifyEventCancelled,
	}, rig.notifier.notifications)
}
