package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticket-registry/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	// cache=shared keeps the schema alive only while a connection is open
	sqldb.SetMaxIdleConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Ticket)(nil),
		(*models.Sequence)(nil),
	} {
		if err := bunDB.ResetModel(context.Background(), model); err != nil {
			t.Fatalf("Failed to reset model: %v", err)
		}
	}

	store := &DB{Bun: bunDB}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return store
}

func TestCreateAndGetEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	event := &models.Event{
		ID:           1,
		Name:         "Concert",
		Date:         time.Now().Add(48 * time.Hour).Round(time.Second),
		Venue:        "Arena",
		TotalTickets: 100,
		TicketsSold:  0,
		BasePrice:    2500,
		CreatedAt:    time.Now().Round(time.Second),
	}
	if err := store.CreateEvent(ctx, event); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}

	got, err := store.GetEventByID(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to retrieve event: %v", err)
	}
	if got.Name != event.Name {
		t.Errorf("Expected name %s, got %s", event.Name, got.Name)
	}
	if got.TotalTickets != event.TotalTickets {
		t.Errorf("Expected capacity %d, got %d", event.TotalTickets, got.TotalTickets)
	}
}

func TestGetEventNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetEventByID(context.Background(), 99)
	if err != models.ErrEventNotFound {
		t.Errorf("Expected ErrEventNotFound, got %v", err)
	}
}

func TestUpdateEvent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	event := &models.Event{ID: 1, Name: "Concert", Date: time.Now(), TotalTickets: 10, BasePrice: 100, CreatedAt: time.Now()}
	if err := store.CreateEvent(ctx, event); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}

	event.TicketsSold = 3
	event.Cancelled = true
	if err := store.UpdateEvent(ctx, event); err != nil {
		t.Fatalf("Failed to update event: %v", err)
	}

	got, err := store.GetEventByID(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to retrieve event: %v", err)
	}
	if got.TicketsSold != 3 || !got.Cancelled {
		t.Errorf("Update not persisted: sold=%d cancelled=%v", got.TicketsSold, got.Cancelled)
	}
}

func TestTicketLifecycleRoundtrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	ticket := &models.Ticket{ID: 1, EventID: 1, Seat: "A1", Price: 100, IssuedAt: time.Now().Round(time.Second)}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}

	ticket.Used = true
	ticket.UsedAt = time.Now().Round(time.Second)
	if err := store.UpdateTicket(ctx, ticket); err != nil {
		t.Fatalf("Failed to update ticket: %v", err)
	}

	got, err := store.GetTicketByID(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to retrieve ticket: %v", err)
	}
	if !got.Used {
		t.Error("Expected ticket to be used")
	}

	if err := store.DeleteTicket(ctx, 1); err != nil {
		t.Fatalf("Failed to delete ticket: %v", err)
	}
	if _, err := store.GetTicketByID(ctx, 1); err != models.ErrTicketNotFound {
		t.Errorf("Expected ErrTicketNotFound after delete, got %v", err)
	}
}

func TestSequencesAdvanceAndSurviveDeletes(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id1, err := store.NextTicketID(ctx)
	if err != nil {
		t.Fatalf("Failed to get next ticket id: %v", err)
	}
	id2, err := store.NextTicketID(ctx)
	if err != nil {
		t.Fatalf("Failed to get next ticket id: %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Errorf("Expected ids 1, 2, got %d, %d", id1, id2)
	}

	// Deleting the newest ticket must not recycle its id
	ticket := &models.Ticket{ID: id2, EventID: 1, Price: 100, IssuedAt: time.Now()}
	if err := store.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}
	if err := store.DeleteTicket(ctx, id2); err != nil {
		t.Fatalf("Failed to delete ticket: %v", err)
	}

	id3, err := store.NextTicketID(ctx)
	if err != nil {
		t.Fatalf("Failed to get next ticket id: %v", err)
	}
	if id3 != 3 {
		t.Errorf("Expected id 3 after delete, got %d", id3)
	}

	// Event and ticket sequences are independent namespaces
	eventID, err := store.NextEventID(ctx)
	if err != nil {
		t.Fatalf("Failed to get next event id: %v", err)
	}
	if eventID != 1 {
		t.Errorf("Expected event id 1, got %d", eventID)
	}
}

func TestEventStats(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	tickets := []models.Ticket{
		{ID: 1, EventID: 1, Price: 100, Used: true, IssuedAt: time.Now()},
		{ID: 2, EventID: 1, Price: 150, IssuedAt: time.Now()},
		{ID: 3, EventID: 2, Price: 999, IssuedAt: time.Now()},
	}
	for i := range tickets {
		if err := store.CreateTicket(ctx, &tickets[i]); err != nil {
			t.Fatalf("Failed to create ticket: %v", err)
		}
	}

	stats, err := store.EventStats(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to load stats: %v", err)
	}
	if stats.Outstanding != 2 {
		t.Errorf("Expected 2 outstanding tickets, got %d", stats.Outstanding)
	}
	if stats.Used != 1 {
		t.Errorf("Expected 1 used ticket, got %d", stats.Used)
	}
	if stats.Revenue != 250 {
		t.Errorf("Expected revenue 250, got %d", stats.Revenue)
	}
}
