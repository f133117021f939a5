package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ticket-registry/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// Init creates the registry tables and seeds the id sequences. Safe to call
// on every startup.
func (d *DB) Init(ctx context.Context) error {
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Ticket)(nil),
		(*models.Sequence)(nil),
	} {
		if _, err := d.Bun.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, name := range []string{models.SequenceEvents, models.SequenceTickets} {
		seq := models.Sequence{Name: name, Value: 0}
		if _, err := d.Bun.NewInsert().
			Model(&seq).
			Ignore().
			Exec(ctx); err != nil {
			return fmt.Errorf("seed sequence %s: %w", name, err)
		}
	}
	return nil
}

// ---------------- events ----------------

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("tickets_sold", "cancelled").
		Where("id = ?", event.ID).
		Exec(ctx)
	return err
}

// ---------------- tickets ----------------

func (d *DB) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := d.Bun.NewUpdate().
		Model(ticket).
		Column("used", "used_at").
		Where("id = ?", ticket.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteTicket(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) GetTicketsByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Scan(ctx)
	return tickets, err
}

// EventStats aggregates the surviving tickets of an event. tickets_sold is
// a counter on the event row (refunds do not decrement it), so the caller
// overlays it; outstanding and used come from the rows that still exist.
func (d *DB) EventStats(ctx context.Context, eventID int64) (*models.EventStats, error) {
	stats := models.EventStats{EventID: eventID}
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("COUNT(*) AS outstanding").
		ColumnExpr("COALESCE(SUM(CASE WHEN used THEN 1 ELSE 0 END), 0) AS used").
		ColumnExpr("COALESCE(SUM(price), 0) AS revenue").
		Where("event_id = ?", eventID).
		Scan(ctx, &stats.Outstanding, &stats.Used, &stats.Revenue)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ---------------- sequences ----------------

func (d *DB) NextEventID(ctx context.Context) (int64, error) {
	return d.nextID(ctx, models.SequenceEvents)
}

func (d *DB) NextTicketID(ctx context.Context) (int64, error) {
	return d.nextID(ctx, models.SequenceTickets)
}

// nextID increments a named sequence and returns the new value. Mutating
// operations are serialized by the registry, so read-then-update is not
// racing another writer on the same registry instance.
func (d *DB) nextID(ctx context.Context, name string) (int64, error) {
	var seq models.Sequence
	err := d.Bun.NewSelect().
		Model(&seq).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sequence %s: %w", name, err)
	}
	seq.Value++
	if _, err := d.Bun.NewUpdate().
		Model(&seq).
		Column("value").
		Where("name = ?", name).
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	return seq.Value, nil
}
