package sse

import (
	"context"
	"sync"
	"time"

	"ticket-registry/internal/models"
)

// NotificationEmitter fans registry notifications out to SSE subscribers.
// Subscribers attach to one event id; slow clients are skipped rather than
// blocking the registry.
type NotificationEmitter struct {
	mu      sync.RWMutex
	clients map[int64][]chan models.Notification
}

func NewNotificationEmitter() *NotificationEmitter {
	return &NotificationEmitter{
		clients: make(map[int64][]chan models.Notification),
	}
}

// Subscribe adds a client for one event's notifications. The channel is
// removed when ctx is done.
func (e *NotificationEmitter) Subscribe(ctx context.Context, eventID int64) chan models.Notification {
	clientChan := make(chan models.Notification, 10)

	e.mu.Lock()
	e.clients[eventID] = append(e.clients[eventID], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(eventID, clientChan)
	}()

	return clientChan
}

func (e *NotificationEmitter) remove(eventID int64, clientChan chan models.Notification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	clients := e.clients[eventID]
	for i, c := range clients {
		if c == clientChan {
			e.clients[eventID] = append(clients[:i], clients[i+1:]...)
			close(c)
			break
		}
	}
	if len(e.clients[eventID]) == 0 {
		delete(e.clients, eventID)
	}
}

func (e *NotificationEmitter) emit(n models.Notification) {
	n.Timestamp = time.Now().UTC()

	e.mu.RLock()
	clients := e.clients[n.EventID]
	e.mu.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send so a stalled subscriber can't slow the registry
		select {
		case clientChan <- n:
		default:
		}
	}
}

func (e *NotificationEmitter) PublishEventCreated(n models.EventCreated) error {
	e.emit(models.Notification{
		Type:    models.NotifyEventCreated,
		EventID: n.EventID,
		Name:    n.Name,
		Date:    n.Date,
	})
	return nil
}

func (e *NotificationEmitter) PublishTicketMinted(n models.TicketMinted) error {
	e.emit(models.Notification{
		Type:     models.NotifyTicketMinted,
		EventID:  n.EventID,
		TicketID: n.TicketID,
		Owner:    n.Owner,
	})
	return nil
}

func (e *NotificationEmitter) PublishTicketUsed(n models.TicketUsed) error {
	e.emit(models.Notification{
		Type:     models.NotifyTicketUsed,
		EventID:  n.EventID,
		TicketID: n.TicketID,
	})
	return nil
}

func (e *NotificationEmitter) PublishEventCancelled(n models.EventCancelled) error {
	e.emit(models.Notification{
		Type:    models.NotifyEventCancelled,
		EventID: n.EventID,
	})
	return nil
}
