package registry

import "ticket-registry/internal/models"

// MultiNotifier publishes to every wired sink (kafka, sse, ...). All sinks
// are attempted; the first error is returned.
type MultiNotifier []Notifier

func (m MultiNotifier) PublishEventCreated(n models.EventCreated) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.PublishEventCreated(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiNotifier) PublishTicketMinted(n models.TicketMinted) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.PublishTicketMinted(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiNotifier) PublishTicketUsed(n models.TicketUsed) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.PublishTicketUsed(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m MultiNotifier) PublishEventCancelled(n models.EventCancelled) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.PublishEventCancelled(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
