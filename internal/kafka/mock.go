package kafka

import (
	"fmt"

	"ticket-registry/internal/logger"
	"ticket-registry/internal/models"
)

// MockProducer is used when KAFKA_MOCK_MODE is on: notifications are logged
// and dropped so the registry runs without a broker.
type MockProducer struct {
	Logger *logger.Logger
}

func NewMockProducer(log *logger.Logger) *MockProducer {
	return &MockProducer{Logger: log}
}

func (m *MockProducer) PublishEventCreated(n models.EventCreated) error {
	m.Logger.LogKafka("MOCK", models.NotifyEventCreated, fmt.Sprintf("event %d (%s)", n.EventID, n.Name))
	return nil
}

func (m *MockProducer) PublishTicketMinted(n models.TicketMinted) error {
	m.Logger.LogKafka("MOCK", models.NotifyTicketMinted, fmt.Sprintf("ticket %d event %d owner %s", n.TicketID, n.EventID, n.Owner))
	return nil
}

func (m *MockProducer) PublishTicketUsed(n models.TicketUsed) error {
	m.Logger.LogKafka("MOCK", models.NotifyTicketUsed, fmt.Sprintf("ticket %d event %d", n.TicketID, n.EventID))
	return nil
}

func (m *MockProducer) PublishEventCancelled(n models.EventCancelled) error {
	m.Logger.LogKafka("MOCK", models.NotifyEventCancelled, fmt.Sprintf("event %d", n.EventID))
	return nil
}
