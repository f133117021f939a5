package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"ticket-registry/internal/config"
	"ticket-registry/internal/logger"
	"ticket-registry/internal/models"
)

// Producer streams registry notifications to Kafka, one topic per
// notification type. Messages are keyed by event id so all notifications
// for an event land in order on one partition.
type Producer struct {
	eventCreated   *kafka.Writer
	ticketMinted   *kafka.Writer
	ticketUsed     *kafka.Writer
	eventCancelled *kafka.Writer
	Logger         *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		eventCreated:   writer(topics.EventCreated),
		ticketMinted:   writer(topics.TicketMinted),
		ticketUsed:     writer(topics.TicketUsed),
		eventCancelled: writer(topics.EventCancelled),
		Logger:         log,
	}
}

func (p *Producer) publish(w *kafka.Writer, eventID int64, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	p.Logger.LogKafka("PUBLISH", w.Topic, string(msgBytes))
	return w.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(strconv.FormatInt(eventID, 10)),
		Value: msgBytes,
	})
}

func (p *Producer) PublishEventCreated(n models.EventCreated) error {
	return p.publish(p.eventCreated, n.EventID, n)
}

func (p *Producer) PublishTicketMinted(n models.TicketMinted) error {
	return p.publish(p.ticketMinted, n.EventID, n)
}

func (p *Producer) PublishTicketUsed(n models.TicketUsed) error {
	return p.publish(p.ticketUsed, n.EventID, n)
}

func (p *Producer) PublishEventCancelled(n models.EventCancelled) error {
	return p.publish(p.eventCancelled, n.EventID, n)
}

// Close flushes and closes every writer.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.eventCreated, p.ticketMinted, p.ticketUsed, p.eventCancelled} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close writer %s: %w", w.Topic, err)
		}
	}
	return firstErr
}
