package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventType names a lifecycle transition
type EventType string

const (
	EventNeedCreated       EventType = "need.created"
	EventTaskAccepted      EventType = "task.accepted"
	EventTaskCompleted     EventType = "task.completed"
	EventFeedbackSubmitted EventType = "feedback.submitted"
)

// Event is emitted after a lifecycle change has been committed
type Event struct {
	Type       EventType   `json:"type"`
	EntityID   uint        `json:"entity_id"`
	ProviderID uint        `json:"provider_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EventPublisher delivers lifecycle events to interested parties
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// MultiPublisher fans an event out to every publisher and returns the first error
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// KafkaPublisher writes events as JSON to a Kafka topic
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates an async writer; delivery failures are logged
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Printf("❌ Kafka delivery failed for %d events: %v", len(messages), err)
			}
		},
	}
	log.Printf("📡 Kafka publisher ready: brokers=%v topic=%s", brokers, topic)
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := kafkaMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// kafkaMessage keys by type and entity so one entity's events stay on one partition
func kafkaMessage(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%d", event.Type, event.EntityID)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

// emit publishes without failing the caller; the state change already committed
func emit(ctx context.Context, pub EventPublisher, event Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish %s for %d: %v", event.Type, event.EntityID, err)
	}
}
