package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"crpstore/internal/platform/kafka/producer"
	audit "crpstore/pkg/platform/audit"
)

// DefaultTopic receives audit events when no topic is configured.
const DefaultTopic = "crp.audit"

// MessageProducer is satisfied by *producer.Producer.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink publishes events as JSON keyed by subject, so one user's events
// stay ordered within a partition.
type KafkaSink struct {
	producer MessageProducer
	topic    string
}

func NewKafka(p MessageProducer, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: map[string]string{
			"event":    event.Action,
			"category": string(audit.AuditEvent(event.Action).Category()),
		},
	})
}
