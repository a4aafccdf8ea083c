package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iplan/cellact/internal/config"
	"github.com/iplan/cellact/internal/model"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits accepted inbound events, one topic per event kind.
type Publisher struct {
	w      writer
	topics map[model.EventKind]string
}

func NewPublisher(c config.KafkaConfig) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}

	bt := c.BatchTimeout
	if bt <= 0 {
		bt = 50 * time.Millisecond
	}

	// topic is set per message
	w := &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           bt,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, c), nil
}

func newPublisher(w writer, c config.KafkaConfig) *Publisher {
	return &Publisher{
		w: w,
		topics: map[model.EventKind]string{
			model.EventNotification: c.NotificationTopic,
			model.EventReply:        c.ReplyTopic,
		},
	}
}

// Publish writes env keyed by its gateway message id so all events of one
// message land on the same partition.
func (p *Publisher) Publish(ctx context.Context, env model.Envelope) error {
	topic, ok := p.topics[env.Kind]
	if !ok || topic == "" {
		return fmt.Errorf("kafka: no topic for event kind %q", env.Kind)
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("kafka: marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(env.Key()),
		Value: value,
		Time:  env.OccurredAt.UTC(),
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(env.Kind)},
			{Key: "source", Value: []byte(env.Source)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}

	return nil
}

func (p *Publisher) Close() error { return p.w.Close() }
