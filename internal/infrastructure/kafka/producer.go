package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventTypeHeader names the header carrying the event type, so consumers
// can dispatch without decoding the payload first.
const EventTypeHeader = "event-type"

// Message is an event ready to be written to the topic.
type Message struct {
	Key       string
	EventType string
	Value     []byte
	Time      time.Time
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish writes messages in order. Messages sharing a key land on the same
// partition.
func (p *Producer) Publish(ctx context.Context, msgs ...Message) error {
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		ts := m.Time
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		out = append(out, kafka.Message{
			Key:     []byte(m.Key),
			Value:   m.Value,
			Time:    ts,
			Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(m.EventType)}},
		})
	}
	return p.writer.WriteMessages(ctx, out...)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
