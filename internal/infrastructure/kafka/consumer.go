package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, msg Message) error

type Consumer struct {
	reader *kafka.Reader
	logger logrus.FieldLogger
}

func NewConsumer(brokers []string, topic, groupID string, logger logrus.FieldLogger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger.WithField("component", "kafka")}
}

// Consume reads until ctx is cancelled. Handler errors are logged and the
// message is committed anyway.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.WithError(err).Warn("Error reading message")
				continue
			}

			if err := handler(ctx, FromKafka(msg)); err != nil {
				c.logger.WithError(err).WithFields(logrus.Fields{
					"key":       string(msg.Key),
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Error("Error handling message")
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// FromKafka converts a fetched message, reading the event type header.
func FromKafka(msg kafka.Message) Message {
	out := Message{Key: string(msg.Key), Value: msg.Value, Time: msg.Time}
	for _, h := range msg.Headers {
		if h.Key == EventTypeHeader {
			out.EventType = string(h.Value)
		}
	}
	return out
}
