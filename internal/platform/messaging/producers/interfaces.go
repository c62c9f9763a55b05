package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// DeadLetterPublisher buffers refused records per batch and publishes a batch at once
type DeadLetterPublisher interface {
	Enqueue(batch, key string, value []byte, reason string) error
	Flush(ctx context.Context, batch string) error
	Discard(batch string)
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
