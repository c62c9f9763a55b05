package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/client-account-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const reasonHeader = "dlq-reason"

// DLQProducer publishes refused ledger records to a dead-letter topic.
// A nil *DLQProducer is valid and drops everything.
type DLQProducer struct {
	logger   *slog.Logger
	writer   KafkaWriter
	dlqTopic string

	mu      sync.Mutex
	pending map[string][]kafka.Message
}

// dlqPayload is the JSON value of every dead-letter message
type dlqPayload struct {
	Key       string          `json:"key"`
	Record    json.RawMessage `json:"record"`
	DLQReason string          `json:"dlq_reason"`
	Timestamp string          `json:"timestamp"`
}

// NewDLQProducer returns a nil producer if publishing is not configured
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if !cfg.Enabled() {
		logger.Info("Kafka brokers or DLQ topic not configured, dead-letter publishing disabled")
		return nil, nil
	}

	brokers := splitBrokers(cfg.Brokers)
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dlq producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(ctx, conn, cfg.DLQTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.WriteTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write DLQ messages", "topic", cfg.DLQTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Wrote DLQ messages", "topic", cfg.DLQTopic, "count", len(messages))
			}
		},
	}

	return newDLQProducer(logger, writer, cfg.DLQTopic), nil
}

func newDLQProducer(logger *slog.Logger, writer KafkaWriter, topic string) *DLQProducer {
	return &DLQProducer{
		logger:   logger,
		writer:   writer,
		dlqTopic: topic,
		pending:  make(map[string][]kafka.Message),
	}
}

// Enqueue buffers one message for batch; nothing is sent until Flush
func (p *DLQProducer) Enqueue(batch, key string, value []byte, reason string) error {
	if p == nil || p.writer == nil {
		return nil
	}

	payload, err := json.Marshal(dlqPayload{
		Key:       key,
		Record:    json.RawMessage(value),
		DLQReason: reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message %s: %w", key, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: reasonHeader, Value: []byte(reason)},
		},
	}

	p.mu.Lock()
	p.pending[batch] = append(p.pending[batch], msg)
	p.mu.Unlock()
	return nil
}

// Flush publishes and forgets every message buffered for batch
func (p *DLQProducer) Flush(ctx context.Context, batch string) error {
	if p == nil || p.writer == nil {
		return nil
	}

	p.mu.Lock()
	msgs := p.pending[batch]
	delete(p.pending, batch)
	p.mu.Unlock()

	if len(msgs) == 0 {
		return nil
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("Failed to publish dead letters",
			"topic", p.dlqTopic,
			"batch", batch,
			"count", len(msgs),
			"error", err,
		)
		return fmt.Errorf("failed to publish %d messages to DLQ %s: %w", len(msgs), p.dlqTopic, err)
	}

	p.logger.Info("Published dead letters", "topic", p.dlqTopic, "batch", batch, "count", len(msgs))
	return nil
}

// Discard drops everything buffered for batch
func (p *DLQProducer) Discard(batch string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	delete(p.pending, batch)
	p.mu.Unlock()
}

// Pending returns the number of messages buffered for batch
func (p *DLQProducer) Pending(batch string) int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending[batch])
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing DLQ Kafka producer", "topic", p.dlqTopic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dlq kafka writer for topic %s: %w", p.dlqTopic, err)
	}
	return nil
}
