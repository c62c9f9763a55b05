package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/client-account-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDLQProducer_EnqueueAndFlush(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulFlush", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(testLogger(), mockWriter, "ledger_rejections")

		record := []byte(`{"line":3,"reason":"negative_amount"}`)
		require.NoError(t, producer.Enqueue("run-1", "run-1:3", record, "negative_amount"))
		require.NoError(t, producer.Enqueue("run-1", "run-1:9", []byte(`{"line":9}`), "client_mismatch"))
		require.NoError(t, producer.Enqueue("run-2", "run-2:1", []byte(`{"line":1}`), "unknown_kind"))
		assert.Equal(t, 2, producer.Pending("run-1"))

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 2 {
				return false
			}
			msg := msgs[0]
			if string(msg.Key) != "run-1:3" || len(msg.Headers) != 1 {
				return false
			}
			if msg.Headers[0].Key != "dlq-reason" || string(msg.Headers[0].Value) != "negative_amount" {
				return false
			}
			var payload struct {
				Key       string          `json:"key"`
				Record    json.RawMessage `json:"record"`
				DLQReason string          `json:"dlq_reason"`
				Timestamp string          `json:"timestamp"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				return false
			}
			return payload.Key == "run-1:3" &&
				string(payload.Record) == string(record) &&
				payload.DLQReason == "negative_amount" &&
				payload.Timestamp != "" &&
				string(msgs[1].Key) == "run-1:9"
		})).Return(nil).Once()

		require.NoError(t, producer.Flush(ctx, "run-1"))
		assert.Zero(t, producer.Pending("run-1"))
		assert.Equal(t, 1, producer.Pending("run-2"), "Other batches stay buffered")
		mockWriter.AssertExpectations(t)
	})

	t.Run("FlushEmptyBatchWritesNothing", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(testLogger(), mockWriter, "ledger_rejections")

		require.NoError(t, producer.Flush(ctx, "nothing"))
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})

	t.Run("FlushReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(testLogger(), mockWriter, "ledger_rejections")
		require.NoError(t, producer.Enqueue("run-1", "run-1:1", []byte(`{}`), "unknown_kind"))

		writerError := errors.New("kafka DLQ write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.Flush(ctx, "run-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
		mockWriter.AssertExpectations(t)
	})

	t.Run("InvalidRecordJSON", func(t *testing.T) {
		producer := newDLQProducer(testLogger(), new(MockKafkaWriter), "ledger_rejections")

		err := producer.Enqueue("run-1", "run-1:1", []byte(`{not json`), "unknown_kind")
		assert.Error(t, err)
		assert.Zero(t, producer.Pending("run-1"))
	})

	t.Run("DiscardDropsBatch", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(testLogger(), mockWriter, "ledger_rejections")
		require.NoError(t, producer.Enqueue("run-1", "run-1:1", []byte(`{}`), "unknown_kind"))

		producer.Discard("run-1")

		assert.Zero(t, producer.Pending("run-1"))
		require.NoError(t, producer.Flush(ctx, "run-1"))
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})

	t.Run("NilProducerIsNoop", func(t *testing.T) {
		var producer *DLQProducer
		assert.NoError(t, producer.Enqueue("run-1", "k", []byte(`{}`), "r"))
		assert.NoError(t, producer.Flush(ctx, "run-1"))
		assert.NoError(t, producer.Close())
		producer.Discard("run-1")
		assert.Zero(t, producer.Pending("run-1"))
	})
}

func TestDLQProducer_Close(t *testing.T) {
	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(testLogger(), mockWriter, "ledger_rejections")
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(testLogger(), mockWriter, "ledger_rejections")
		closeError := errors.New("kafka DLQ close error")
		mockWriter.On("Close").Return(closeError).Once()

		err := producer.Close()
		require.Error(t, err)
		assert.ErrorIs(t, err, closeError)
	})
}

func TestNewDLQProducer_DisabledWithoutBrokers(t *testing.T) {
	producer, err := NewDLQProducer(context.Background(), testLogger(), &config.KafkaConfig{DLQTopic: "ledger_rejections"})

	require.NoError(t, err)
	assert.Nil(t, producer)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, splitBrokers(""))
}
