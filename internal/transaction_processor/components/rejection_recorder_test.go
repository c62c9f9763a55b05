package components

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/client-account-ledger/internal/logger"
	"github.com/client-account-ledger/internal/transaction_processor/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDeadLetterPublisher mocks producers.DeadLetterPublisher
type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) Enqueue(batch, key string, value []byte, reason string) error {
	args := m.Called(batch, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Flush(ctx context.Context, batch string) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Discard(batch string) {
	m.Called(batch)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestRejectionRecorder_RecordRejection(t *testing.T) {
	ctx := context.Background()
	runID := uuid.New()
	rejection := &service.Rejection{
		RunID:  runID,
		Source: "tx.csv",
		Line:   12,
		Stage:  service.RejectionStageLedger,
		Reason: string(shared.IgnoreReasonInsufficientFunds),
		Record: shared.NewWithdrawal(3, 40, 25000),
	}

	t.Run("QueuesDeadLetter", func(t *testing.T) {
		publisher := new(MockDeadLetterPublisher)
		recorder := NewRejectionRecorder(publisher, logger.Discard())

		publisher.On("Enqueue", runID.String(), runID.String()+":12", mock.MatchedBy(func(value []byte) bool {
			var decoded map[string]any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return false
			}
			record, ok := decoded["record"].(map[string]any)
			return ok &&
				decoded["stage"] == "ledger" &&
				decoded["reason"] == "insufficient_funds" &&
				record["amount"] == "2.5000" &&
				record["type"] == "withdrawal"
		}), "insufficient_funds").Return(nil).Once()

		require.NoError(t, recorder.RecordRejection(ctx, rejection))
		publisher.AssertExpectations(t)
	})

	t.Run("PublisherError", func(t *testing.T) {
		publisher := new(MockDeadLetterPublisher)
		recorder := NewRejectionRecorder(publisher, logger.Discard())
		publisher.On("Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("boom")).Once()

		assert.Error(t, recorder.RecordRejection(ctx, rejection))
	})

	t.Run("DisabledPublisher", func(t *testing.T) {
		recorder := NewRejectionRecorder(nil, logger.Discard())

		assert.NoError(t, recorder.RecordRejection(ctx, rejection))
		assert.NoError(t, recorder.Flush(ctx, runID))
		recorder.Discard(runID)
	})
}

func TestRejectionRecorder_Flush(t *testing.T) {
	ctx := context.Background()
	runID := uuid.New()
	publisher := new(MockDeadLetterPublisher)
	recorder := NewRejectionRecorder(publisher, logger.Discard())

	publisher.On("Flush", ctx, runID.String()).Return(nil).Once()

	require.NoError(t, recorder.Flush(ctx, runID))
	publisher.AssertExpectations(t)
}

func TestRejectionRecorder_Discard(t *testing.T) {
	runID := uuid.New()
	publisher := new(MockDeadLetterPublisher)
	recorder := NewRejectionRecorder(publisher, logger.Discard())

	publisher.On("Discard", runID.String()).Return().Once()

	recorder.Discard(runID)
	publisher.AssertExpectations(t)
}
