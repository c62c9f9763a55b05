package mongo

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/client-account-ledger/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	// The repository reuses its batch buffer, so keep a copy for assertions
	args := m.Called(ctx, slices.Clone(documents))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.InsertManyResult), args.Error(1)
}

var exportTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testEntries() []*journal.Entry {
	return []*journal.Entry{
		{TxID: 1, ClientID: 1, Kind: shared.TransactionKindDeposit, Amount: shared.MustParseAmount("1.5"), State: journal.StateClean},
		{TxID: 2, ClientID: 2, Kind: shared.TransactionKindDeposit, Amount: shared.MustParseAmount("2"), State: journal.StateChargedBack},
		{TxID: 3, ClientID: 1, Kind: shared.TransactionKindWithdrawal, Amount: shared.MustParseAmount("0.25"), State: journal.StateDisputed},
	}
}

func newTestRepository(collection documentInserter, batchSize int) *JournalRepository {
	repo := newJournalRepository(logger.Discard(), collection, batchSize)
	repo.now = func() time.Time { return exportTime }
	return repo
}

func TestJournalRepository_SaveEntries(t *testing.T) {
	ctx := context.Background()
	runID := uuid.New()

	t.Run("single batch", func(t *testing.T) {
		collection := new(MockCollection)
		repo := newTestRepository(collection, 10)

		collection.On("InsertMany", ctx, mock.MatchedBy(func(docs []interface{}) bool {
			if len(docs) != 3 {
				return false
			}
			first := docs[0].(journalDocument)
			return first.RunID == runID.String() &&
				first.Source == "tx.csv" &&
				first.TxID == 1 &&
				first.Amount == 15000 &&
				first.AmountText == "1.5000" &&
				first.State == journal.StateClean &&
				first.ExportedAt.Equal(exportTime) &&
				docs[1].(journalDocument).State == journal.StateChargedBack
		})).Return(&mongo.InsertManyResult{}, nil).Once()

		saved, err := repo.SaveEntries(ctx, runID, "tx.csv", slices.Values(testEntries()))
		require.NoError(t, err)
		assert.Equal(t, 3, saved)
		collection.AssertExpectations(t)
	})

	t.Run("splits into batches", func(t *testing.T) {
		collection := new(MockCollection)
		repo := newTestRepository(collection, 2)

		collection.On("InsertMany", ctx, mock.MatchedBy(func(docs []interface{}) bool { return len(docs) == 2 })).
			Return(&mongo.InsertManyResult{}, nil).Once()
		collection.On("InsertMany", ctx, mock.MatchedBy(func(docs []interface{}) bool {
			return len(docs) == 1 && docs[0].(journalDocument).TxID == 3
		})).Return(&mongo.InsertManyResult{}, nil).Once()

		saved, err := repo.SaveEntries(ctx, runID, "tx.csv", slices.Values(testEntries()))
		require.NoError(t, err)
		assert.Equal(t, 3, saved)
		collection.AssertExpectations(t)
	})

	t.Run("failure reports entries already stored", func(t *testing.T) {
		collection := new(MockCollection)
		repo := newTestRepository(collection, 2)
		insertErr := errors.New("write concern failed")

		collection.On("InsertMany", ctx, mock.MatchedBy(func(docs []interface{}) bool { return len(docs) == 2 })).
			Return(&mongo.InsertManyResult{}, nil).Once()
		collection.On("InsertMany", ctx, mock.MatchedBy(func(docs []interface{}) bool { return len(docs) == 1 })).
			Return(nil, insertErr).Once()

		saved, err := repo.SaveEntries(ctx, runID, "tx.csv", slices.Values(testEntries()))
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
		assert.Equal(t, 2, saved)
	})

	t.Run("empty journal", func(t *testing.T) {
		collection := new(MockCollection)
		repo := newTestRepository(collection, 2)

		saved, err := repo.SaveEntries(ctx, runID, "empty.csv", slices.Values([]*journal.Entry(nil)))
		require.NoError(t, err)
		assert.Zero(t, saved)
		collection.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
	})
}

func TestNewJournalRepository(t *testing.T) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := NewJournalRepository(logger.Discard(), client.Database("client_ledger"))
	assert.IsType(t, &JournalRepository{}, repo)
}
