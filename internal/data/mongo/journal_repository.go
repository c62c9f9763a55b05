package mongo

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// JournalCollectionName is the name of the journal collection in MongoDB
	JournalCollectionName = "journal_entries"

	defaultInsertBatchSize = 1000
)

// documentInserter is the part of *mongo.Collection the archive writes through
type documentInserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// journalDocument is the stored shape of a journal entry
type journalDocument struct {
	RunID      string                 `bson:"run_id"`
	Source     string                 `bson:"source"`
	TxID       shared.TxID            `bson:"tx_id"`
	ClientID   shared.ClientID        `bson:"client_id"`
	Kind       shared.TransactionKind `bson:"kind"`
	Amount     int64                  `bson:"amount"`      // Ten-thousandths
	AmountText string                 `bson:"amount_text"` // Four decimal places, for humans
	State      journal.State          `bson:"state"`
	ExportedAt time.Time              `bson:"exported_at"`
}

// JournalRepository implements the journal.Archive interface for MongoDB
type JournalRepository struct {
	collection documentInserter
	logger     *slog.Logger
	batchSize  int
	now        func() time.Time
}

// NewJournalRepository creates a new MongoDB journal archive
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) journal.Archive {
	return newJournalRepository(logger, db.Collection(JournalCollectionName), defaultInsertBatchSize)
}

func newJournalRepository(logger *slog.Logger, collection documentInserter, batchSize int) *JournalRepository {
	return &JournalRepository{
		collection: collection,
		logger:     logger,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// SaveEntries bulk-inserts the entries in batches. Entries already sent stay stored if a later batch fails.
func (r *JournalRepository) SaveEntries(ctx context.Context, runID uuid.UUID, source string, entries iter.Seq[*journal.Entry]) (int, error) {
	exportedAt := r.now().UTC()
	saved := 0
	batch := make([]interface{}, 0, r.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		opts := options.InsertMany().SetOrdered(true)
		if _, err := r.collection.InsertMany(ctx, batch, opts); err != nil {
			r.logger.Error("Failed to insert journal entries",
				"run_id", runID.String(),
				"saved", saved,
				"error", err)
			return fmt.Errorf("failed to insert journal entries: %w", err)
		}
		saved += len(batch)
		batch = batch[:0]
		return nil
	}

	for entry := range entries {
		batch = append(batch, journalDocument{
			RunID:      runID.String(),
			Source:     source,
			TxID:       entry.TxID,
			ClientID:   entry.ClientID,
			Kind:       entry.Kind,
			Amount:     entry.Amount.Units(),
			AmountText: entry.Amount.String(),
			State:      entry.State,
			ExportedAt: exportedAt,
		})
		if len(batch) == r.batchSize {
			if err := flush(); err != nil {
				return saved, err
			}
		}
	}
	if err := flush(); err != nil {
		return saved, err
	}

	r.logger.Debug("Saved journal entries", "run_id", runID.String(), "count", saved)
	return saved, nil
}
