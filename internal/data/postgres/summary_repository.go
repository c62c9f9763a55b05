// Package postgres provides the PostgreSQL export of account summaries.
// All rows of a run are written in one transaction, so a run is exported whole or not at all.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertSummaryQuery = `
		INSERT INTO account_summaries (run_id, source, client_id, available, held, total, locked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

// SummaryRepository implements the account.SummaryStore interface for PostgreSQL
type SummaryRepository struct {
	db     *persistence.PostgresDB
	logger *slog.Logger
	now    func() time.Time
}

// NewSummaryRepository creates a new PostgreSQL summary repository
func NewSummaryRepository(logger *slog.Logger, db *persistence.PostgresDB) account.SummaryStore {
	return &SummaryRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SaveSummaries inserts one row per account. Amounts are stored as ten-thousandths.
func (r *SummaryRepository) SaveSummaries(ctx context.Context, runID uuid.UUID, source string, summaries []account.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	createdAt := r.now().UTC()

	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		for _, s := range summaries {
			_, err := tx.Exec(ctx, insertSummaryQuery,
				runID,
				source,
				int32(s.ClientID),
				s.Available.Units(),
				s.Held.Units(),
				s.Total.Units(),
				s.Locked,
				createdAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert summary for client %d: %w", s.ClientID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save account summaries", "run_id", runID.String(), "source", source, "error", err)
		return fmt.Errorf("failed to save account summaries: %w", err)
	}

	r.logger.Debug("Saved account summaries", "run_id", runID.String(), "count", len(summaries))
	return nil
}
