package account

import (
	"context"

	"github.com/google/uuid"
)

// SummaryStore persists the final summaries of a run outside the process
type SummaryStore interface {
	SaveSummaries(ctx context.Context, runID uuid.UUID, source string, summaries []Summary) error
}
