package journal

import (
	"context"
	"iter"

	"github.com/google/uuid"
)

// Archive keeps the journal of finished runs. SaveEntries returns how many entries it stored.
type Archive interface {
	SaveEntries(ctx context.Context, runID uuid.UUID, source string, entries iter.Seq[*Entry]) (int, error)
}
