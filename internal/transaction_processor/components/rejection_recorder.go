package components

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/client-account-ledger/internal/platform/messaging/producers"
	"github.com/client-account-ledger/internal/transaction_processor/service"
	"github.com/google/uuid"
)

type RejectionRecorderImpl struct {
	publisher producers.DeadLetterPublisher // nil when dead-lettering is disabled
	logger    *slog.Logger
}

func NewRejectionRecorder(publisher producers.DeadLetterPublisher, logger *slog.Logger) service.RejectionRecorder {
	return &RejectionRecorderImpl{
		publisher: publisher,
		logger:    logger,
	}
}

// RecordRejection logs the rejection and queues it for the dead-letter topic
func (r *RejectionRecorderImpl) RecordRejection(ctx context.Context, rejection *service.Rejection) error {
	r.logger.DebugContext(ctx, "Record rejected",
		"run_id", rejection.RunID.String(),
		"line", rejection.Line,
		"stage", rejection.Stage,
		"reason", rejection.Reason,
		"detail", rejection.Detail,
	)

	if r.publisher == nil {
		return nil
	}

	value, err := json.Marshal(rejection)
	if err != nil {
		return fmt.Errorf("failed to marshal rejection at line %d: %w", rejection.Line, err)
	}
	key := fmt.Sprintf("%s:%d", rejection.RunID, rejection.Line)
	return r.publisher.Enqueue(rejection.RunID.String(), key, value, rejection.Reason)
}

// Flush publishes everything queued for the run
func (r *RejectionRecorderImpl) Flush(ctx context.Context, runID uuid.UUID) error {
	if r.publisher == nil {
		return nil
	}
	return r.publisher.Flush(ctx, runID.String())
}

// Discard forgets everything queued for the run
func (r *RejectionRecorderImpl) Discard(runID uuid.UUID) {
	if r.publisher == nil {
		return
	}
	r.publisher.Discard(runID.String())
}
