package journal

import (
	"errors"
	"fmt"

	"github.com/client-account-ledger/internal/domain/shared"
)

var (
	ErrNotJournaled      = errors.New("only deposits and withdrawals are journaled")
	ErrInvalidTransition = errors.New("invalid dispute state transition")
)

// State defines the dispute lifecycle of a journaled transaction
type State string

const (
	StateClean       State = "CLEAN"
	StateDisputed    State = "DISPUTED"
	StateChargedBack State = "CHARGED_BACK"
)

// Entry records an applied deposit or withdrawal. State is its only mutable field.
type Entry struct {
	TxID     shared.TxID            `json:"tx_id" bson:"tx_id"`
	ClientID shared.ClientID        `json:"client_id" bson:"client_id"`
	Amount   shared.Amount          `json:"amount" bson:"amount"` // Stored in ten-thousandths
	Kind     shared.TransactionKind `json:"kind" bson:"kind"`
	State    State                  `json:"state" bson:"state"`
}

// NewEntry creates a clean entry for an applied deposit or withdrawal
func NewEntry(record *shared.TransactionRecord) (*Entry, error) {
	if !record.Kind.MovesFunds() {
		return nil, fmt.Errorf("%w: %s", ErrNotJournaled, record.Kind)
	}
	return &Entry{
		TxID:     record.TxID,
		ClientID: record.ClientID,
		Amount:   record.Amount,
		Kind:     record.Kind,
		State:    StateClean,
	}, nil
}

// CanTransition reports whether the lifecycle allows moving from the current state to next.
// CLEAN -> DISPUTED, DISPUTED -> CLEAN and DISPUTED -> CHARGED_BACK are the only edges.
func (e *Entry) CanTransition(next State) bool {
	switch e.State {
	case StateClean:
		return next == StateDisputed
	case StateDisputed:
		return next == StateClean || next == StateChargedBack
	default:
		return false
	}
}

// IsDeposit reports whether the entry originated from a deposit
func (e *Entry) IsDeposit() bool {
	return e.Kind == shared.TransactionKindDeposit
}
