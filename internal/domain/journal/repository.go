package journal

import (
	"fmt"
	"iter"

	"github.com/client-account-ledger/internal/domain/shared"
)

// Repository stores journal entries keyed by transaction id.
// Entries are never deleted; SetState is the only mutation after Record.
type Repository interface {
	Record(entry *Entry) error
	Get(txID shared.TxID) (*Entry, error)
	SetState(txID shared.TxID, state State) error
	// All yields entries in the order they were recorded
	All() iter.Seq[*Entry]
	Len() int
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	TxID shared.TxID
}

func (e ErrEntryNotFound) Error() string {
	return fmt.Sprintf("journal entry not found: %d", e.TxID)
}

// Is matches any ErrEntryNotFound; compare TxID explicitly via errors.As when it matters
func (e ErrEntryNotFound) Is(target error) bool {
	_, ok := target.(ErrEntryNotFound)
	return ok
}

// ErrDuplicateEntry indicates transaction id uniqueness violation
type ErrDuplicateEntry struct {
	TxID shared.TxID
}

func (e ErrDuplicateEntry) Error() string {
	return fmt.Sprintf("duplicate journal entry: %d", e.TxID)
}

// Is matches any ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	_, ok := target.(ErrDuplicateEntry)
	return ok
}
