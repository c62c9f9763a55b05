package account

import (
	"fmt"
	"iter"

	"github.com/client-account-ledger/internal/domain/shared"
)

// Repository holds the accounts of one run
type Repository interface {
	Get(clientID shared.ClientID) (*Account, error)
	// GetOrCreate returns the existing account or registers a new empty one
	GetOrCreate(clientID shared.ClientID) *Account
	// All yields accounts in the order they were first created
	All() iter.Seq[*Account]
	Len() int
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	ClientID shared.ClientID
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %d", e.ClientID)
}

// Is matches any ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	_, ok := target.(ErrAccountNotFound)
	return ok
}
