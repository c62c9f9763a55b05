package memory

import (
	"iter"

	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/domain/shared"
)

// AccountRepository implements the account.Repository interface, remembering
// the order in which clients first appeared
type AccountRepository struct {
	accounts map[shared.ClientID]*account.Account
	order    []shared.ClientID
}

// NewAccountRepository creates an empty account store
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[shared.ClientID]*account.Account),
	}
}

// Get returns the live account for clientID
func (r *AccountRepository) Get(clientID shared.ClientID) (*account.Account, error) {
	acc, ok := r.accounts[clientID]
	if !ok {
		return nil, account.ErrAccountNotFound{ClientID: clientID}
	}
	return acc, nil
}

// GetOrCreate returns the existing account or registers a new empty one
func (r *AccountRepository) GetOrCreate(clientID shared.ClientID) *account.Account {
	if acc, ok := r.accounts[clientID]; ok {
		return acc
	}
	acc := account.NewAccount(clientID)
	r.accounts[clientID] = acc
	r.order = append(r.order, clientID)
	return acc
}

// All yields accounts in first-appearance order
func (r *AccountRepository) All() iter.Seq[*account.Account] {
	return func(yield func(*account.Account) bool) {
		for _, clientID := range r.order {
			if !yield(r.accounts[clientID]) {
				return
			}
		}
	}
}

func (r *AccountRepository) Len() int {
	return len(r.order)
}
