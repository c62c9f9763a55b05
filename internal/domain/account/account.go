package account

import (
	"errors"
	"fmt"

	"github.com/client-account-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// InvariantViolation is raised via panic when a balance would leave its valid range.
// It signals a defect in the caller's guards, never bad input.
type InvariantViolation struct {
	ClientID shared.ClientID
	Detail   string
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("account %d invariant violated: %s", v.ClientID, v.Detail)
}

// Account holds the balances of one client.
// Total is derived as Available + Held; Locked never resets once set.
type Account struct {
	ClientID  shared.ClientID `json:"client_id"`
	Available shared.Amount   `json:"available"` // Stored in ten-thousandths
	Held      shared.Amount   `json:"held"`
	Locked    bool            `json:"locked"`
}

// Summary is the final, read-only view of an account
type Summary struct {
	ClientID  shared.ClientID
	Available shared.Amount
	Held      shared.Amount
	Total     shared.Amount
	Locked    bool
}

// NewAccount creates an empty, unlocked account
func NewAccount(clientID shared.ClientID) *Account {
	return &Account{ClientID: clientID}
}

// Total returns Available + Held. Credits are checked against it, so it cannot overflow.
func (a *Account) Total() shared.Amount {
	return a.Available + a.Held
}

// Summary snapshots the account
func (a *Account) Summary() Summary {
	return Summary{
		ClientID:  a.ClientID,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// Deposit adds amount to available funds
func (a *Account) Deposit(amount shared.Amount) error {
	if err := a.checkCredit(amount); err != nil {
		return err
	}
	available, err := a.Available.Add(amount)
	if err != nil {
		return err
	}
	a.apply(available, a.Held)
	return nil
}

// Withdraw removes amount from available funds
func (a *Account) Withdraw(amount shared.Amount) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if a.Available < amount {
		return ErrInsufficientFunds
	}
	a.apply(a.Available-amount, a.Held)
	return nil
}

// CanWithdraw checks if the account has sufficient available funds
func (a *Account) CanWithdraw(amount shared.Amount) bool {
	return a.Available >= amount
}

// Hold moves amount from available to held; total is unchanged
func (a *Account) Hold(amount shared.Amount) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if a.Available < amount {
		return ErrInsufficientFunds
	}
	held, err := a.Held.Add(amount)
	if err != nil {
		return err
	}
	a.apply(a.Available-amount, held)
	return nil
}

// Release moves amount from held back to available; total is unchanged
func (a *Account) Release(amount shared.Amount) {
	a.mustNotBeNegative(amount)
	a.apply(a.Available+amount, a.Held-amount)
}

// HoldProvisional adds amount to held without touching available; total rises
func (a *Account) HoldProvisional(amount shared.Amount) error {
	if err := a.checkCredit(amount); err != nil {
		return err
	}
	held, err := a.Held.Add(amount)
	if err != nil {
		return err
	}
	a.apply(a.Available, held)
	return nil
}

// DropHold removes amount from held; total falls
func (a *Account) DropHold(amount shared.Amount) {
	a.mustNotBeNegative(amount)
	a.apply(a.Available, a.Held-amount)
}

// ChargeBack removes amount from held and freezes the account
func (a *Account) ChargeBack(amount shared.Amount) {
	a.DropHold(amount)
	a.Locked = true
}

// Lock freezes the account against deposits and withdrawals
func (a *Account) Lock() {
	a.Locked = true
}

func (a *Account) checkCredit(amount shared.Amount) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if _, err := a.Total().Add(amount); err != nil {
		return err
	}
	return nil
}

func (a *Account) mustNotBeNegative(amount shared.Amount) {
	if amount < 0 {
		panic(InvariantViolation{ClientID: a.ClientID, Detail: fmt.Sprintf("negative amount %s", amount)})
	}
}

// apply commits new balances after asserting both stay non-negative
func (a *Account) apply(available, held shared.Amount) {
	if available.IsNegative() {
		panic(InvariantViolation{ClientID: a.ClientID, Detail: fmt.Sprintf("available would become %s", available)})
	}
	if held.IsNegative() {
		panic(InvariantViolation{ClientID: a.ClientID, Detail: fmt.Sprintf("held would become %s", held)})
	}
	a.Available = available
	a.Held = held
}
