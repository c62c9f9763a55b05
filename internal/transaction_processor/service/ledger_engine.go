package service

import (
	"errors"
	"fmt"
	"iter"

	"github.com/client-account-ledger/internal/config"
	"github.com/client-account-ledger/internal/domain/account"
	"github.com/client-account-ledger/internal/domain/journal"
	"github.com/client-account-ledger/internal/domain/shared"
)

// WithdrawalDisputePolicy decides how dispute-lifecycle events treat withdrawal entries
type WithdrawalDisputePolicy string

const (
	// WithdrawalDisputeIgnore refuses disputes on withdrawals
	WithdrawalDisputeIgnore WithdrawalDisputePolicy = config.WithdrawalDisputeIgnore
	// WithdrawalDisputeSymmetric applies deposit arithmetic to withdrawals
	WithdrawalDisputeSymmetric WithdrawalDisputePolicy = config.WithdrawalDisputeSymmetric
	// WithdrawalDisputeReverse holds the withdrawn amount provisionally and returns it on chargeback
	WithdrawalDisputeReverse WithdrawalDisputePolicy = config.WithdrawalDisputeReverse
)

// ParseWithdrawalDisputePolicy validates a configured policy name
func ParseWithdrawalDisputePolicy(name string) (WithdrawalDisputePolicy, error) {
	switch p := WithdrawalDisputePolicy(name); p {
	case WithdrawalDisputeIgnore, WithdrawalDisputeSymmetric, WithdrawalDisputeReverse:
		return p, nil
	case "":
		return WithdrawalDisputeIgnore, nil
	default:
		return "", fmt.Errorf("unknown withdrawal dispute policy %q", name)
	}
}

// Outcome is the result of applying one record
type Outcome struct {
	Status shared.OutcomeStatus
	Reason shared.IgnoreReason
}

func applied() Outcome {
	return Outcome{Status: shared.OutcomeApplied}
}

func ignored(reason shared.IgnoreReason) Outcome {
	return Outcome{Status: shared.OutcomeIgnored, Reason: reason}
}

func (o Outcome) IsApplied() bool {
	return o.Status == shared.OutcomeApplied
}

func (o Outcome) String() string {
	if o.IsApplied() {
		return string(o.Status)
	}
	return fmt.Sprintf("%s(%s)", o.Status, o.Reason)
}

// disputeArithmetic moves funds for the three dispute-lifecycle events of one entry kind
type disputeArithmetic interface {
	hold(acc *account.Account, amount shared.Amount) error
	resolve(acc *account.Account, amount shared.Amount)
	chargeBack(acc *account.Account, amount shared.Amount)
}

// transferHold moves the amount from available to held and charges it back from held
type transferHold struct{}

func (transferHold) hold(acc *account.Account, amount shared.Amount) error {
	return acc.Hold(amount)
}

func (transferHold) resolve(acc *account.Account, amount shared.Amount) {
	acc.Release(amount)
}

func (transferHold) chargeBack(acc *account.Account, amount shared.Amount) {
	acc.ChargeBack(amount)
}

// provisionalHold holds funds that already left the account; a chargeback returns them
type provisionalHold struct{}

func (provisionalHold) hold(acc *account.Account, amount shared.Amount) error {
	return acc.HoldProvisional(amount)
}

func (provisionalHold) resolve(acc *account.Account, amount shared.Amount) {
	acc.DropHold(amount)
}

func (provisionalHold) chargeBack(acc *account.Account, amount shared.Amount) {
	acc.Release(amount)
	acc.Lock()
}

// LedgerEngine applies transaction records, in input order, to the accounts of one run.
// It is not safe for concurrent use.
type LedgerEngine struct {
	accounts account.Repository
	journal  journal.Repository
	policy   WithdrawalDisputePolicy
}

// NewLedgerEngine creates an engine over the given stores
func NewLedgerEngine(accounts account.Repository, journal journal.Repository, policy WithdrawalDisputePolicy) *LedgerEngine {
	return &LedgerEngine{
		accounts: accounts,
		journal:  journal,
		policy:   policy,
	}
}

// Apply processes one record. Ignored outcomes leave every balance and entry untouched.
func (e *LedgerEngine) Apply(record *shared.TransactionRecord) Outcome {
	switch record.Kind {
	case shared.TransactionKindDeposit:
		return e.deposit(record)
	case shared.TransactionKindWithdrawal:
		return e.withdraw(record)
	case shared.TransactionKindDispute:
		return e.dispute(record)
	case shared.TransactionKindResolve:
		return e.resolve(record)
	case shared.TransactionKindChargeback:
		return e.chargeBack(record)
	default:
		panic(fmt.Sprintf("ledger: unhandled transaction kind %q", record.Kind))
	}
}

// Accounts yields account summaries in first-appearance order
func (e *LedgerEngine) Accounts() iter.Seq[account.Summary] {
	return func(yield func(account.Summary) bool) {
		for acc := range e.accounts.All() {
			if !yield(acc.Summary()) {
				return
			}
		}
	}
}

// Entries yields the journal in registration order
func (e *LedgerEngine) Entries() iter.Seq[*journal.Entry] {
	return e.journal.All()
}

func (e *LedgerEngine) deposit(record *shared.TransactionRecord) Outcome {
	if e.isJournaled(record.TxID) {
		return ignored(shared.IgnoreReasonDuplicateTransaction)
	}

	acc, err := e.accounts.Get(record.ClientID)
	switch {
	case err == nil:
		if acc.Locked {
			return ignored(shared.IgnoreReasonAccountLocked)
		}
	case errors.Is(err, account.ErrAccountNotFound{}):
		acc = e.accounts.GetOrCreate(record.ClientID)
	default:
		panic(violation(record.ClientID, err))
	}

	if err := acc.Deposit(record.Amount); err != nil {
		return ignoredFor(record.ClientID, err)
	}
	e.mustRecord(record)
	return applied()
}

func (e *LedgerEngine) withdraw(record *shared.TransactionRecord) Outcome {
	if e.isJournaled(record.TxID) {
		return ignored(shared.IgnoreReasonDuplicateTransaction)
	}

	acc, err := e.accounts.Get(record.ClientID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return ignored(shared.IgnoreReasonUnknownAccount)
		}
		panic(violation(record.ClientID, err))
	}
	if acc.Locked {
		return ignored(shared.IgnoreReasonAccountLocked)
	}

	if err := acc.Withdraw(record.Amount); err != nil {
		return ignoredFor(record.ClientID, err)
	}
	e.mustRecord(record)
	return applied()
}

func (e *LedgerEngine) dispute(record *shared.TransactionRecord) Outcome {
	entry, acc, outcome, ok := e.lookup(record)
	if !ok {
		return outcome
	}
	arithmetic, reason := e.arithmeticFor(entry)
	if arithmetic == nil {
		return ignored(reason)
	}
	switch entry.State {
	case journal.StateDisputed:
		return ignored(shared.IgnoreReasonAlreadyDisputed)
	case journal.StateChargedBack:
		return ignored(shared.IgnoreReasonChargedBack)
	}

	if err := arithmetic.hold(acc, entry.Amount); err != nil {
		return ignoredFor(record.ClientID, err)
	}
	e.mustTransition(entry, journal.StateDisputed)
	return applied()
}

func (e *LedgerEngine) resolve(record *shared.TransactionRecord) Outcome {
	entry, acc, outcome, ok := e.lookupDisputed(record)
	if !ok {
		return outcome
	}
	arithmetic, reason := e.arithmeticFor(entry)
	if arithmetic == nil {
		return ignored(reason)
	}

	arithmetic.resolve(acc, entry.Amount)
	e.mustTransition(entry, journal.StateClean)
	return applied()
}

func (e *LedgerEngine) chargeBack(record *shared.TransactionRecord) Outcome {
	entry, acc, outcome, ok := e.lookupDisputed(record)
	if !ok {
		return outcome
	}
	arithmetic, reason := e.arithmeticFor(entry)
	if arithmetic == nil {
		return ignored(reason)
	}

	arithmetic.chargeBack(acc, entry.Amount)
	e.mustTransition(entry, journal.StateChargedBack)
	return applied()
}

// lookup finds the referenced entry and the owning account
func (e *LedgerEngine) lookup(record *shared.TransactionRecord) (*journal.Entry, *account.Account, Outcome, bool) {
	entry, err := e.journal.Get(record.TxID)
	if err != nil {
		if errors.Is(err, journal.ErrEntryNotFound{}) {
			return nil, nil, ignored(shared.IgnoreReasonUnknownTransaction), false
		}
		panic(violation(record.ClientID, err))
	}
	if entry.ClientID != record.ClientID {
		return nil, nil, ignored(shared.IgnoreReasonClientMismatch), false
	}

	// Journaled transactions always have an account
	acc, err := e.accounts.Get(entry.ClientID)
	if err != nil {
		panic(violation(entry.ClientID, err))
	}
	return entry, acc, Outcome{}, true
}

// lookupDisputed is lookup restricted to entries currently under dispute
func (e *LedgerEngine) lookupDisputed(record *shared.TransactionRecord) (*journal.Entry, *account.Account, Outcome, bool) {
	entry, acc, outcome, ok := e.lookup(record)
	if !ok {
		return nil, nil, outcome, false
	}
	switch entry.State {
	case journal.StateDisputed:
		return entry, acc, Outcome{}, true
	case journal.StateChargedBack:
		return nil, nil, ignored(shared.IgnoreReasonChargedBack), false
	default:
		return nil, nil, ignored(shared.IgnoreReasonNotDisputed), false
	}
}

// arithmeticFor selects how an entry's disputes move funds. A nil result means the
// entry cannot be disputed and carries the reason.
func (e *LedgerEngine) arithmeticFor(entry *journal.Entry) (disputeArithmetic, shared.IgnoreReason) {
	if entry.IsDeposit() {
		return transferHold{}, ""
	}
	switch e.policy {
	case WithdrawalDisputeSymmetric:
		return transferHold{}, ""
	case WithdrawalDisputeReverse:
		return provisionalHold{}, ""
	default:
		return nil, shared.IgnoreReasonWithdrawalNotDisputable
	}
}

func (e *LedgerEngine) isJournaled(txID shared.TxID) bool {
	_, err := e.journal.Get(txID)
	if err == nil {
		return true
	}
	if errors.Is(err, journal.ErrEntryNotFound{}) {
		return false
	}
	panic(violation(0, err))
}

func (e *LedgerEngine) mustRecord(record *shared.TransactionRecord) {
	entry, err := journal.NewEntry(record)
	if err == nil {
		err = e.journal.Record(entry)
	}
	if err != nil {
		panic(violation(record.ClientID, err))
	}
}

func (e *LedgerEngine) mustTransition(entry *journal.Entry, state journal.State) {
	if err := e.journal.SetState(entry.TxID, state); err != nil {
		panic(violation(entry.ClientID, fmt.Errorf("tx %d %s -> %s: %w", entry.TxID, entry.State, state, err)))
	}
}

// ignoredFor maps a refused account operation to its ignore reason
func ignoredFor(clientID shared.ClientID, err error) Outcome {
	switch {
	case errors.Is(err, account.ErrInsufficientFunds):
		return ignored(shared.IgnoreReasonInsufficientFunds)
	case errors.Is(err, shared.ErrAmountOverflow):
		return ignored(shared.IgnoreReasonAmountOverflow)
	default:
		panic(violation(clientID, err))
	}
}

func violation(clientID shared.ClientID, err error) account.InvariantViolation {
	return account.InvariantViolation{ClientID: clientID, Detail: err.Error()}
}
