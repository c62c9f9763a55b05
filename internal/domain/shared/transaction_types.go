package shared

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTransactionKind = errors.New("unknown transaction kind")

// ClientID identifies an account holder
type ClientID uint16

// TxID identifies a deposit or withdrawal; dispute-lifecycle records reuse the id
// of the transaction they refer to
type TxID uint32

// TransactionKind defines the possible record types of the input log
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindDispute    TransactionKind = "dispute"
	TransactionKindResolve    TransactionKind = "resolve"
	TransactionKindChargeback TransactionKind = "chargeback"
)

// ParseTransactionKind normalizes case and surrounding whitespace
func ParseTransactionKind(s string) (TransactionKind, error) {
	kind := TransactionKind(strings.ToLower(strings.TrimSpace(s)))
	switch kind {
	case TransactionKindDeposit, TransactionKindWithdrawal,
		TransactionKindDispute, TransactionKindResolve, TransactionKindChargeback:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTransactionKind, s)
}

// MovesFunds reports whether the kind carries an amount and creates a journal entry
func (k TransactionKind) MovesFunds() bool {
	return k == TransactionKindDeposit || k == TransactionKindWithdrawal
}

// Outcome of applying one record to the ledger
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "APPLIED"
	OutcomeIgnored OutcomeStatus = "IGNORED"
)

// IgnoreReason tags why the ledger refused a well-formed record
type IgnoreReason string

const (
	IgnoreReasonDuplicateTransaction    IgnoreReason = "duplicate_transaction"
	IgnoreReasonAccountLocked           IgnoreReason = "account_locked"
	IgnoreReasonUnknownAccount          IgnoreReason = "unknown_account"
	IgnoreReasonInsufficientFunds       IgnoreReason = "insufficient_funds"
	IgnoreReasonUnknownTransaction      IgnoreReason = "unknown_transaction"
	IgnoreReasonClientMismatch          IgnoreReason = "client_mismatch"
	IgnoreReasonAlreadyDisputed         IgnoreReason = "already_disputed"
	IgnoreReasonChargedBack             IgnoreReason = "charged_back"
	IgnoreReasonNotDisputed             IgnoreReason = "not_disputed"
	IgnoreReasonWithdrawalNotDisputable IgnoreReason = "withdrawal_not_disputable"
	IgnoreReasonAmountOverflow          IgnoreReason = "amount_overflow"
)

// RejectionReason tags why a raw input row could not become a record
type RejectionReason string

const (
	RejectionReasonMalformedRow         RejectionReason = "malformed_row"
	RejectionReasonWrongColumnCount     RejectionReason = "wrong_column_count"
	RejectionReasonUnknownKind          RejectionReason = "unknown_kind"
	RejectionReasonInvalidClientID      RejectionReason = "invalid_client_id"
	RejectionReasonInvalidTransactionID RejectionReason = "invalid_transaction_id"
	RejectionReasonInvalidAmount        RejectionReason = "invalid_amount"
	RejectionReasonNegativeAmount       RejectionReason = "negative_amount"
	RejectionReasonTooManyDecimalPlaces RejectionReason = "too_many_decimal_places"
	RejectionReasonAmountOutOfRange     RejectionReason = "amount_out_of_range"
	RejectionReasonMissingAmount        RejectionReason = "missing_amount"
	RejectionReasonUnexpectedAmount     RejectionReason = "unexpected_amount"
)
