package shared

import "fmt"

// TransactionRecord is one well-formed row of the input log.
// Amount is meaningful only when Kind.MovesFunds().
type TransactionRecord struct {
	Kind     TransactionKind `json:"type"`
	ClientID ClientID        `json:"client"`
	TxID     TxID            `json:"tx"`
	Amount   Amount          `json:"amount"`
	Line     int             `json:"line"` // Source row number, 1-based, diagnostics only
}

func NewDeposit(client ClientID, tx TxID, amount Amount) *TransactionRecord {
	return &TransactionRecord{Kind: TransactionKindDeposit, ClientID: client, TxID: tx, Amount: amount}
}

func NewWithdrawal(client ClientID, tx TxID, amount Amount) *TransactionRecord {
	return &TransactionRecord{Kind: TransactionKindWithdrawal, ClientID: client, TxID: tx, Amount: amount}
}

func NewDispute(client ClientID, tx TxID) *TransactionRecord {
	return &TransactionRecord{Kind: TransactionKindDispute, ClientID: client, TxID: tx}
}

func NewResolve(client ClientID, tx TxID) *TransactionRecord {
	return &TransactionRecord{Kind: TransactionKindResolve, ClientID: client, TxID: tx}
}

func NewChargeback(client ClientID, tx TxID) *TransactionRecord {
	return &TransactionRecord{Kind: TransactionKindChargeback, ClientID: client, TxID: tx}
}

func (r *TransactionRecord) String() string {
	if r.Kind.MovesFunds() {
		return fmt.Sprintf("%s client=%d tx=%d amount=%s", r.Kind, r.ClientID, r.TxID, r.Amount)
	}
	return fmt.Sprintf("%s client=%d tx=%d", r.Kind, r.ClientID, r.TxID)
}
