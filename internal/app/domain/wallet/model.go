// Package wallet defines the append-only transaction ledger behind each
// user's wallet balance.
package wallet

import "time"

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

// TransactionStatus tracks settlement of a ledger entry. Only completed
// entries count toward the balance.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one ledger entry. Reference carries an external correlation
// id such as a payment gateway reference; it is unique when present.
type Transaction struct {
	ID          string
	UserID      string
	Type        TransactionType
	Amount      int64
	Description string
	Reference   string
	Status      TransactionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Balance folds a transaction list into the wallet balance: completed credits
// minus completed debits. The stored running balance must always equal this
// sum.
func Balance(txs []Transaction) int64 {
	var balance int64
	for _, tx := range txs {
		if tx.Status != StatusCompleted {
			continue
		}
		switch tx.Type {
		case TypeCredit:
			balance += tx.Amount
		case TypeDebit:
			balance -= tx.Amount
		}
	}
	return balance
}
