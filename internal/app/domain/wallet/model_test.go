package wallet

import "testing"

func TestBalanceCountsOnlyCompleted(t *testing.T) {
	txs := []Transaction{
		{Type: TypeCredit, Amount: 5000, Status: StatusCompleted},
		{Type: TypeCredit, Amount: 2000, Status: StatusPending},
		{Type: TypeCredit, Amount: 1000, Status: StatusFailed},
		{Type: TypeDebit, Amount: 1500, Status: StatusCompleted},
		{Type: TypeDebit, Amount: 800, Status: StatusPending},
	}
	if got := Balance(txs); got != 3500 {
		t.Fatalf("balance: got %d, want 3500", got)
	}
}

func TestBalanceEmpty(t *testing.T) {
	if got := Balance(nil); got != 0 {
		t.Fatalf("empty ledger balance: %d", got)
	}
}
