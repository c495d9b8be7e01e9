package wallets

import (
	"context"
	"strings"
	"testing"

	"github.com/marketrun/platform/internal/app/domain/wallet"
	"github.com/marketrun/platform/internal/app/storage/memory"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/payment"
)

type stubGateway struct {
	initErr   error
	verify    payment.VerifyResult
	verifyErr error
	initCalls int
}

func (g *stubGateway) Initialize(_ context.Context, email string, amountNaira int64, reference string) (payment.InitResult, error) {
	g.initCalls++
	if g.initErr != nil {
		return payment.InitResult{}, g.initErr
	}
	return payment.InitResult{AuthorizationURL: "https://pay.test/" + reference, AccessCode: "ac_test", Reference: reference}, nil
}

func (g *stubGateway) Verify(_ context.Context, _ string) (payment.VerifyResult, error) {
	if g.verifyErr != nil {
		return payment.VerifyResult{}, g.verifyErr
	}
	return g.verify, nil
}

func TestCreditDebitBalance(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "u1", 5000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := svc.Debit(ctx, "u1", 1500, "order", ""); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := svc.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 3500 {
		t.Fatalf("balance: got %d, want 3500", balance)
	}
}

func TestDebitInsufficientFundsNamesShortfall(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "u1", 3000, "top-up", ""); err != nil {
		t.Fatalf("credit: %v", err)
	}
	_, err := svc.Debit(ctx, "u1", 5000, "order", "")
	if err == nil {
		t.Fatal("expected insufficient funds error")
	}
	if !errors.Is(err, errors.KindPrecondition) {
		t.Fatalf("unexpected error kind: %v", err)
	}
	if !strings.Contains(err.Error(), "2000") {
		t.Fatalf("error should name the shortfall: %v", err)
	}
}

func TestCreditDuplicateReferenceRejected(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	if _, err := svc.Credit(ctx, "u1", 500, "referral reward", "referral_u2"); err != nil {
		t.Fatalf("first credit: %v", err)
	}
	_, err := svc.Credit(ctx, "u1", 500, "referral reward", "referral_u2")
	if !errors.Is(err, errors.KindConflict) {
		t.Fatalf("expected conflict for duplicate reference, got %v", err)
	}
}

func TestTopUpLifecycle(t *testing.T) {
	gw := &stubGateway{verify: payment.VerifyResult{Status: payment.VerifySuccess, AmountKobo: 200000}}
	svc := New(memory.New(), gw, nil)
	ctx := context.Background()

	topUp, err := svc.BeginTopUp(ctx, "u1", "ade@example.com", 2000)
	if err != nil {
		t.Fatalf("begin top-up: %v", err)
	}
	if topUp.Transaction.Status != wallet.StatusPending {
		t.Fatalf("top-up should start pending: %s", topUp.Transaction.Status)
	}
	if topUp.AuthorizationURL == "" {
		t.Fatal("authorization url missing")
	}

	// Pending entries never count toward the balance.
	balance, err := svc.Balance(ctx, "u1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("pending top-up leaked into balance: %d", balance)
	}

	settled, err := svc.CompleteTopUp(ctx, topUp.Transaction.Reference)
	if err != nil {
		t.Fatalf("complete top-up: %v", err)
	}
	if settled.Status != wallet.StatusCompleted {
		t.Fatalf("top-up not completed: %s", settled.Status)
	}

	balance, _ = svc.Balance(ctx, "u1")
	if balance != 2000 {
		t.Fatalf("balance after top-up: %d", balance)
	}

	// Re-verifying a settled top-up is a no-op.
	again, err := svc.CompleteTopUp(ctx, topUp.Transaction.Reference)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if again.Status != wallet.StatusCompleted {
		t.Fatalf("repeat complete changed status: %s", again.Status)
	}
	if balance, _ := svc.Balance(ctx, "u1"); balance != 2000 {
		t.Fatalf("repeat complete changed balance: %d", balance)
	}
}

func TestTopUpFailedAtGateway(t *testing.T) {
	gw := &stubGateway{verify: payment.VerifyResult{Status: payment.VerifyFailed}}
	svc := New(memory.New(), gw, nil)
	ctx := context.Background()

	topUp, err := svc.BeginTopUp(ctx, "u1", "ade@example.com", 2000)
	if err != nil {
		t.Fatalf("begin top-up: %v", err)
	}
	settled, err := svc.CompleteTopUp(ctx, topUp.Transaction.Reference)
	if err != nil {
		t.Fatalf("complete top-up: %v", err)
	}
	if settled.Status != wallet.StatusFailed {
		t.Fatalf("expected failed status, got %s", settled.Status)
	}
	if balance, _ := svc.Balance(ctx, "u1"); balance != 0 {
		t.Fatalf("failed top-up leaked into balance: %d", balance)
	}
}

func TestTopUpAmountMismatchFails(t *testing.T) {
	// Gateway settled less than the requested amount.
	gw := &stubGateway{verify: payment.VerifyResult{Status: payment.VerifySuccess, AmountKobo: 50000}}
	svc := New(memory.New(), gw, nil)
	ctx := context.Background()

	topUp, err := svc.BeginTopUp(ctx, "u1", "ade@example.com", 2000)
	if err != nil {
		t.Fatalf("begin top-up: %v", err)
	}
	settled, err := svc.CompleteTopUp(ctx, topUp.Transaction.Reference)
	if err != nil {
		t.Fatalf("complete top-up: %v", err)
	}
	if settled.Status != wallet.StatusFailed {
		t.Fatalf("short-paid top-up should fail, got %s", settled.Status)
	}
}

func TestBeginTopUpWithoutGateway(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.BeginTopUp(context.Background(), "u1", "ade@example.com", 2000)
	if !errors.Is(err, errors.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestVerifyTopUpScopedToOwner(t *testing.T) {
	gw := &stubGateway{verify: payment.VerifyResult{Status: payment.VerifySuccess, AmountKobo: 200000}}
	svc := New(memory.New(), gw, nil)
	ctx := context.Background()

	topUp, err := svc.BeginTopUp(ctx, "u1", "ade@example.com", 2000)
	if err != nil {
		t.Fatalf("begin top-up: %v", err)
	}

	// Another user holding the reference cannot trigger settlement.
	_, err = svc.VerifyTopUp(ctx, "u2", topUp.Transaction.Reference)
	if !errors.Is(err, errors.KindNotFound) {
		t.Fatalf("expected not found for foreign reference, got %v", err)
	}
	tx, err := svc.store.GetWalletTransactionByReference(ctx, topUp.Transaction.Reference)
	if err != nil {
		t.Fatalf("reload top-up: %v", err)
	}
	if tx.Status != wallet.StatusPending {
		t.Fatalf("foreign verify settled the top-up: %s", tx.Status)
	}

	settled, err := svc.VerifyTopUp(ctx, "u1", topUp.Transaction.Reference)
	if err != nil {
		t.Fatalf("verify by owner: %v", err)
	}
	if settled.Status != wallet.StatusCompleted {
		t.Fatalf("owner verify did not settle: %s", settled.Status)
	}
}
