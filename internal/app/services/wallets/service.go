// Package wallets implements the wallet ledger: balance reads, credits,
// debits with shortfall reporting, and Paystack-backed top-ups.
package wallets

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/marketrun/platform/internal/app/domain/wallet"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/payment"
	"github.com/marketrun/platform/pkg/logger"
)

// Service provides wallet operations over the transaction ledger.
type Service struct {
	store   storage.WalletStore
	gateway payment.Gateway
	log     *logger.Logger
}

// New creates the wallets service. The gateway may be nil when the deployment
// does not accept card top-ups; ledger operations still work.
func New(store storage.WalletStore, gateway payment.Gateway, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("wallets")
	}
	return &Service{store: store, gateway: gateway, log: log}
}

// Balance returns the user's wallet balance: completed credits minus
// completed debits.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	txs, err := s.store.ListWalletTransactions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance(txs), nil
}

// Transactions returns the user's ledger entries, newest first per the store
// ordering contract.
func (s *Service) Transactions(ctx context.Context, userID string) ([]wallet.Transaction, error) {
	return s.store.ListWalletTransactions(ctx, userID)
}

// Credit appends a completed credit entry. Reference is optional; when set it
// must be unique across the ledger, which lets callers use it as an
// idempotency key (referral rewards, refunds).
func (s *Service) Credit(ctx context.Context, userID string, amount int64, description, reference string) (wallet.Transaction, error) {
	if amount <= 0 {
		return wallet.Transaction{}, errors.Validation("credit amount must be positive")
	}
	if reference != "" {
		if _, err := s.store.GetWalletTransactionByReference(ctx, reference); err == nil {
			return wallet.Transaction{}, errors.Conflict("wallet transaction with reference %s already exists", reference)
		} else if !errors.Is(err, errors.KindNotFound) {
			return wallet.Transaction{}, err
		}
	}
	tx, err := s.store.CreateWalletTransaction(ctx, wallet.Transaction{
		UserID:      userID,
		Type:        wallet.TypeCredit,
		Amount:      amount,
		Description: description,
		Reference:   reference,
		Status:      wallet.StatusCompleted,
	})
	if err != nil {
		return wallet.Transaction{}, err
	}
	s.log.WithField("user_id", userID).Infof("wallet credited %d (%s)", amount, description)
	return tx, nil
}

// Debit appends a completed debit entry after checking the balance covers the
// amount. On insufficient funds the error names the exact shortfall.
func (s *Service) Debit(ctx context.Context, userID string, amount int64, description, reference string) (wallet.Transaction, error) {
	if amount <= 0 {
		return wallet.Transaction{}, errors.Validation("debit amount must be positive")
	}
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return wallet.Transaction{}, err
	}
	if balance < amount {
		return wallet.Transaction{}, errors.Precondition("insufficient wallet balance: need %d more", amount-balance)
	}
	tx, err := s.store.CreateWalletTransaction(ctx, wallet.Transaction{
		UserID:      userID,
		Type:        wallet.TypeDebit,
		Amount:      amount,
		Description: description,
		Reference:   reference,
		Status:      wallet.StatusCompleted,
	})
	if err != nil {
		return wallet.Transaction{}, err
	}
	s.log.WithField("user_id", userID).Infof("wallet debited %d (%s)", amount, description)
	return tx, nil
}

// TopUp is the first half of a card top-up: a pending credit is recorded and
// the gateway transaction initialized. The credit only counts toward the
// balance once CompleteTopUp (or the poller) confirms payment.
type TopUp struct {
	Transaction      wallet.Transaction
	AuthorizationURL string
	AccessCode       string
}

// BeginTopUp initializes a gateway transaction for the amount and records the
// matching pending ledger entry.
func (s *Service) BeginTopUp(ctx context.Context, userID, email string, amount int64) (TopUp, error) {
	if s.gateway == nil {
		return TopUp{}, errors.Unavailable("card payments are not configured")
	}
	if amount <= 0 {
		return TopUp{}, errors.Validation("top-up amount must be positive")
	}
	if strings.TrimSpace(email) == "" {
		return TopUp{}, errors.Validation("email is required for card payment")
	}

	reference := "topup_" + uuid.NewString()
	init, err := s.gateway.Initialize(ctx, email, amount, reference)
	if err != nil {
		return TopUp{}, errors.Unavailable("payment gateway: %v", err)
	}

	tx, err := s.store.CreateWalletTransaction(ctx, wallet.Transaction{
		UserID:      userID,
		Type:        wallet.TypeCredit,
		Amount:      amount,
		Description: "wallet top-up",
		Reference:   reference,
		Status:      wallet.StatusPending,
	})
	if err != nil {
		return TopUp{}, err
	}
	s.log.WithField("user_id", userID).Infof("top-up %s initialized for %d", reference, amount)
	return TopUp{Transaction: tx, AuthorizationURL: init.AuthorizationURL, AccessCode: init.AccessCode}, nil
}

// VerifyTopUp settles a pending top-up on behalf of its owner. References
// belonging to another user read as not found, so settlement cannot be
// triggered across accounts.
func (s *Service) VerifyTopUp(ctx context.Context, userID, reference string) (wallet.Transaction, error) {
	tx, err := s.store.GetWalletTransactionByReference(ctx, reference)
	if err != nil {
		return wallet.Transaction{}, err
	}
	if tx.UserID != userID {
		return wallet.Transaction{}, errors.NotFound("wallet transaction with reference %s not found", reference)
	}
	return s.CompleteTopUp(ctx, reference)
}

// CompleteTopUp verifies the gateway reference and settles the pending entry.
// It is safe to call repeatedly: a settled entry is returned as-is.
func (s *Service) CompleteTopUp(ctx context.Context, reference string) (wallet.Transaction, error) {
	tx, err := s.store.GetWalletTransactionByReference(ctx, reference)
	if err != nil {
		return wallet.Transaction{}, err
	}
	if tx.Status != wallet.StatusPending {
		return tx, nil
	}
	if s.gateway == nil {
		return wallet.Transaction{}, errors.Unavailable("card payments are not configured")
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return wallet.Transaction{}, errors.Unavailable("payment gateway: %v", err)
	}
	switch result.Status {
	case payment.VerifySuccess:
		if result.AmountKobo < tx.Amount*100 {
			tx.Status = wallet.StatusFailed
			tx.Description = "wallet top-up (gateway amount mismatch)"
		} else {
			tx.Status = wallet.StatusCompleted
		}
	case payment.VerifyFailed, payment.VerifyAbandoned:
		tx.Status = wallet.StatusFailed
	default:
		// Still pending at the gateway; the poller retries later.
		return tx, nil
	}

	settled, err := s.store.UpdateWalletTransaction(ctx, tx)
	if err != nil {
		return wallet.Transaction{}, err
	}
	s.log.Infof("top-up %s settled (%s)", reference, settled.Status)
	return settled, nil
}

// markAbandoned fails a pending top-up the gateway never confirmed within the
// poller timeout.
func (s *Service) markAbandoned(ctx context.Context, tx wallet.Transaction) {
	tx.Status = wallet.StatusFailed
	tx.Description = "wallet top-up (abandoned)"
	if _, err := s.store.UpdateWalletTransaction(ctx, tx); err != nil {
		s.log.WithError(err).Warnf("mark top-up %s abandoned failed", tx.Reference)
		return
	}
	s.log.Infof("top-up %s marked abandoned", tx.Reference)
}
