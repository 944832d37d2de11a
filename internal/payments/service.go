package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
	"github.com/lumapay/lumapay/internal/notification"
	"github.com/lumapay/lumapay/internal/wallet"
)

// Service is the transfer engine: it validates deposits and transfers,
// resolves counterparty addresses and drives the atomic ledger postings.
type Service struct {
	ledger            ledger.Store
	wallets           *wallet.Service
	notifier          notification.Notifier
	allowSelfTransfer bool
}

// Options tune transfer engine policy.
type Options struct {
	// AllowSelfTransfer permits a wallet to send funds to its own address.
	// Rejected by default.
	AllowSelfTransfer bool
}

// NewService constructs a payment service.
func NewService(ledgerStore ledger.Store, wallets *wallet.Service, notifier notification.Notifier, opts Options) *Service {
	return &Service{
		ledger:            ledgerStore,
		wallets:           wallets,
		notifier:          notifier,
		allowSelfTransfer: opts.AllowSelfTransfer,
	}
}

// DepositInput captures a wallet credit from outside the system.
type DepositInput struct {
	WalletID string
	Amount   money.Amount
}

// DepositResult describes the outcome of a deposit.
type DepositResult struct {
	TransactionID string
	NewBalance    money.Amount
	CompletedAt   time.Time
}

// Deposit credits the wallet and records the deposit row atomically.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (DepositResult, error) {
	if !input.Amount.IsPositive() {
		return DepositResult{}, ledger.ErrInvalidAmount
	}

	w, err := s.wallets.Get(ctx, input.WalletID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return DepositResult{}, ledger.ErrWalletNotFound
		}
		return DepositResult{}, err
	}

	res, err := s.ledger.Deposit(ctx, w.ID, input.Amount)
	if err != nil {
		return DepositResult{}, err
	}

	return DepositResult{
		TransactionID: res.Transaction.ID,
		NewBalance:    res.NewBalance,
		CompletedAt:   res.Transaction.Timestamp,
	}, nil
}

// TransferInput captures the data needed to move funds between wallets.
type TransferInput struct {
	WalletID  string
	ToAddress string
	Amount    money.Amount
}

// TransferResult describes the ledger outcome of a transfer.
type TransferResult struct {
	TransactionID string
	NewBalance    money.Amount
	CompletedAt   time.Time
}

// Transfer resolves the destination address and posts the paired ledger
// entries. Every effect of the transfer commits atomically or not at all.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if !input.Amount.IsPositive() {
		return TransferResult{}, ledger.ErrInvalidAmount
	}

	sender, err := s.wallets.Get(ctx, input.WalletID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return TransferResult{}, ledger.ErrWalletNotFound
		}
		return TransferResult{}, err
	}

	receiver, err := s.wallets.GetByAddress(ctx, input.ToAddress)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return TransferResult{}, ledger.ErrWalletNotFound
		}
		return TransferResult{}, err
	}

	if sender.ID == receiver.ID && !s.allowSelfTransfer {
		return TransferResult{}, ledger.ErrSelfTransfer
	}

	res, err := s.ledger.Transfer(ctx, sender.ID, receiver.ID, input.Amount)
	if err != nil {
		return TransferResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: receiver.OwnerID,
			Body:        fmt.Sprintf("You received %s from wallet %s", input.Amount, sender.Address),
		})
	}

	return TransferResult{
		TransactionID: res.Posting.Transfer.ID,
		NewBalance:    res.SenderBalance,
		CompletedAt:   res.Posting.Transfer.Timestamp,
	}, nil
}
