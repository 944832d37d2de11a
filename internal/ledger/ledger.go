package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/lumapay/lumapay/internal/money"
)

var (
	// ErrInvalidAmount occurs when an operation is requested with a zero or
	// negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds occurs when the source wallet lacks available
	// balance to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWalletNotFound indicates the referenced wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrSelfTransfer indicates sender and receiver are the same wallet.
	ErrSelfTransfer = errors.New("self transfer not allowed")

	// ErrUnavailable is returned after the internal retry budget for storage
	// contention is exhausted. Callers may retry the whole request.
	ErrUnavailable = errors.New("storage contention, try again")
)

// Kind classifies a ledger entry.
type Kind string

const (
	// KindDeposit credits a wallet from outside the system.
	KindDeposit Kind = "deposit"
	// KindTransfer is the sender-side row of a wallet-to-wallet transfer.
	KindTransfer Kind = "transfer"
	// KindReceive is the receiver-side row of a wallet-to-wallet transfer.
	KindReceive Kind = "receive"
)

// Transaction is one immutable ledger entry owned by a single wallet.
// SenderID and ReceiverID are nil only for deposits.
type Transaction struct {
	ID         string
	WalletID   string
	SenderID   *string
	ReceiverID *string
	Kind       Kind
	Amount     money.Amount
	Timestamp  time.Time
}

// Posting is the pair of rows produced by one logical transfer: a transfer
// row owned by the sender and a receive row owned by the receiver, written
// in the same atomic unit.
type Posting struct {
	Transfer Transaction
	Receive  Transaction
}

// DepositResult captures the outcome of a deposit posting.
type DepositResult struct {
	Transaction Transaction
	NewBalance  money.Amount
}

// TransferResult captures the outcome of a transfer posting.
type TransferResult struct {
	Posting         Posting
	SenderBalance   money.Amount
	ReceiverBalance money.Amount
}

// Filter narrows List results. All bounds are inclusive; zero values mean
// the dimension is not filtered. Counterparty matches case-insensitively
// against a substring of the sender or receiver owner's username.
type Filter struct {
	Start        *time.Time
	End          *time.Time
	MinAmount    *money.Amount
	MaxAmount    *money.Amount
	Kind         Kind
	Counterparty string
}

// Page bounds a List result. A non-positive Limit returns everything.
type Page struct {
	Limit  int
	Offset int
}

// Store is the contract implemented by ledger backends. It is the only
// component allowed to mutate wallet balances; every mutation commits the
// balance change and the corresponding ledger rows as one atomic unit.
type Store interface {
	// EnsureWallet registers a wallet with the ledger. The owner name is
	// retained for counterparty filtering.
	EnsureWallet(ctx context.Context, walletID, ownerName string) error

	// Balance returns the current balance of a wallet.
	Balance(ctx context.Context, walletID string) (money.Amount, error)

	// Deposit credits the wallet and appends a single deposit row.
	Deposit(ctx context.Context, walletID string, amount money.Amount) (DepositResult, error)

	// Transfer debits the sender, credits the receiver and appends the
	// paired transfer/receive rows, all atomically. Wallet rows are locked
	// in a globally consistent order to avoid deadlock.
	Transfer(ctx context.Context, senderID, receiverID string, amount money.Amount) (TransferResult, error)

	// List returns the wallet's own ledger rows matching the filter in
	// deterministic (timestamp, id) order.
	List(ctx context.Context, walletID string, f Filter, p Page) ([]Transaction, error)

	// CountSince counts ledger rows created at or after the given instant.
	CountSince(ctx context.Context, since time.Time) (int64, error)

	// VolumeSince sums transferred amounts for transfers created at or
	// after the given instant. Receive rows are excluded so a transfer is
	// counted once.
	VolumeSince(ctx context.Context, since time.Time) (money.Amount, error)
}
