package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumapay/lumapay/internal/money"
)

const (
	// maxAttempts bounds internal retries on lock/serialization conflicts
	// before the operation surfaces ErrUnavailable.
	maxAttempts  = 3
	retryBackoff = 25 * time.Millisecond
)

// PostgresStore persists wallets and ledger entries in PostgreSQL. Balance
// mutations lock the affected wallet rows FOR UPDATE and commit together
// with their ledger rows in a single transaction.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureWallet verifies the wallet row exists. Owner names are resolved via
// joins at query time, so nothing is stored here.
func (s *PostgresStore) EnsureWallet(ctx context.Context, walletID, _ string) error {
	var one int
	err := s.db.QueryRow(ctx, `SELECT 1 FROM wallets WHERE id = $1`, walletID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrWalletNotFound
	}
	return err
}

// Balance returns the wallet's current balance.
func (s *PostgresStore) Balance(ctx context.Context, walletID string) (money.Amount, error) {
	var raw string
	err := s.db.QueryRow(ctx, `SELECT balance::text FROM wallets WHERE id = $1`, walletID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return money.Amount{}, ErrWalletNotFound
	}
	if err != nil {
		return money.Amount{}, err
	}
	return money.Parse(raw)
}

// Deposit credits the wallet and appends the deposit row atomically.
func (s *PostgresStore) Deposit(ctx context.Context, walletID string, amount money.Amount) (DepositResult, error) {
	if !amount.IsPositive() {
		return DepositResult{}, ErrInvalidAmount
	}

	var result DepositResult
	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx) // nolint:errcheck

		balance, err := lockWallet(ctx, tx, walletID)
		if err != nil {
			return err
		}

		newBalance := balance.Add(amount)
		if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1::numeric WHERE id = $2`, newBalance.String(), walletID); err != nil {
			return err
		}

		entry := Transaction{
			ID:        uuid.NewString(),
			WalletID:  walletID,
			Kind:      KindDeposit,
			Amount:    amount,
			Timestamp: time.Now().UTC(),
		}
		if err := insertTransaction(ctx, tx, entry); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = DepositResult{Transaction: entry, NewBalance: newBalance}
		return nil
	})
	return result, err
}

// Transfer moves funds between two wallets, locking both rows in wallet-id
// order so concurrent opposite-direction transfers cannot deadlock.
func (s *PostgresStore) Transfer(ctx context.Context, senderID, receiverID string, amount money.Amount) (TransferResult, error) {
	if !amount.IsPositive() {
		return TransferResult{}, ErrInvalidAmount
	}

	var result TransferResult
	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx) // nolint:errcheck

		// Lock both rows in wallet-id order so concurrent opposite-direction
		// transfers between the same pair cannot deadlock.
		ids := []string{senderID, receiverID}
		if receiverID < senderID {
			ids[0], ids[1] = receiverID, senderID
		}
		if senderID == receiverID {
			ids = ids[:1]
		}

		balances := make(map[string]money.Amount, 2)
		for _, id := range ids {
			bal, err := lockWallet(ctx, tx, id)
			if err != nil {
				return err
			}
			balances[id] = bal
		}

		senderBalance := balances[senderID]
		if senderBalance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		newSender := senderBalance.Sub(amount)
		newReceiver := balances[receiverID].Add(amount)
		if senderID == receiverID {
			// Debit and credit cancel out; only the paired rows are recorded.
			newSender = senderBalance
			newReceiver = senderBalance
		}

		if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1::numeric WHERE id = $2`, newSender.String(), senderID); err != nil {
			return err
		}
		if senderID != receiverID {
			if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $1::numeric WHERE id = $2`, newReceiver.String(), receiverID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		posting := Posting{
			Transfer: Transaction{
				ID:         uuid.NewString(),
				WalletID:   senderID,
				SenderID:   &senderID,
				ReceiverID: &receiverID,
				Kind:       KindTransfer,
				Amount:     amount,
				Timestamp:  now,
			},
			Receive: Transaction{
				ID:         uuid.NewString(),
				WalletID:   receiverID,
				SenderID:   &senderID,
				ReceiverID: &receiverID,
				Kind:       KindReceive,
				Amount:     amount,
				Timestamp:  now,
			},
		}
		if err := insertTransaction(ctx, tx, posting.Transfer); err != nil {
			return err
		}
		if err := insertTransaction(ctx, tx, posting.Receive); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = TransferResult{Posting: posting, SenderBalance: newSender, ReceiverBalance: newReceiver}
		return nil
	})
	return result, err
}

// List returns the wallet's ledger rows matching the filter, ordered by
// (timestamp, id) so pagination is stable.
func (s *PostgresStore) List(ctx context.Context, walletID string, f Filter, p Page) ([]Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT t.id, t.wallet_id, t.sender_id, t.receiver_id, t.kind, t.amount::text, t.created_at
        FROM transactions t
        LEFT JOIN wallets sw ON sw.id = t.sender_id
        LEFT JOIN users su ON su.id = sw.owner_id
        LEFT JOIN wallets rw ON rw.id = t.receiver_id
        LEFT JOIN users ru ON ru.id = rw.owner_id
        WHERE t.wallet_id = $1`)
	args := []any{walletID}

	addArg := func(clause string, value any) {
		args = append(args, value)
		sb.WriteString(fmt.Sprintf(clause, len(args)))
	}

	if f.Start != nil {
		addArg(" AND t.created_at >= $%d", f.Start.UTC())
	}
	if f.End != nil {
		addArg(" AND t.created_at <= $%d", f.End.UTC())
	}
	if f.MinAmount != nil {
		addArg(" AND t.amount >= $%d::numeric", f.MinAmount.String())
	}
	if f.MaxAmount != nil {
		addArg(" AND t.amount <= $%d::numeric", f.MaxAmount.String())
	}
	if f.Kind != "" {
		addArg(" AND t.kind = $%d", string(f.Kind))
	}
	if f.Counterparty != "" {
		args = append(args, "%"+f.Counterparty+"%")
		n := len(args)
		sb.WriteString(fmt.Sprintf(" AND (su.username ILIKE $%d OR ru.username ILIKE $%d)", n, n))
	}

	sb.WriteString(" ORDER BY t.created_at, t.id")
	if p.Limit > 0 {
		addArg(" LIMIT $%d", p.Limit)
		addArg(" OFFSET $%d", p.Offset)
	}

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t         Transaction
			rawAmount string
			createdAt time.Time
		)
		if err := rows.Scan(&t.ID, &t.WalletID, &t.SenderID, &t.ReceiverID, &t.Kind, &rawAmount, &createdAt); err != nil {
			return nil, err
		}
		if t.Amount, err = money.Parse(rawAmount); err != nil {
			return nil, err
		}
		t.Timestamp = createdAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountSince counts ledger rows created at or after the given instant.
func (s *PostgresStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE created_at >= $1`, since.UTC()).Scan(&count)
	return count, err
}

// VolumeSince sums transfer amounts since the given instant. Deposit and
// receive rows are excluded so each movement is counted once.
func (s *PostgresStore) VolumeSince(ctx context.Context, since time.Time) (money.Amount, error) {
	var raw string
	err := s.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::text FROM transactions
        WHERE kind = $1 AND created_at >= $2`, string(KindTransfer), since.UTC()).Scan(&raw)
	if err != nil {
		return money.Amount{}, err
	}
	return money.Parse(raw)
}

func (s *PostgresStore) withRetry(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff << attempt):
		}
	}
	return ErrUnavailable
}

// isRetryable reports whether the error is a serialization failure or a
// deadlock, both of which are safe to retry after the implicit rollback.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func lockWallet(ctx context.Context, tx pgx.Tx, walletID string) (money.Amount, error) {
	var raw string
	err := tx.QueryRow(ctx, `SELECT balance::text FROM wallets WHERE id = $1 FOR UPDATE`, walletID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return money.Amount{}, ErrWalletNotFound
	}
	if err != nil {
		return money.Amount{}, err
	}
	return money.Parse(raw)
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t Transaction) error {
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, wallet_id, sender_id, receiver_id, kind, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
		t.ID, t.WalletID, t.SenderID, t.ReceiverID, string(t.Kind), t.Amount.String(), t.Timestamp)
	return err
}
