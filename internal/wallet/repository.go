package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no wallet matches the lookup.
	ErrNotFound = errors.New("wallet not found")

	// ErrConflict indicates the owner already has a wallet.
	ErrConflict = errors.New("wallet already exists for owner")

	// ErrAddressTaken indicates the generated address collided with an
	// existing one. Creation retries with a fresh address.
	ErrAddressTaken = errors.New("wallet address already taken")
)

// Repository persists wallet metadata.
type Repository interface {
	Create(ctx context.Context, wallet Wallet) error
	Get(ctx context.Context, id string) (Wallet, error)
	GetByOwner(ctx context.Context, ownerID string) (Wallet, error)
	GetByAddress(ctx context.Context, address string) (Wallet, error)
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record with a zero starting balance. Uniqueness of
// owner and address is enforced by the database.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	_, err := r.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, address, balance, created_at)
        VALUES ($1, $2, $3, 0, $4)`, wallet.ID, wallet.OwnerID, wallet.Address, wallet.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "wallets_address_key" {
			return ErrAddressTaken
		}
		return ErrConflict
	}
	return err
}

// Get fetches wallet metadata by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, owner_id, address, created_at
        FROM wallets WHERE id = $1`, id))
}

// GetByOwner fetches the wallet owned by the given user.
func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, owner_id, address, created_at
        FROM wallets WHERE owner_id = $1`, ownerID))
}

// GetByAddress fetches the wallet with the given public address.
func (r *PostgresRepository) GetByAddress(ctx context.Context, address string) (Wallet, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, owner_id, address, created_at
        FROM wallets WHERE address = $1`, address))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		createdAt time.Time
	)
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Address, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
