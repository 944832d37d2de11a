package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
)

// addressAttempts bounds regeneration when a freshly generated address
// collides with an existing one. Collisions are vanishingly rare for random
// 128-bit identifiers, so hitting the bound indicates something is wrong.
const addressAttempts = 3

// Service exposes wallet operations backed by the ledger.
type Service struct {
	repo   Repository
	ledger ledger.Store
}

// NewService builds a wallet service instance.
func NewService(repo Repository, ledger ledger.Store) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID   string
	OwnerName string
}

// Create provisions a wallet for the owner with a fresh unique address and a
// zero balance. Each owner gets exactly one wallet.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if _, err := s.repo.GetByOwner(ctx, input.OwnerID); err == nil {
		return Wallet{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}

	var w Wallet
	for attempt := 0; attempt < addressAttempts; attempt++ {
		w = Wallet{
			ID:        uuid.NewString(),
			OwnerID:   input.OwnerID,
			Address:   uuid.NewString(),
			CreatedAt: time.Now().UTC(),
		}
		err := s.repo.Create(ctx, w)
		if errors.Is(err, ErrAddressTaken) {
			continue
		}
		if err != nil {
			return Wallet{}, err
		}
		if err := s.ledger.EnsureWallet(ctx, w.ID, input.OwnerName); err != nil {
			return Wallet{}, err
		}
		return w, nil
	}
	return Wallet{}, ErrAddressTaken
}

// Get retrieves wallet metadata by id.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner retrieves the wallet owned by the given user.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// GetByAddress resolves a public wallet address.
func (s *Service) GetByAddress(ctx context.Context, address string) (Wallet, error) {
	return s.repo.GetByAddress(ctx, address)
}

// Balance returns the ledger balance for the wallet.
func (s *Service) Balance(ctx context.Context, id string) (money.Amount, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return money.Amount{}, err
	}
	return s.ledger.Balance(ctx, wallet.ID)
}
