package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumapay/lumapay/internal/money"
)

type inMemoryStore struct {
	mu       sync.RWMutex
	balances map[string]money.Amount
	owners   map[string]string
	rows     []Transaction
}

// NewInMemory creates a concurrency-safe in-memory ledger store. It backs
// unit tests and the database-less development mode.
func NewInMemory() Store {
	return &inMemoryStore{
		balances: make(map[string]money.Amount),
		owners:   make(map[string]string),
	}
}

func (s *inMemoryStore) EnsureWallet(_ context.Context, walletID, ownerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.balances[walletID]; !exists {
		s.balances[walletID] = money.Zero()
	}
	if ownerName != "" {
		s.owners[walletID] = ownerName
	}
	return nil
}

func (s *inMemoryStore) Balance(_ context.Context, walletID string) (money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, exists := s.balances[walletID]
	if !exists {
		return money.Amount{}, ErrWalletNotFound
	}
	return balance, nil
}

func (s *inMemoryStore) Deposit(_ context.Context, walletID string, amount money.Amount) (DepositResult, error) {
	if !amount.IsPositive() {
		return DepositResult{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance, exists := s.balances[walletID]
	if !exists {
		return DepositResult{}, ErrWalletNotFound
	}

	newBalance := balance.Add(amount)
	s.balances[walletID] = newBalance

	entry := Transaction{
		ID:        uuid.NewString(),
		WalletID:  walletID,
		Kind:      KindDeposit,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
	s.rows = append(s.rows, entry)

	return DepositResult{Transaction: entry, NewBalance: newBalance}, nil
}

func (s *inMemoryStore) Transfer(_ context.Context, senderID, receiverID string, amount money.Amount) (TransferResult, error) {
	if !amount.IsPositive() {
		return TransferResult{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	senderBalance, ok := s.balances[senderID]
	if !ok {
		return TransferResult{}, ErrWalletNotFound
	}
	receiverBalance, ok := s.balances[receiverID]
	if !ok {
		return TransferResult{}, ErrWalletNotFound
	}

	if senderBalance.LessThan(amount) {
		return TransferResult{}, ErrInsufficientFunds
	}

	newSender := senderBalance.Sub(amount)
	newReceiver := receiverBalance.Add(amount)
	if senderID == receiverID {
		// Debit and credit cancel out; only the paired rows are recorded.
		newSender = senderBalance
		newReceiver = senderBalance
	}
	s.balances[senderID] = newSender
	s.balances[receiverID] = newReceiver

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
	s.rows = append(s.rows, posting.Transfer, posting.Receive)

	return TransferResult{Posting: posting, SenderBalance: newSender, ReceiverBalance: newReceiver}, nil
}

func (s *inMemoryStore) List(_ context.Context, walletID string, f Filter, p Page) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Transaction
	for _, t := range s.rows {
		if t.WalletID != walletID {
			continue
		}
		if !s.matches(t, f) {
			continue
		}
		matched = append(matched, t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].ID < matched[j].ID
	})

	if p.Limit <= 0 {
		return matched, nil
	}
	if p.Offset >= len(matched) {
		return nil, nil
	}
	end := p.Offset + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[p.Offset:end], nil
}

func (s *inMemoryStore) matches(t Transaction, f Filter) bool {
	if f.Start != nil && t.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.Timestamp.After(*f.End) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && f.MaxAmount.LessThan(t.Amount) {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Counterparty != "" {
		needle := strings.ToLower(f.Counterparty)
		if !s.ownerContains(t.SenderID, needle) && !s.ownerContains(t.ReceiverID, needle) {
			return false
		}
	}
	return true
}

func (s *inMemoryStore) ownerContains(walletID *string, needle string) bool {
	if walletID == nil {
		return false
	}
	owner, ok := s.owners[*walletID]
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(owner), needle)
}

func (s *inMemoryStore) CountSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, t := range s.rows {
		if !t.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *inMemoryStore) VolumeSince(_ context.Context, since time.Time) (money.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := money.Zero()
	for _, t := range s.rows {
		if t.Kind == KindTransfer && !t.Timestamp.Before(since) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}
