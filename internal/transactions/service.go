package transactions

import (
	"context"
	"time"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
)

// MessageCounter exposes the message volume needed by the statistics view.
type MessageCounter interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Service is the read path over the transaction ledger. Results are always
// scoped to the requesting wallet before any filter applies.
type Service struct {
	ledger   ledger.Store
	messages MessageCounter
}

// NewService constructs a transaction query service. messages may be nil if
// statistics are not needed.
func NewService(ledgerStore ledger.Store, messages MessageCounter) *Service {
	return &Service{ledger: ledgerStore, messages: messages}
}

// List returns the wallet's ledger rows matching the filter, ordered
// deterministically by (timestamp, id).
func (s *Service) List(ctx context.Context, walletID string, f ledger.Filter, p ledger.Page) ([]ledger.Transaction, error) {
	return s.ledger.List(ctx, walletID, f, p)
}

// WindowStats aggregates activity over one trailing window.
type WindowStats struct {
	TransactionCount int64        `json:"transaction_count"`
	TransferVolume   money.Amount `json:"transfer_volume"`
	MessageCount     int64        `json:"message_count"`
}

// Stats reports system activity over trailing week, month and year windows.
type Stats struct {
	Week  WindowStats `json:"week"`
	Month WindowStats `json:"month"`
	Year  WindowStats `json:"year"`
}

// Statistics computes rolling-window activity counters.
func (s *Service) Statistics(ctx context.Context) (Stats, error) {
	now := time.Now().UTC()
	week, err := s.window(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return Stats{}, err
	}
	month, err := s.window(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return Stats{}, err
	}
	year, err := s.window(ctx, now.AddDate(0, 0, -365))
	if err != nil {
		return Stats{}, err
	}
	return Stats{Week: week, Month: month, Year: year}, nil
}

func (s *Service) window(ctx context.Context, since time.Time) (WindowStats, error) {
	count, err := s.ledger.CountSince(ctx, since)
	if err != nil {
		return WindowStats{}, err
	}
	volume, err := s.ledger.VolumeSince(ctx, since)
	if err != nil {
		return WindowStats{}, err
	}
	var messages int64
	if s.messages != nil {
		if messages, err = s.messages.CountSince(ctx, since); err != nil {
			return WindowStats{}, err
		}
	}
	return WindowStats{TransactionCount: count, TransferVolume: volume, MessageCount: messages}, nil
}
