package messaging

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lumapay/lumapay/internal/notification"
	"github.com/lumapay/lumapay/internal/wallet"
)

var (
	// ErrRecipientNotFound indicates the destination address resolves to no
	// wallet.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrEmptyFile indicates a file send with a zero-length payload.
	ErrEmptyFile = errors.New("file payload is empty")
)

// filePlaceholder is shown as the last-message text in chat summaries when
// the latest message is an attachment without text.
const filePlaceholder = "[file]"

// Service owns message sending, thread reads and chat aggregation. Messages
// are addressed by the recipient's wallet address, the same public
// identifier used for transfers.
type Service struct {
	repo     Repository
	wallets  *wallet.Service
	notifier notification.Notifier
}

// NewService constructs a messaging service.
func NewService(repo Repository, wallets *wallet.Service, notifier notification.Notifier) *Service {
	return &Service{repo: repo, wallets: wallets, notifier: notifier}
}

// SendText delivers a text message to the wallet address.
func (s *Service) SendText(ctx context.Context, senderID, toAddress, text string) (Message, error) {
	receiver, err := s.resolve(ctx, toAddress)
	if err != nil {
		return Message{}, err
	}
	return s.deliver(ctx, Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiver.OwnerID,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}, nil)
}

// SendFile delivers a file attachment to the wallet address.
func (s *Service) SendFile(ctx context.Context, senderID, toAddress, fileName string, payload []byte) (Message, error) {
	if len(payload) == 0 {
		return Message{}, ErrEmptyFile
	}
	receiver, err := s.resolve(ctx, toAddress)
	if err != nil {
		return Message{}, err
	}
	if fileName == "" {
		fileName = "attachment"
	}
	return s.deliver(ctx, Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiver.OwnerID,
		FileName:   fileName,
		FileSize:   int64(len(payload)),
		Timestamp:  time.Now().UTC(),
	}, payload)
}

// ListChats derives one summary per counterparty the user has exchanged
// messages with, newest thread first.
func (s *Service) ListChats(ctx context.Context, userID string) ([]ChatSummary, error) {
	rows, err := s.repo.Chats(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ChatSummary, 0, len(rows))
	for _, row := range rows {
		summary := ChatSummary{
			CounterpartyID: row.CounterpartyID,
			LastMessage:    row.LastText,
			LastTimestamp:  row.LastTimestamp,
			UnreadCount:    row.UnreadCount,
		}
		if summary.LastMessage == "" && row.LastFileName != "" {
			summary.LastMessage = filePlaceholder
		}
		w, err := s.wallets.GetByOwner(ctx, row.CounterpartyID)
		switch {
		case err == nil:
			summary.CounterpartyAddress = w.Address
		case !errors.Is(err, wallet.ErrNotFound):
			// A missing wallet leaves the address blank; anything else is a
			// storage failure the caller must see.
			return nil, err
		}
		out = append(out, summary)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastTimestamp.After(out[j].LastTimestamp)
	})
	return out, nil
}

// GetThread returns the conversation with the counterparty behind the given
// wallet address in ascending order. Opening the thread acknowledges it:
// every unread message from that counterparty is marked read first.
func (s *Service) GetThread(ctx context.Context, userID, counterpartyAddress string) ([]Message, error) {
	counterparty, err := s.resolve(ctx, counterpartyAddress)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkThreadRead(ctx, userID, counterparty.OwnerID); err != nil {
		return nil, err
	}
	return s.repo.Thread(ctx, userID, counterparty.OwnerID)
}

// MarkThreadRead acknowledges the counterparty's messages without fetching
// the thread. Safe to call repeatedly.
func (s *Service) MarkThreadRead(ctx context.Context, userID, counterpartyAddress string) error {
	counterparty, err := s.resolve(ctx, counterpartyAddress)
	if err != nil {
		return err
	}
	return s.repo.MarkThreadRead(ctx, userID, counterparty.OwnerID)
}

// CountSince counts messages created at or after the given instant.
func (s *Service) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.repo.CountSince(ctx, since)
}

func (s *Service) resolve(ctx context.Context, address string) (wallet.Wallet, error) {
	w, err := s.wallets.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return wallet.Wallet{}, ErrRecipientNotFound
		}
		return wallet.Wallet{}, err
	}
	return w, nil
}

func (s *Service) deliver(ctx context.Context, m Message, payload []byte) (Message, error) {
	if err := s.repo.Create(ctx, m, payload); err != nil {
		return Message{}, err
	}
	if s.notifier != nil {
		body := "You have a new message"
		if m.HasFile() {
			body = "You received a file: " + m.FileName
		}
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindMessageReceived,
			Destination: m.ReceiverID,
			Body:        body,
		})
	}
	return m, nil
}
