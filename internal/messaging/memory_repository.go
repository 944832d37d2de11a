package messaging

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	messages []Message
	payloads map[string][]byte
}

// NewMemoryRepository constructs an in-memory message store for tests and
// the database-less development mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{payloads: make(map[string][]byte)}
}

func (r *memoryRepository) Create(_ context.Context, m Message, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	if len(payload) > 0 {
		r.payloads[m.ID] = payload
	}
	return nil
}

func (r *memoryRepository) Thread(_ context.Context, userID, otherID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Message
	for _, m := range r.messages {
		if (m.SenderID == userID && m.ReceiverID == otherID) || (m.SenderID == otherID && m.ReceiverID == userID) {
			out = append(out, m)
		}
	}
	sortMessages(out)
	return out, nil
}

func (r *memoryRepository) MarkThreadRead(_ context.Context, readerID, otherID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		m := &r.messages[i]
		if m.ReceiverID == readerID && m.SenderID == otherID && !m.IsRead {
			m.IsRead = true
		}
	}
	return nil
}

func (r *memoryRepository) Chats(_ context.Context, userID string) ([]ChatRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]Message)
	unread := make(map[string]int64)
	for _, m := range r.messages {
		var counterparty string
		switch {
		case m.SenderID == userID:
			counterparty = m.ReceiverID
		case m.ReceiverID == userID:
			counterparty = m.SenderID
		default:
			continue
		}

		if m.ReceiverID == userID && !m.IsRead {
			unread[counterparty]++
		}

		current, ok := latest[counterparty]
		if !ok || newerThan(m, current) {
			latest[counterparty] = m
		}
	}

	out := make([]ChatRow, 0, len(latest))
	for counterparty, m := range latest {
		out = append(out, ChatRow{
			CounterpartyID: counterparty,
			LastText:       m.Text,
			LastFileName:   m.FileName,
			LastTimestamp:  m.Timestamp,
			UnreadCount:    unread[counterparty],
		})
	}
	return out, nil
}

func (r *memoryRepository) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, m := range r.messages {
		if !m.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

// newerThan orders messages by timestamp with the id as tie-breaker, the
// same order the SQL aggregation uses.
func newerThan(a, b Message) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func sortMessages(msgs []Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
