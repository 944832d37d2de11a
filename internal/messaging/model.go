package messaging

import "time"

// Message is one direct message between two users. A message carries text or
// a file attachment; IsRead flips once when the receiver opens the thread.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Text       string
	FileName   string
	FileSize   int64
	Timestamp  time.Time
	IsRead     bool
}

// HasFile reports whether the message carries an attachment.
func (m Message) HasFile() bool {
	return m.FileName != ""
}

// ChatSummary is the aggregated view of one counterparty's thread with a
// user: the latest message, its timestamp and how many received messages are
// still unread.
type ChatSummary struct {
	CounterpartyID      string    `json:"-"`
	CounterpartyAddress string    `json:"counterparty_address"`
	LastMessage         string    `json:"last_message"`
	LastTimestamp       time.Time `json:"last_timestamp"`
	UnreadCount         int64     `json:"unread_count"`
}
