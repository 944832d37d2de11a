package messaging

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRow is the raw per-counterparty aggregate produced by the repository.
// The service layer turns it into a ChatSummary.
type ChatRow struct {
	CounterpartyID string
	LastText       string
	LastFileName   string
	LastTimestamp  time.Time
	UnreadCount    int64
}

// Repository persists direct messages.
type Repository interface {
	// Create appends a message. The payload is the optional attachment body.
	Create(ctx context.Context, m Message, payload []byte) error

	// Thread returns all messages between the two users in ascending
	// (timestamp, id) order.
	Thread(ctx context.Context, userID, otherID string) ([]Message, error)

	// MarkThreadRead flips is_read on every unread message sent by otherID
	// to readerID. The bulk update is atomic and idempotent.
	MarkThreadRead(ctx context.Context, readerID, otherID string) error

	// Chats returns one aggregate row per counterparty the user has
	// exchanged messages with.
	Chats(ctx context.Context, userID string) ([]ChatRow, error)

	// CountSince counts messages created at or after the given instant.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// PostgresRepository stores messages in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed message repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a message row together with its attachment payload.
func (r *PostgresRepository) Create(ctx context.Context, m Message, payload []byte) error {
	_, err := r.db.Exec(ctx, `INSERT INTO messages (id, sender_id, receiver_id, text, file_name, file, created_at, is_read)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.FileName, payload, m.Timestamp.UTC(), m.IsRead)
	return err
}

// Thread returns the full two-party conversation in ascending order.
func (r *PostgresRepository) Thread(ctx context.Context, userID, otherID string) ([]Message, error) {
	rows, err := r.db.Query(ctx, `SELECT id, sender_id, receiver_id, text, file_name, COALESCE(length(file), 0), created_at, is_read
        FROM messages
        WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
        ORDER BY created_at, id`, userID, otherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m         Message
			createdAt time.Time
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.FileName, &m.FileSize, &createdAt, &m.IsRead); err != nil {
			return nil, err
		}
		m.Timestamp = createdAt.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkThreadRead performs the bulk read-state flip in one statement.
func (r *PostgresRepository) MarkThreadRead(ctx context.Context, readerID, otherID string) error {
	_, err := r.db.Exec(ctx, `UPDATE messages SET is_read = TRUE
        WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`, readerID, otherID)
	return err
}

// Chats aggregates the user's messages per counterparty: the latest message
// (ties broken by highest id) and the unread count.
func (r *PostgresRepository) Chats(ctx context.Context, userID string) ([]ChatRow, error) {
	rows, err := r.db.Query(ctx, `WITH involved AS (
            SELECT id, text, file_name, created_at,
                   CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS counterparty
            FROM messages
            WHERE sender_id = $1 OR receiver_id = $1
        )
        SELECT DISTINCT ON (i.counterparty)
               i.counterparty, i.text, i.file_name, i.created_at,
               (SELECT COUNT(*) FROM messages u
                WHERE u.receiver_id = $1 AND u.sender_id = i.counterparty AND NOT u.is_read)
        FROM involved i
        ORDER BY i.counterparty, i.created_at DESC, i.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatRow
	for rows.Next() {
		var (
			row       ChatRow
			createdAt time.Time
		)
		if err := rows.Scan(&row.CounterpartyID, &row.LastText, &row.LastFileName, &createdAt, &row.UnreadCount); err != nil {
			return nil, err
		}
		row.LastTimestamp = createdAt.UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountSince counts messages created at or after the given instant.
func (r *PostgresRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE created_at >= $1`, since.UTC()).Scan(&count)
	return count, err
}
