package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/social"
)

// Messages implements social.MessageRepo.
type Messages struct {
	db *sql.DB
}

// Messages returns the message repository backed by this store.
func (s *Store) Messages() *Messages { return &Messages{db: s.db} }

var _ social.MessageRepo = (*Messages)(nil)

const messageColumns = `id, sender_id, receiver_id, body, read, sent_at`

func scanMessage(row interface{ Scan(...any) error }) (*social.Message, error) {
	var m social.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Read, &m.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Messages) Find(ctx context.Context, id string) (*social.Message, error) {
	row := r.db.QueryRowContext(ctx, `select `+messageColumns+` from messages where id = $1`, id)
	return scanMessage(row)
}

// Conversation returns the latest messages between the two users in
// chronological order.
func (r *Messages) Conversation(ctx context.Context, userA, userB string, limit int) ([]*social.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		select `+messageColumns+` from (
			select `+messageColumns+`
			from messages
			where (sender_id = $1 and receiver_id = $2)
			   or (sender_id = $2 and receiver_id = $1)
			order by sent_at desc
			limit $3
		) latest
		order by sent_at
	`, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*social.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Messages) Save(ctx context.Context, m *social.Message) error {
	_, err := r.db.ExecContext(ctx, `
		insert into messages (id, sender_id, receiver_id, body, read, sent_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (id) do update set read = excluded.read
	`, m.ID, m.SenderID, m.ReceiverID, m.Body, m.Read, m.SentAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return social.ErrNotFound
	}
	return err
}

func (r *Messages) MarkRead(ctx context.Context, senderID, receiverID string) error {
	_, err := r.db.ExecContext(ctx, `
		update messages set read = true
		where sender_id = $1 and receiver_id = $2 and read = false
	`, senderID, receiverID)
	return err
}

func (r *Messages) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		select count(*) from messages where receiver_id = $1 and read = false
	`, receiverID).Scan(&count)
	return count, err
}
