package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/social"
)

// Notifications implements social.NotificationRepo.
type Notifications struct {
	db *sql.DB
}

// Notifications returns the notification repository backed by this store.
func (s *Store) Notifications() *Notifications { return &Notifications{db: s.db} }

var _ social.NotificationRepo = (*Notifications)(nil)

const notificationColumns = `id, owner_user_id, kind, actor_user_id, read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*social.Notification, error) {
	var n social.Notification
	err := row.Scan(&n.ID, &n.OwnerUserID, &n.Kind, &n.ActorUserID, &n.Read, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Notifications) Find(ctx context.Context, id string) (*social.Notification, error) {
	row := r.db.QueryRowContext(ctx, `select `+notificationColumns+` from notifications where id = $1`, id)
	return scanNotification(row)
}

func (r *Notifications) ListByOwner(ctx context.Context, ownerUserID string) ([]*social.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		select `+notificationColumns+`
		from notifications
		where owner_user_id = $1
		order by created_at desc
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*social.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Notifications) UnreadCount(ctx context.Context, ownerUserID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		select count(*) from notifications where owner_user_id = $1 and read = false
	`, ownerUserID).Scan(&count)
	return count, err
}

func (r *Notifications) Save(ctx context.Context, n *social.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		insert into notifications (id, owner_user_id, kind, actor_user_id, read, created_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (id) do update set read = excluded.read
	`, n.ID, n.OwnerUserID, n.Kind, n.ActorUserID, n.Read, n.CreatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return social.ErrNotFound
	}
	return err
}

func (r *Notifications) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from notifications where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return social.ErrNotFound
	}
	return nil
}
