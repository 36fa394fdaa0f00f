package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/social"
)

// Friends implements social.FriendRepo. One row represents the whole
// lifecycle: pending while the request is open, accepted once confirmed.
type Friends struct {
	db *sql.DB
}

// Friends returns the friend repository backed by this store.
func (s *Store) Friends() *Friends { return &Friends{db: s.db} }

var _ social.FriendRepo = (*Friends)(nil)

const friendColumns = `id, requesting_user_id, target_user_id, status, created_at`

func scanFriendRequest(row interface{ Scan(...any) error }) (*social.FriendRequest, error) {
	var fr social.FriendRequest
	err := row.Scan(&fr.ID, &fr.RequestingUserID, &fr.TargetUserID, &fr.Status, &fr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

func (r *Friends) Find(ctx context.Context, id string) (*social.FriendRequest, error) {
	row := r.db.QueryRowContext(ctx, `select `+friendColumns+` from friend_requests where id = $1`, id)
	return scanFriendRequest(row)
}

func (r *Friends) FindBetween(ctx context.Context, userA, userB string) (*social.FriendRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		select `+friendColumns+`
		from friend_requests
		where (requesting_user_id = $1 and target_user_id = $2)
		   or (requesting_user_id = $2 and target_user_id = $1)
	`, userA, userB)
	return scanFriendRequest(row)
}

func (r *Friends) ListForUser(ctx context.Context, userID string) ([]*social.FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		select `+friendColumns+`
		from friend_requests
		where requesting_user_id = $1 or target_user_id = $1
		order by created_at desc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*social.FriendRequest
	for rows.Next() {
		fr, err := scanFriendRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}

func (r *Friends) Save(ctx context.Context, fr *social.FriendRequest) error {
	_, err := r.db.ExecContext(ctx, `
		insert into friend_requests (id, requesting_user_id, target_user_id, status, created_at)
		values ($1, $2, $3, $4, $5)
		on conflict (id) do update set status = excluded.status
	`, fr.ID, fr.RequestingUserID, fr.TargetUserID, fr.Status, fr.CreatedAt)
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return social.ErrAlreadyExists
		case pgErrForeignKeyViolation:
			return social.ErrNotFound
		}
	}
	return err
}

func (r *Friends) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from friend_requests where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return social.ErrNotFound
	}
	return nil
}

func (r *Friends) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		select case when requesting_user_id = $1 then target_user_id else requesting_user_id end
		from friend_requests
		where status = $2 and (requesting_user_id = $1 or target_user_id = $1)
	`, userID, social.FriendRequestAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
