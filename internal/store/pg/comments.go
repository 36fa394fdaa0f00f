package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/social"
)

// Comments implements social.CommentRepo.
type Comments struct {
	db *sql.DB
}

// Comments returns the comment repository backed by this store.
func (s *Store) Comments() *Comments { return &Comments{db: s.db} }

var _ social.CommentRepo = (*Comments)(nil)

func scanComment(row interface{ Scan(...any) error }) (*social.Comment, error) {
	var (
		c      social.Comment
		parent sql.NullString
	)
	err := row.Scan(&c.ID, &c.PostID, &c.UserID, &parent, &c.Content, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.ParentID = parent.String
	return &c, nil
}

func (r *Comments) Find(ctx context.Context, id string) (*social.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
		select id, post_id, user_id, parent_id, content, created_at
		from comments
		where id = $1
	`, id)
	return scanComment(row)
}

func (r *Comments) ListByPost(ctx context.Context, postID string) ([]*social.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		select id, post_id, user_id, parent_id, content, created_at
		from comments
		where post_id = $1
		order by created_at
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*social.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Comments) Save(ctx context.Context, c *social.Comment) error {
	_, err := r.db.ExecContext(ctx, `
		insert into comments (id, post_id, user_id, parent_id, content, created_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (id) do update set content = excluded.content
	`, c.ID, c.PostID, c.UserID, nullIfEmpty(c.ParentID), c.Content, c.CreatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return social.ErrNotFound
	}
	return err
}

func (r *Comments) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from comments where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return social.ErrNotFound
	}
	return nil
}
