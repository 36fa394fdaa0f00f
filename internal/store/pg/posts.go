package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/social"
)

// Posts implements social.PostRepo. Likes live in a separate post_likes
// table keyed by (post_id, user_id), which makes the toggle a plain
// insert-or-delete.
type Posts struct {
	db *sql.DB
}

// Posts returns the post repository backed by this store.
func (s *Store) Posts() *Posts { return &Posts{db: s.db} }

var _ social.PostRepo = (*Posts)(nil)

const postColumns = `id, user_id, content, image_key, shared_post_id, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*social.Post, error) {
	var (
		p      social.Post
		image  sql.NullString
		shared sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &image, &shared, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ImageKey = image.String
	p.SharedPostID = shared.String
	return &p, nil
}

func (r *Posts) Find(ctx context.Context, id string) (*social.Post, error) {
	row := r.db.QueryRowContext(ctx, `select `+postColumns+` from posts where id = $1`, id)
	post, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachLikes(ctx, []*social.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *Posts) ListByUser(ctx context.Context, userID string, limit int) ([]*social.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		select `+postColumns+`
		from posts
		where user_id = $1
		order by created_at desc
		limit $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *Posts) ListFeed(ctx context.Context, userIDs []string, limit int) ([]*social.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		select `+postColumns+`
		from posts
		where user_id = any($1)
		order by created_at desc
		limit $2
	`, userIDs, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *Posts) collect(ctx context.Context, rows *sql.Rows) ([]*social.Post, error) {
	defer rows.Close()
	var out []*social.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLikes(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Posts) attachLikes(ctx context.Context, posts []*social.Post) error {
	if len(posts) == 0 {
		return nil
	}
	idx := make(map[string]*social.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		idx[p.ID] = p
		ids = append(ids, p.ID)
	}
	rows, err := r.db.QueryContext(ctx, `
		select post_id, user_id
		from post_likes
		where post_id = any($1)
		order by liked_at
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return err
		}
		if p, ok := idx[postID]; ok {
			p.LikedBy = append(p.LikedBy, userID)
		}
	}
	return rows.Err()
}

func (r *Posts) Save(ctx context.Context, p *social.Post) error {
	_, err := r.db.ExecContext(ctx, `
		insert into posts (id, user_id, content, image_key, shared_post_id, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (id) do update set
			content = excluded.content,
			image_key = excluded.image_key,
			updated_at = excluded.updated_at
	`, p.ID, p.UserID, p.Content, nullIfEmpty(p.ImageKey), nullIfEmpty(p.SharedPostID), p.CreatedAt, p.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
		return social.ErrNotFound
	}
	return err
}

func (r *Posts) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from posts where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return social.ErrNotFound
	}
	return nil
}

func (r *Posts) SetLike(ctx context.Context, postID, userID string, liked bool) error {
	if liked {
		_, err := r.db.ExecContext(ctx, `
			insert into post_likes (post_id, user_id, liked_at)
			values ($1, $2, now())
			on conflict do nothing
		`, postID, userID)
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return social.ErrNotFound
		}
		return err
	}
	_, err := r.db.ExecContext(ctx, `delete from post_likes where post_id = $1 and user_id = $2`, postID, userID)
	return err
}
