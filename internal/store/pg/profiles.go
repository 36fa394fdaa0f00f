package pg

import (
	"context"
	"database/sql"
	"errors"

	"shareme.org/internal/social"
)

// Profiles implements social.ProfileRepo.
type Profiles struct {
	db *sql.DB
}

// Profiles returns the profile repository backed by this store.
func (s *Store) Profiles() *Profiles { return &Profiles{db: s.db} }

var _ social.ProfileRepo = (*Profiles)(nil)

const profileColumns = `id, username, first_name, last_name, email, online, image_key, cover_image_key, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*social.UserProfile, error) {
	var (
		p               social.UserProfile
		image, coverImg sql.NullString
	)
	err := row.Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName, &p.Email, &p.Online, &image, &coverImg, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ImageKey = image.String
	p.CoverImageKey = coverImg.String
	return &p, nil
}

func (r *Profiles) Find(ctx context.Context, id string) (*social.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `select `+profileColumns+` from profiles where id = $1`, id)
	return scanProfile(row)
}

func (r *Profiles) FindByUsername(ctx context.Context, username string) (*social.UserProfile, error) {
	row := r.db.QueryRowContext(ctx, `select `+profileColumns+` from profiles where username = $1`, username)
	return scanProfile(row)
}

func (r *Profiles) Save(ctx context.Context, p *social.UserProfile) error {
	_, err := r.db.ExecContext(ctx, `
		insert into profiles (id, username, first_name, last_name, email, online, image_key, cover_image_key, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		on conflict (id) do update set
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			image_key = excluded.image_key,
			cover_image_key = excluded.cover_image_key,
			updated_at = excluded.updated_at
	`, p.ID, p.Username, p.FirstName, p.LastName, p.Email, p.Online,
		nullIfEmpty(p.ImageKey), nullIfEmpty(p.CoverImageKey), p.CreatedAt, p.UpdatedAt)
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return social.ErrAlreadyExists
	}
	return err
}

func (r *Profiles) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from profiles where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return social.ErrNotFound
	}
	return nil
}

// Search does a case-insensitive prefix match on username, first and
// last name.
func (r *Profiles) Search(ctx context.Context, query string, limit int) ([]*social.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		select `+profileColumns+`
		from profiles
		where username ilike $1 or first_name ilike $1 or last_name ilike $1
		order by username
		limit $2
	`, query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*social.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Profiles) SetOnline(ctx context.Context, id string, online bool) error {
	res, err := r.db.ExecContext(ctx, `update profiles set online = $2 where id = $1`, id, online)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return social.ErrNotFound
	}
	return nil
}
