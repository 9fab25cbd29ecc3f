package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "github.com/kuhelii/linked-in-connect-app/internal/repository/port"
)

// PgUserRepository reads the directory tables maintained by the profile and social-graph services.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*repository.User, error) {
	var u repository.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, profile_image, is_anonymous
		FROM directory.users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.ProfileImage, &u.IsAnonymous)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]repository.User, error) {
	out := make(map[string]repository.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, profile_image, is_anonymous
		FROM directory.users
		WHERE id = ANY($1::text[])
	`, ids)
	if err != nil {
		return nil, err
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByPos[repository.User])
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// AreFriends treats the friendship table as directed pairs written in both directions
// and accepts either one.
func (r *PgUserRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM directory.friendship
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)
	`, a, b).Scan(&ok)
	return ok, err
}
