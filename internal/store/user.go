package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/eduwrite/apiserver/types"
)

const userColumns = `id, username, email, password_hash, credits, created_at, credits_last_reset, is_admin`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var lastReset sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Credits,
		&user.CreatedAt,
		&lastReset,
		&user.IsAdmin,
	)
	if err != nil {
		return types.User{}, translate(err)
	}
	if lastReset.Valid {
		reset := lastReset.Time
		user.CreditsLastReset = &reset
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	if user.CreditsLastReset == nil {
		user.CreditsLastReset = &now
	}

	const query = `
		INSERT INTO users (username, email, password_hash, credits, created_at, credits_last_reset, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Credits,
		user.CreatedAt,
		*user.CreditsLastReset,
		user.IsAdmin,
	).Scan(&user.ID); err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

// ResetCredits sets the balance to credits and stamps the reset time, but
// only if the stored reset time is still before cutoff. It reports whether
// the row was changed, so two concurrent resets on the same day apply once.
func (r *UserRepository) ResetCredits(ctx context.Context, id, credits int, at, cutoff time.Time) (bool, error) {
	const query = `
		UPDATE users
		SET credits = $1,
			credits_last_reset = $2
		WHERE id = $3
			AND COALESCE(credits_last_reset, created_at) < $4`
	result, err := r.db.ExecContext(ctx, query, credits, at, id, cutoff)
	if err != nil {
		return false, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, translate(err)
	}
	return affected > 0, nil
}

// DecrementCredits takes one credit and returns the new balance.
func (r *UserRepository) DecrementCredits(ctx context.Context, id int) (int, error) {
	const query = `
		UPDATE users
		SET credits = credits - 1
		WHERE id = $1
		RETURNING credits`
	var credits int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&credits); err != nil {
		return 0, translate(err)
	}
	return credits, nil
}
