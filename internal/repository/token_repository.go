package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists refresh tokens. The signed token string is stored
// verbatim; a row existing with a future expires_at is the sole definition of
// a live token.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Insert stores a freshly issued refresh token for a user.
func (r *TokenRepo) Insert(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, expiresAt)
	return err
}

// FindLive reports whether the exact token string exists for the user with an
// unexpired row. Expiry is evaluated by the database clock so all instances
// agree on it.
func (r *TokenRepo) FindLive(ctx context.Context, token string, userID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM refresh_tokens WHERE token=? AND user_id=? AND expires_at > NOW() LIMIT 1",
		token, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Consume deletes the presented token row and returns how many rows were
// removed. The delete is atomic per row, so of two concurrent refresh calls
// presenting the same token exactly one observes a count of 1; the loser sees
// 0 and must treat the token as invalid.
func (r *TokenRepo) Consume(ctx context.Context, token string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE token=?", token)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAllForUser removes every refresh token owned by the user. Zero rows
// deleted is not an error; logout is idempotent.
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired sweeps rows whose expiry has passed. Called opportunistically
// before minting new tokens; there is no background purge job.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < NOW()")
	return err
}
