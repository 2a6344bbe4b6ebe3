package auth

import (
	"context"
	"time"

	"github.com/iliyamo/crm-backend/internal/model"
)

// UserStore is the slice of the credential store the auth core reads.
// *repository.UserRepo satisfies it; tests supply an in-memory fake.
type UserStore interface {
	// FindActiveByEmail resolves an active account by email, joined with its
	// role. Absence is reported as sql.ErrNoRows.
	FindActiveByEmail(ctx context.Context, email string) (*model.User, error)
	// FindActiveByID resolves an active account by id.
	FindActiveByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore is the refresh-token persistence the auth core drives. The
// Consume count is load-bearing: it converts a rotation race into a
// deterministic loser (see Service.Refresh).
type TokenStore interface {
	Insert(ctx context.Context, userID uint64, token string, expiresAt time.Time) error
	FindLive(ctx context.Context, token string, userID uint64) (bool, error)
	Consume(ctx context.Context, token string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context) error
}
