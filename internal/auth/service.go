package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/utils"
)

// Service mediates the full credential lifecycle. It never touches HTTP: the
// handlers and admission middleware sit on top of it, and the store behind it
// is injected so tests can run against an in-memory fake.
type Service struct {
	users   UserStore
	tokens  TokenStore
	codec   *Codec
	allowed map[model.Role]bool
}

// NewService wires the auth core. allowedRoles is the login allow-list; an
// account outside it cannot authenticate against this API even with correct
// credentials.
func NewService(users UserStore, tokens TokenStore, codec *Codec, allowedRoles []model.Role) *Service {
	allowed := make(map[model.Role]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}
	return &Service{users: users, tokens: tokens, codec: codec, allowed: allowed}
}

// AllowedRoles returns the configured login allow-list, lower-cased, for
// error payloads.
func (s *Service) AllowedRoles() []string {
	out := make([]string, 0, len(s.allowed))
	for r := range s.allowed {
		out = append(out, string(r))
	}
	return out
}

// Result is a successful login or refresh: one token pair plus the sanitized
// identity of the account they belong to.
type Result struct {
	AccessToken  string
	RefreshToken string
	User         *model.Identity
}

// Authenticate validates an email/password pair and mints a token pair.
// Unknown email and wrong password produce the identical error. Correct
// credentials with a role outside the allow-list produce ErrRoleNotAuthorized
// so the administrative surface stays closed to client accounts; that denial
// still carries the sanitized identity (and no tokens) so callers can report
// which role was turned away.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Result, *Error) {
	u, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal("authenticate: find user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !s.allowed[u.Role] {
		return &Result{User: u.Sanitize()}, ErrRoleNotAuthorized
	}

	// Amortized cleanup: sweep stale rows before minting new ones. A failed
	// sweep must not block a valid login.
	if err := s.tokens.DeleteExpired(ctx); err != nil {
		log.Printf("auth: expired-token sweep failed: %v", err)
	}

	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A replayed token fails even with a valid signature because
// its row no longer exists; when two calls race on the same token, the delete
// count decides the single winner.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Result, *Error) {
	claims, aerr := s.codec.ParseRefresh(refreshToken)
	if aerr != nil {
		return nil, aerr
	}

	live, err := s.tokens.FindLive(ctx, refreshToken, claims.UserID)
	if err != nil {
		return nil, s.internal("refresh: find token", err)
	}
	if !live {
		return nil, ErrTokenInvalid
	}

	consumed, err := s.tokens.Consume(ctx, refreshToken)
	if err != nil {
		return nil, s.internal("refresh: consume token", err)
	}
	if consumed == 0 {
		// A concurrent refresh won the row. This caller's token is spent.
		return nil, ErrTokenInvalid
	}

	u, err := s.users.FindActiveByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("refresh: find user", err)
	}

	return s.issue(ctx, u)
}

// Logout deletes every refresh token owned by the user, ending all renewable
// sessions across devices. Deleting zero rows is success.
func (s *Service) Logout(ctx context.Context, userID uint64) *Error {
	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return s.internal("logout: delete tokens", err)
	}
	return nil
}

// VerifyAccess answers "is this token currently usable, and as whom". The
// signature and expiry come from the token itself; the identity is re-read
// from the store so role changes, deactivation and deletion take effect
// immediately, before the token's natural expiry.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*model.Identity, *Error) {
	claims, aerr := s.codec.ParseAccess(token)
	if aerr != nil {
		return nil, aerr
	}
	u, err := s.users.FindActiveByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("verify: find user", err)
	}
	return u.Sanitize(), nil
}

// issue mints one access and one refresh token for the user and persists the
// refresh token with its expiry.
func (s *Service) issue(ctx context.Context, u *model.User) (*Result, *Error) {
	access, _, err := s.codec.SignAccess(u.ID, u.Email)
	if err != nil {
		return nil, s.internal("issue access token", err)
	}
	refresh, refreshExp, err := s.codec.SignRefresh(u.ID)
	if err != nil {
		return nil, s.internal("issue refresh token", err)
	}
	if err := s.tokens.Insert(ctx, u.ID, refresh, refreshExp); err != nil {
		return nil, s.internal("persist refresh token", err)
	}
	return &Result{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         u.Sanitize(),
	}, nil
}

// internal logs the underlying failure with detail and returns the opaque
// taxonomy value surfaced to callers.
func (s *Service) internal(op string, err error) *Error {
	log.Printf("auth: %s: %v", op, err)
	return ErrInternal
}
