package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

// fakeUserRepo backs both the user handler and the auth core in tests, so a
// change made over HTTP is observable through token verification.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint64]*model.User
	nextID uint64
}

func (s *fakeUserRepo) FindActiveByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserRepo) FindActiveByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok && u.Active {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserRepo) FindByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *fakeUserRepo) List(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeUserRepo) Create(_ context.Context, in repository.NewUserInput) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email {
			return 0, repository.ErrEmailExists
		}
	}
	s.nextID++
	s.users[s.nextID] = &model.User{
		ID: s.nextID, FirstName: in.FirstName, LastName: in.LastName,
		Email: in.Email, PasswordHash: in.PasswordHash, Role: in.Role, Active: true,
	}
	return s.nextID, nil
}

func (s *fakeUserRepo) UpdateProfile(_ context.Context, id uint64, in repository.NewUserInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.FirstName, u.LastName, u.Email, u.Role = in.FirstName, in.LastName, in.Email, in.Role
	return nil
}

func (s *fakeUserRepo) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (s *fakeUserRepo) SetActive(_ context.Context, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Active = active
	}
	return nil
}

func (s *fakeUserRepo) Delete(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

func (s *fakeUserRepo) activeOf(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Active
}

// ----- fixtures -----

func newUserFixture(t *testing.T) (*UserHandler, *auth.Service, *auth.Codec, *fakeUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{users: map[uint64]*model.User{
		1: {ID: 1, FirstName: "Root", LastName: "Admin", Email: "admin@example.com",
			PasswordHash: string(hash), Role: model.RoleAdmin, Active: true},
		2: {ID: 2, FirstName: "Ana", LastName: "Lopez", Email: "advisor@example.com",
			PasswordHash: string(hash), Role: model.RoleAdvisor, Active: true},
	}, nextID: 2}
	codec := auth.NewCodec("user-access", "user-refresh", 15, 7)
	svc := auth.NewService(repo, newMemTokenStore(), codec,
		[]model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleAdvisor})

	h := NewUserHandler(repo, newMemTokenStore(), bcrypt.MinCost)
	h.Audit = nil // no broker in tests
	return h, svc, codec, repo
}

// putUser sends PUT /api/users/:id through the admission middleware.
func putUser(t *testing.T, svc *auth.Service, h *UserHandler, bearer, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/api/users/"+id, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, middleware.Authenticate(svc)(h.Update)(c))
	return rec
}

const advisorUpdateBody = `{"first_name":"Ana","last_name":"Lopez",` +
	`"email":"advisor@example.com","rol":"advisor","active":false}`

func TestUpdateAdminDeactivatesAccount(t *testing.T) {
	h, svc, codec, repo := newUserFixture(t)

	advisorTok, _, err := codec.SignAccess(2, "advisor@example.com")
	require.NoError(t, err)
	_, aerr := svc.VerifyAccess(context.Background(), advisorTok)
	require.Nil(t, aerr, "token must verify while the account is active")

	adminTok, _, err := codec.SignAccess(1, "admin@example.com")
	require.NoError(t, err)

	rec := putUser(t, svc, h, adminTok, "2", advisorUpdateBody)
	require.Equal(t, http.StatusOK, rec.Code)
	user := parseBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, false, user["active"])
	assert.False(t, repo.activeOf(2))

	// Deactivation takes effect before the token's natural expiry.
	_, aerr = svc.VerifyAccess(context.Background(), advisorTok)
	require.NotNil(t, aerr)
	assert.Equal(t, auth.ErrUserNotFound, aerr)
}

func TestUpdateAdminReactivatesAccount(t *testing.T) {
	h, svc, codec, repo := newUserFixture(t)
	require.NoError(t, repo.SetActive(context.Background(), 2, false))

	adminTok, _, err := codec.SignAccess(1, "admin@example.com")
	require.NoError(t, err)

	body := strings.Replace(advisorUpdateBody, `"active":false`, `"active":true`, 1)
	rec := putUser(t, svc, h, adminTok, "2", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, repo.activeOf(2))

	advisorTok, _, err := codec.SignAccess(2, "advisor@example.com")
	require.NoError(t, err)
	_, aerr := svc.VerifyAccess(context.Background(), advisorTok)
	assert.Nil(t, aerr)
}

func TestUpdateSelfCannotFlipActive(t *testing.T) {
	h, svc, codec, repo := newUserFixture(t)

	advisorTok, _, err := codec.SignAccess(2, "advisor@example.com")
	require.NoError(t, err)

	rec := putUser(t, svc, h, advisorTok, "2", advisorUpdateBody)
	require.Equal(t, http.StatusOK, rec.Code, "the flag is dropped, not rejected")
	assert.True(t, repo.activeOf(2), "self-service updates must not touch the flag")

	_, aerr := svc.VerifyAccess(context.Background(), advisorTok)
	assert.Nil(t, aerr)
}
