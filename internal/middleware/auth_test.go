package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

// stubUserStore serves a single user for VerifyAccess.
type stubUserStore struct{ user *model.User }

func (s stubUserStore) FindActiveByEmail(context.Context, string) (*model.User, error) {
	return nil, sql.ErrNoRows
}

func (s stubUserStore) FindActiveByID(_ context.Context, id uint64) (*model.User, error) {
	if s.user != nil && s.user.ID == id && s.user.Active {
		return s.user, nil
	}
	return nil, sql.ErrNoRows
}

// stubTokenStore satisfies auth.TokenStore; access verification never touches it.
type stubTokenStore struct{}

func (stubTokenStore) Insert(context.Context, uint64, string, time.Time) error { return nil }
func (stubTokenStore) FindLive(context.Context, string, uint64) (bool, error)  { return false, nil }
func (stubTokenStore) Consume(context.Context, string) (int64, error)          { return 0, nil }
func (stubTokenStore) DeleteAllForUser(context.Context, uint64) error          { return nil }
func (stubTokenStore) DeleteExpired(context.Context) error                     { return nil }

const (
	accessSecret  = "mw-access-secret"
	refreshSecret = "mw-refresh-secret"
)

func newTestService(user *model.User) (*auth.Service, *auth.Codec) {
	codec := auth.NewCodec(accessSecret, refreshSecret, 15, 7)
	svc := auth.NewService(stubUserStore{user: user}, stubTokenStore{}, codec,
		[]model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleAdvisor})
	return svc, codec
}

func advisorUser() *model.User {
	return &model.User{ID: 5, Email: "advisor@example.com", Role: model.RoleAdvisor, Active: true}
}

func performRequest(t *testing.T, mw echo.MiddlewareFunc, bearer string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, mw(next)(c))
	return rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticateMissingToken(t *testing.T) {
	svc, _ := newTestService(advisorUser())
	rec := performRequest(t, Authenticate(svc), "", okHandler)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NO_TOKEN", decodeBody(t, rec)["code"])
}

func TestAuthenticateGarbageToken(t *testing.T) {
	svc, _ := newTestService(advisorUser())
	rec := performRequest(t, Authenticate(svc), "not-a-jwt", okHandler)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeBody(t, rec)["code"])
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc, _ := newTestService(advisorUser())
	expired := &auth.Codec{AccessSecret: accessSecret, AccessTTL: -time.Minute}
	tok, _, err := expired.SignAccess(5, "advisor@example.com")
	require.NoError(t, err)

	rec := performRequest(t, Authenticate(svc), tok, okHandler)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decodeBody(t, rec)["code"])
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc, codec := newTestService(nil) // no user behind the store
	tok, _, err := codec.SignAccess(5, "advisor@example.com")
	require.NoError(t, err)

	rec := performRequest(t, Authenticate(svc), tok, okHandler)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	svc, codec := newTestService(advisorUser())
	tok, _, err := codec.SignAccess(5, "advisor@example.com")
	require.NoError(t, err)

	var seen *model.Identity
	rec := performRequest(t, Authenticate(svc), tok, func(c echo.Context) error {
		seen = CurrentIdentity(c)
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, uint64(5), seen.ID)
	assert.Equal(t, "advisor", seen.Rol)
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	rec := performRequest(t, RequireAdmin, "", okHandler)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NOT_AUTHENTICATED", decodeBody(t, rec)["code"])
}

func TestRequireRoleInsufficientPermissions(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(identityKey, &model.Identity{ID: 5, Rol: "advisor"})

	require.NoError(t, RequireAdmin(okHandler)(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", body["code"])
	assert.Equal(t, "advisor", body["user_role"])
	assert.ElementsMatch(t,
		[]any{"administrator", "superadministrator"}, body["required_roles"],
		"the denial names the tiers that would be admitted")
}

func TestRequireRolePasses(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(identityKey, &model.Identity{ID: 1, Rol: "superadministrator"})

	require.NoError(t, RequireSuperAdmin(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleNormalizesCase(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(identityKey, &model.Identity{ID: 1, Rol: "Administrator"})

	require.NoError(t, RequireAdmin(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
