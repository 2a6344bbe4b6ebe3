package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/queue"
)

// AuthHandler exposes the credential lifecycle over HTTP. All decisions are
// delegated to the auth core; this layer only parses requests, maps taxonomy
// errors onto responses and emits audit events.
type AuthHandler struct {
	Svc *auth.Service
	// Audit publishes an audit event; swapped for a no-op in tests. nil
	// disables auditing entirely.
	Audit func(ctx context.Context, ev queue.AuditEvent) error
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{Svc: svc, Audit: queue.PublishAudit}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type authResp struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         *model.Identity `json:"user"`
}

// fail writes a taxonomy error as the response body.
func fail(c echo.Context, err *auth.Error) error {
	return c.JSON(err.Status, echo.Map{"error": err.Message, "code": err.Code})
}

// audit publishes fire-and-forget; a dead broker must never affect the
// request that produced the event.
func (h *AuthHandler) audit(ev queue.AuditEvent) {
	if h.Audit == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Audit(ctx, ev)
	}()
}

// Login authenticates an email/password pair and returns a token pair plus
// the sanitized user. POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, aerr := h.Svc.Authenticate(ctx, req.Email, req.Password)
	if aerr != nil {
		if aerr == auth.ErrRoleNotAuthorized {
			h.audit(queue.AuditEvent{Event: queue.EventLoginDenied, Email: req.Email, IP: c.RealIP(), Detail: aerr.Code})
			// Report the account's role and which tiers may log in so
			// operators can diagnose misconfigured accounts.
			body := echo.Map{
				"error":         aerr.Message,
				"code":          aerr.Code,
				"allowed_roles": h.Svc.AllowedRoles(),
			}
			if res != nil && res.User != nil {
				body["user_role"] = res.User.Rol
			}
			return c.JSON(aerr.Status, body)
		}
		if aerr == auth.ErrInvalidCredentials {
			h.audit(queue.AuditEvent{Event: queue.EventLoginDenied, Email: req.Email, IP: c.RealIP(), Detail: aerr.Code})
		}
		return fail(c, aerr)
	}

	h.audit(queue.AuditEvent{Event: queue.EventLogin, UserID: res.User.ID, Email: res.User.Email, Role: res.User.Rol, IP: c.RealIP()})
	return c.JSON(http.StatusOK, authResp{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// Refresh exchanges a live refresh token for a new pair, consuming the old
// one. POST /api/auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, aerr := h.Svc.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if aerr != nil {
		return fail(c, aerr)
	}

	h.audit(queue.AuditEvent{Event: queue.EventRefresh, UserID: res.User.ID, Email: res.User.Email, Role: res.User.Rol, IP: c.RealIP()})
	return c.JSON(http.StatusOK, authResp{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	})
}

// Logout revokes every renewable session of the caller. Requires the
// Authenticate middleware. POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return fail(c, auth.ErrNotAuthenticated)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if aerr := h.Svc.Logout(ctx, identity.ID); aerr != nil {
		return fail(c, aerr)
	}

	h.audit(queue.AuditEvent{Event: queue.EventLogout, UserID: identity.ID, Email: identity.Email, Role: identity.Rol, IP: c.RealIP()})
	return c.JSON(http.StatusOK, echo.Map{"message": "session closed successfully"})
}

// Verify returns the caller's sanitized identity as resolved by the
// admission middleware. GET /api/auth/verify
func (h *AuthHandler) Verify(c echo.Context) error {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return fail(c, auth.ErrNotAuthenticated)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": identity})
}
