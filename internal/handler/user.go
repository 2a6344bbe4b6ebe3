package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/middleware"
	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/queue"
	"github.com/iliyamo/crm-backend/internal/repository"
	"github.com/iliyamo/crm-backend/internal/utils"
)

// UserStore is the slice of the user repository the handler drives.
// *repository.UserRepo satisfies it; tests supply an in-memory fake.
type UserStore interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Create(ctx context.Context, in repository.NewUserInput) (uint64, error)
	UpdateProfile(ctx context.Context, id uint64, in repository.NewUserInput) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	SetActive(ctx context.Context, id uint64, active bool) error
	Delete(ctx context.Context, id uint64) (bool, error)
}

// SessionStore revokes the refresh tokens of a user.
type SessionStore interface {
	DeleteAllForUser(ctx context.Context, userID uint64) error
}

// UserHandler implements the administrative user CRUD. Route-level gates
// (RequireAdmin, RequireSuperAdmin) handle the coarse policy; finer rules,
// like advisors reading only their own record, live in the handlers.
type UserHandler struct {
	Users      UserStore
	Tokens     SessionStore
	BcryptCost int
	Audit      func(ctx context.Context, ev queue.AuditEvent) error
}

func NewUserHandler(u UserStore, t SessionStore, bcryptCost int) *UserHandler {
	return &UserHandler{Users: u, Tokens: t, BcryptCost: bcryptCost, Audit: queue.PublishAudit}
}

type userReq struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Rol          string `json:"rol"`
	DocumentType string `json:"document_type"`
	DocumentNum  string `json:"document_number"`
	BirthDate    string `json:"birth_date"` // YYYY-MM-DD
	BirthPlace   string `json:"birth_place"`
	Gender       string `json:"gender"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
	// Active is a pointer so an absent field is distinguishable from an
	// explicit false. Only admin tiers may send it.
	Active *bool `json:"active"`
}

type passwordReq struct {
	Password string `json:"password"`
}

// toInput validates the request body and converts it to a repository input.
// Returns a human-readable problem description when invalid.
func (req *userReq) toInput(requirePassword bool) (repository.NewUserInput, string) {
	var in repository.NewUserInput
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(strings.TrimSpace(req.FirstName)) < 2 || len(strings.TrimSpace(req.LastName)) < 2 {
		return in, "first_name and last_name must be at least 2 characters"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return in, "a valid email is required"
	}
	role := model.NormalizeRole(req.Rol)
	switch role {
	case model.RoleSuperAdmin, model.RoleAdmin, model.RoleAdvisor, model.RoleEmployee:
	default:
		return in, "invalid rol"
	}
	if requirePassword && len(req.Password) < 6 {
		return in, "password must be at least 6 characters"
	}

	in = repository.NewUserInput{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		Role:         role,
		DocumentType: strings.TrimSpace(req.DocumentType),
		DocumentNum:  strings.TrimSpace(req.DocumentNum),
		BirthPlace:   strings.TrimSpace(req.BirthPlace),
		Gender:       strings.TrimSpace(req.Gender),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		Country:      strings.TrimSpace(req.Country),
	}
	if s := strings.TrimSpace(req.BirthDate); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return in, "birth_date must be YYYY-MM-DD"
		}
		in.BirthDate = sql.NullTime{Time: t, Valid: true}
	}
	if s := strings.TrimSpace(req.Phone); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return in, "phone must be numeric"
		}
		in.Phone = sql.NullInt64{Int64: n, Valid: true}
	}
	return in, ""
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// List returns all users, newest first. Admin-gated at the route.
// GET /api/users
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]*model.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitize())
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get returns one user. Advisors may only read their own record; admin tiers
// may read anyone. GET /api/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	caller := middleware.CurrentIdentity(c)
	if caller == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated", "code": "NOT_AUTHENTICATED"})
	}
	if !isAdminTier(caller) && caller.ID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only view your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u.Sanitize()})
}

// Create provisions a new user account. Admin-gated at the route; minting a
// super-administrator additionally requires the caller to be one.
// POST /api/users
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, problem := req.toInput(true)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}
	caller := middleware.CurrentIdentity(c)
	if in.Role == model.RoleSuperAdmin && (caller == nil || model.NormalizeRole(caller.Rol) != model.RoleSuperAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only super administrators may create super administrators"})
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	in.PasswordHash = hash

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email is already registered"})
		case errors.Is(err, repository.ErrUnknownRole):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rol"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
		}
	}

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": u.Sanitize()})
}

// Update rewrites a user's profile. Admin tiers may update anyone and may
// flip the active flag; advisors only themselves, and never their own role
// or flag. Deactivation takes effect immediately: every auth lookup filters
// on the flag, so the account's tokens stop verifying at once.
// PUT /api/users/:id
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	caller := middleware.CurrentIdentity(c)
	if caller == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated", "code": "NOT_AUTHENTICATED"})
	}
	if !isAdminTier(caller) && caller.ID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only update your own account"})
	}

	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in, problem := req.toInput(false)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !isAdminTier(caller) && in.Role != current.Role {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may not change your own role"})
	}
	if !isAdminTier(caller) {
		// Self-service updates cannot touch the flag; drop it as if absent.
		req.Active = nil
	}
	if in.Role == model.RoleSuperAdmin && current.Role != model.RoleSuperAdmin &&
		model.NormalizeRole(caller.Rol) != model.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only super administrators may promote to super administrator"})
	}

	if err := h.Users.UpdateProfile(ctx, id, in); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email is already registered"})
		case errors.Is(err, repository.ErrUnknownRole):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rol"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
		}
	}
	if req.Active != nil && *req.Active != current.Active {
		if err := h.Users.SetActive(ctx, id, *req.Active); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
		}
	}

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u.Sanitize()})
}

// UpdatePassword re-hashes and stores a new password. Self or admin tier.
// PUT /api/users/:id/password
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	caller := middleware.CurrentIdentity(c)
	if caller == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not authenticated", "code": "NOT_AUTHENTICATED"})
	}
	if !isAdminTier(caller) && caller.ID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only change your own password"})
	}

	var req passwordReq
	if err := c.Bind(&req); err != nil || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// Delete hard-deletes a user; the refresh-token FK cascade revokes every
// outstanding session. Super-administrator only (route gate).
// DELETE /api/users/:id
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	caller := middleware.CurrentIdentity(c)
	if caller != nil && caller.ID == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot delete your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Sessions are revoked explicitly as well; restored schemas may lack the
	// FK cascade.
	if err := h.Tokens.DeleteAllForUser(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	deleted, err := h.Users.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if h.Audit != nil {
		ev := queue.AuditEvent{Event: queue.EventUserDeleted, UserID: id, IP: c.RealIP()}
		if caller != nil {
			ev.Email = caller.Email
			ev.Role = caller.Rol
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = h.Audit(ctx, ev)
		}()
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// isAdminTier reports whether the identity holds administrator or
// super-administrator.
func isAdminTier(id *model.Identity) bool {
	switch model.NormalizeRole(id.Rol) {
	case model.RoleAdmin, model.RoleSuperAdmin:
		return true
	}
	return false
}
