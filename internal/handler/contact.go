package handler

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/model"
	"github.com/iliyamo/crm-backend/internal/repository"
)

// ContactHandler implements the CRM address-book CRUD. Any authenticated
// staff user may manage contacts; the route group applies the admission gate.
type ContactHandler struct {
	Contacts *repository.ContactRepo
}

func NewContactHandler(r *repository.ContactRepo) *ContactHandler {
	return &ContactHandler{Contacts: r}
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

func (req *contactReq) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Company = strings.TrimSpace(req.Company)
	if len(req.Name) < 2 {
		return "name must be at least 2 characters"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return "a valid email is required"
	}
	if req.Phone != "" && len(req.Phone) < 7 {
		return "phone must be at least 7 characters"
	}
	return ""
}

// List returns one page of contacts with a pagination envelope. Query
// parameters: page (default 1), limit (default 50, capped at 200), search
// (matched against name, email, company). GET /api/contacts
func (h *ContactHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	search := c.QueryParam("search")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contacts, total, err := h.Contacts.List(ctx, search, limit, (page-1)*limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if contacts == nil {
		contacts = []*model.Contact{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"contacts": contacts,
		"pagination": echo.Map{
			"current_page":   page,
			"total_pages":    int(math.Ceil(float64(total) / float64(limit))),
			"total_items":    total,
			"items_per_page": limit,
		},
	})
}

// Get returns one contact. GET /api/contacts/:id
func (h *ContactHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contact, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"contact": contact})
}

// Create inserts a contact. Duplicate email is a conflict.
// POST /api/contacts
func (h *ContactHandler) Create(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if problem := req.validate(); problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Contacts.Create(ctx, req.Name, req.Email, req.Phone, req.Company)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a contact with this email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create contact failed"})
	}

	contact, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load contact failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"contact": contact})
}

// Update rewrites a contact. PUT /api/contacts/:id
func (h *ContactHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if problem := req.validate(); problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Contacts.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Contacts.Update(ctx, id, req.Name, req.Email, req.Phone, req.Company); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a contact with this email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update contact failed"})
	}

	contact, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load contact failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"contact": contact})
}

// Delete removes a contact. DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Contacts.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete contact failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "contact deleted"})
}
