package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/crm-backend/internal/model"
)

// ContactRepo stores CRM address-book records.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// List returns one page of contacts plus the total row count for pagination.
// When search is non-empty it is matched against name, email and company.
func (r *ContactRepo) List(ctx context.Context, search string, limit, offset int) ([]*model.Contact, int, error) {
	query := "SELECT id, name, email, phone, company, created_at, updated_at FROM contacts"
	countQuery := "SELECT COUNT(*) FROM contacts"
	var args, countArgs []any

	if s := strings.TrimSpace(search); s != "" {
		term := "%" + s + "%"
		where := " WHERE name LIKE ? OR email LIKE ? OR company LIKE ?"
		query += where
		countQuery += where
		args = append(args, term, term, term)
		countArgs = append(countArgs, term, term, term)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, total, rows.Err()
}

// GetByID fetches a single contact. Returns sql.ErrNoRows when absent.
func (r *ContactRepo) GetByID(ctx context.Context, id uint64) (*model.Contact, error) {
	var c model.Contact
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, phone, company, created_at, updated_at FROM contacts WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a contact and returns its id. Duplicate emails surface as
// ErrEmailExists.
func (r *ContactRepo) Create(ctx context.Context, name, email, phone, company string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contacts (name, email, phone, company) VALUES (?,?,?,?)",
		name, strings.ToLower(strings.TrimSpace(email)), phone, company)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a contact's fields. Callers check existence beforehand;
// RowsAffected is not consulted because MySQL reports 0 for no-op updates.
func (r *ContactRepo) Update(ctx context.Context, id uint64, name, email, phone, company string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE contacts SET name=?, email=?, phone=?, company=? WHERE id=?",
		name, strings.ToLower(strings.TrimSpace(email)), phone, company, id)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// Delete removes a contact. Returns false when the id does not exist.
func (r *ContactRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM contacts WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
