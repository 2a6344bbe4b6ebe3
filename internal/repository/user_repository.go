package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/crm-backend/internal/model"
)

// UserRepo reads and writes rows of the `users` table, always joined with
// the roles reference table so callers receive a resolved role name.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.password_hash,
	u.role_id, r.name, u.document_type, u.document_number, u.birth_date,
	u.birth_place, u.gender, u.phone, u.address, u.city, u.country, u.active,
	u.created_at, u.updated_at`

// scanUser reads one joined row and normalizes the role name exactly once,
// at the store-read boundary.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u       model.User
		rawRole string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.RoleID, &rawRole, &u.DocumentType, &u.DocumentNum, &u.BirthDate,
		&u.BirthPlace, &u.Gender, &u.Phone, &u.Address, &u.City, &u.Country,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = model.NormalizeRole(rawRole)
	return &u, nil
}

// FindActiveByEmail fetches an active user by normalized email, joined with
// its role. Returns sql.ErrNoRows when no such account exists.
func (r *UserRepo) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u INNER JOIN roles r ON u.role_id = r.id WHERE u.email = ? AND u.active = 1 LIMIT 1",
		email)
	return scanUser(row)
}

// FindActiveByID fetches an active user by id, joined with its role. Used by
// access-token verification: a deleted or deactivated account makes an
// otherwise valid token unusable.
func (r *UserRepo) FindActiveByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u INNER JOIN roles r ON u.role_id = r.id WHERE u.id = ? AND u.active = 1 LIMIT 1",
		id)
	return scanUser(row)
}

// FindByID fetches a user regardless of the active flag. Administrative
// screens need to see deactivated accounts too.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u INNER JOIN roles r ON u.role_id = r.id WHERE u.id = ? LIMIT 1",
		id)
	return scanUser(row)
}

// List returns all users ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users u INNER JOIN roles r ON u.role_id = r.id ORDER BY u.created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var (
			u       model.User
			rawRole string
		)
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
			&u.RoleID, &rawRole, &u.DocumentType, &u.DocumentNum, &u.BirthDate,
			&u.BirthPlace, &u.Gender, &u.Phone, &u.Address, &u.City, &u.Country,
			&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = model.NormalizeRole(rawRole)
		users = append(users, &u)
	}
	return users, rows.Err()
}

// RoleID resolves a role name to its reference-table id.
func (r *UserRepo) RoleID(ctx context.Context, role model.Role) (uint8, error) {
	var id uint8
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM roles WHERE name = ? LIMIT 1", string(role)).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrUnknownRole
	}
	return id, err
}

// NewUserInput carries the fields of an administrative user-provisioning
// request. PasswordHash must already be hashed by the caller.
type NewUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         model.Role
	DocumentType string
	DocumentNum  string
	BirthDate    sql.NullTime
	BirthPlace   string
	Gender       string
	Phone        sql.NullInt64
	Address      string
	City         string
	Country      string
}

// Create inserts a user and returns its id. A duplicate email surfaces as
// ErrEmailExists, an unresolvable role as ErrUnknownRole.
func (r *UserRepo) Create(ctx context.Context, in NewUserInput) (uint64, error) {
	roleID, err := r.RoleID(ctx, in.Role)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, role_id,
			document_type, document_number, birth_date, birth_place, gender,
			phone, address, city, country, active)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)`,
		in.FirstName, in.LastName, strings.ToLower(strings.TrimSpace(in.Email)),
		in.PasswordHash, roleID, in.DocumentType, in.DocumentNum, in.BirthDate,
		in.BirthPlace, in.Gender, in.Phone, in.Address, in.City, in.Country)
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

// UpdateProfile rewrites the mutable profile fields of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, in NewUserInput) error {
	roleID, err := r.RoleID(ctx, in.Role)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, email=?, role_id=?,
			document_type=?, document_number=?, birth_date=?, birth_place=?,
			gender=?, phone=?, address=?, city=?, country=?
		 WHERE id=?`,
		in.FirstName, in.LastName, strings.ToLower(strings.TrimSpace(in.Email)),
		roleID, in.DocumentType, in.DocumentNum, in.BirthDate, in.BirthPlace,
		in.Gender, in.Phone, in.Address, in.City, in.Country, id)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// SetActive flips the active flag without touching other fields.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET active=? WHERE id=?", active, id)
	return err
}

// Delete hard-deletes a user. The refresh_tokens FK cascades, so every
// outstanding session of the user dies with the row.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// isDuplicate reports whether err is the MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
