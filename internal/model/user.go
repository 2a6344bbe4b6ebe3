package model

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Role is the closed set of access tiers known to the system. Values are
// normalized (trimmed, lower-cased) exactly once when a row is read from the
// store; everything downstream compares Role values directly.
type Role string

const (
	RoleSuperAdmin Role = "superadministrator"
	RoleAdmin      Role = "administrator"
	RoleAdvisor    Role = "advisor"
	RoleEmployee   Role = "employee"
)

// NormalizeRole maps a raw role name from the database (or configuration) to
// its canonical form. Unknown names are preserved lower-cased so that role
// gates fail closed instead of panicking on unexpected reference data.
func NormalizeRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// User mirrors a row of the `users` table joined with its role name.
// PasswordHash never leaves the repository/auth layers; handlers work with
// the Identity projection instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table (tinyint).
//  Role         – role name resolved through the join, normalized.
//  Active       – whether the account may authenticate.
type User struct {
	ID           uint64        // users.id
	FirstName    string        // users.first_name
	LastName     string        // users.last_name
	Email        string        // users.email
	PasswordHash string        // users.password_hash
	RoleID       uint8         // users.role_id (references roles.id)
	Role         Role          // roles.name, normalized at read time
	DocumentType string        // users.document_type
	DocumentNum  string        // users.document_number
	BirthDate    sql.NullTime  // users.birth_date
	BirthPlace   string        // users.birth_place
	Gender       string        // users.gender
	Phone        sql.NullInt64 // users.phone (numeric column; display form is a string)
	Address      string        // users.address
	City         string        // users.city
	Country      string        // users.country
	Active       bool          // users.active
	CreatedAt    time.Time     // users.created_at
	UpdatedAt    time.Time     // users.updated_at
}

// Identity is the sanitized view of a User returned to clients and attached
// to the request context after admission: the password hash is stripped, the
// role travels lower-cased under the `rol` key, and the phone number is
// coerced to its display form.
type Identity struct {
	ID           uint64     `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Rol          string     `json:"rol"`
	DocumentType string     `json:"document_type,omitempty"`
	DocumentNum  string     `json:"document_number,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	BirthPlace   string     `json:"birth_place,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city,omitempty"`
	Country      string     `json:"country,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Sanitize builds the Identity projection field by field. Constructing it
// explicitly (rather than copying the struct and blanking the hash) keeps the
// response surface auditable.
func (u *User) Sanitize() *Identity {
	id := &Identity{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Rol:          string(u.Role),
		DocumentType: u.DocumentType,
		DocumentNum:  u.DocumentNum,
		BirthPlace:   u.BirthPlace,
		Gender:       u.Gender,
		Address:      u.Address,
		City:         u.City,
		Country:      u.Country,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.BirthDate.Valid {
		t := u.BirthDate.Time
		id.BirthDate = &t
	}
	if u.Phone.Valid {
		id.Phone = strconv.FormatInt(u.Phone.Int64, 10)
	}
	return id
}

// RefreshToken models a row of the `refresh_tokens` table. The signed token
// string is stored verbatim; a token is live while its row exists and
// expires_at lies in the future.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Token     – the signed refresh token string.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	Token     string    // refresh_tokens.token
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
