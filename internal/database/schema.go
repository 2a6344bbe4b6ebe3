package database

import (
	"context"
	"database/sql"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/crm-backend/internal/model"
)

// schemaStatements creates the four application tables when absent. Order
// matters: roles before users, users before refresh_tokens.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id TINYINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(40) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_roles_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role_id TINYINT UNSIGNED NOT NULL,
		document_type VARCHAR(20) NOT NULL DEFAULT '',
		document_number VARCHAR(40) NOT NULL DEFAULT '',
		birth_date DATE NULL,
		birth_place VARCHAR(120) NOT NULL DEFAULT '',
		gender VARCHAR(20) NOT NULL DEFAULT '',
		phone BIGINT NULL,
		address VARCHAR(255) NOT NULL DEFAULT '',
		city VARCHAR(120) NOT NULL DEFAULT '',
		country VARCHAR(120) NOT NULL DEFAULT '',
		active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email),
		CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		token VARCHAR(512) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_refresh_tokens_user (user_id),
		KEY idx_refresh_tokens_token (token(191)),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id)
			REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(150) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(40) NOT NULL DEFAULT '',
		company VARCHAR(150) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_contacts_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// seedRoles are the reference tiers inserted once. INSERT IGNORE keeps the
// call idempotent across restarts.
var seedRoles = []model.Role{
	model.RoleSuperAdmin,
	model.RoleAdmin,
	model.RoleAdvisor,
	model.RoleEmployee,
}

// EnsureSchema provisions the application tables and reference data. When the
// users table is empty and seed credentials are configured, an initial
// super-administrator account is created so the API is reachable on a fresh
// database.
func EnsureSchema(ctx context.Context, db *sql.DB, adminEmail, adminPassword string, bcryptCost int) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, role := range seedRoles {
		if _, err := db.ExecContext(ctx,
			"INSERT IGNORE INTO roles (name) VALUES (?)", string(role)); err != nil {
			return err
		}
	}
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcryptCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, role_id)
		 SELECT 'Super', 'Admin', ?, ?, id FROM roles WHERE name = ?`,
		adminEmail, string(hash), string(model.RoleSuperAdmin))
	if err != nil {
		return err
	}
	log.Printf("database: seeded initial super-administrator %s", adminEmail)
	return nil
}
