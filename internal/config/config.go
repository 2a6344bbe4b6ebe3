package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables

	"github.com/iliyamo/crm-backend/internal/model"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for durations and
// costs, a role slice for the login allow-list.
type Config struct {
	Env               string       // application environment (e.g. "dev", "prod")
	Port              string       // HTTP port to listen on
	DBUser            string       // database username
	DBPass            string       // database password (optional)
	DBHost            string       // database host address
	DBPort            string       // database port number
	DBName            string       // database name
	DBMaxOpenConns    int          // connection pool ceiling
	DBMaxIdleConns    int          // idle connections retained by the pool
	AccessSecret      string       // secret used to sign access JWTs
	RefreshSecret     string       // secret used to sign refresh JWTs (independent of AccessSecret)
	AccessTTLMin      int          // access token time-to-live in minutes
	RefreshTTLDays    int          // refresh token time-to-live in days
	BcryptCost        int          // bcrypt cost for password hashing
	AllowedLoginRoles []model.Role // roles eligible to authenticate against this API
	SeedAdminEmail    string       // initial super-administrator email (optional)
	SeedAdminPassword string       // initial super-administrator password (optional)
}

// defaultLoginRoles is used when ALLOWED_LOGIN_ROLES is unset: the
// administrative surface is open to staff tiers only, never plain employees
// or clients.
var defaultLoginRoles = []model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleAdvisor}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    intOr("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    intOr("DB_MAX_IDLE_CONNS", 10),
		AccessSecret:      must("JWT_ACCESS_SECRET"),
		RefreshSecret:     must("JWT_REFRESH_SECRET"),
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:    mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:        mustInt("BCRYPT_COST"),
		AllowedLoginRoles: loginRoles(),
		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
}

// loginRoles parses ALLOWED_LOGIN_ROLES as a comma-separated list of role
// names. Empty entries are skipped; an unset variable yields the default
// staff allow-list.
func loginRoles() []model.Role {
	raw := os.Getenv("ALLOWED_LOGIN_ROLES")
	if strings.TrimSpace(raw) == "" {
		return defaultLoginRoles
	}
	var roles []model.Role
	for _, part := range strings.Split(raw, ",") {
		if r := model.NormalizeRole(part); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return defaultLoginRoles
	}
	return roles
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intOr reads an optional integer variable, falling back to def when the
// variable is unset or empty. A malformed value is still fatal.
func intOr(key string, def int) int {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
