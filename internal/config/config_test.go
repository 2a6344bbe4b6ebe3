package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/crm-backend/internal/model"
)

func TestLoginRolesDefault(t *testing.T) {
	t.Setenv("ALLOWED_LOGIN_ROLES", "")
	assert.Equal(t,
		[]model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleAdvisor},
		loginRoles())
}

func TestLoginRolesParsing(t *testing.T) {
	t.Setenv("ALLOWED_LOGIN_ROLES", " Superadministrator, administrator ,,ADVISOR ")
	assert.Equal(t,
		[]model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleAdvisor},
		loginRoles())
}

func TestIntOrDefault(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	assert.Equal(t, 10, intOr("DB_MAX_OPEN_CONNS", 10))
}

func TestIntOrFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "42")
	assert.Equal(t, 42, intOr("DB_MAX_OPEN_CONNS", 10))
}

func TestLoadRateLimitDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW_SEC", "")

	cfg := LoadRateLimit()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 100, cfg.Max)
	assert.Equal(t, 15*time.Minute, cfg.Window)
}

func TestLoadRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_MAX", "25")
	t.Setenv("RATE_LIMIT_WINDOW_SEC", "60")

	cfg := LoadRateLimit()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 25, cfg.Max)
	assert.Equal(t, time.Minute, cfg.Window)
}
