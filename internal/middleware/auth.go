package middleware // middleware provides shared request processing for handlers

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/crm-backend/internal/auth"
	"github.com/iliyamo/crm-backend/internal/model"
)

// identityKey is the context key under which the verified caller identity is
// stored for downstream handlers.
const identityKey = "identity"

// CurrentIdentity returns the identity attached by Authenticate, or nil when
// the request has not passed the admission gate.
func CurrentIdentity(c echo.Context) *model.Identity {
	if id, ok := c.Get(identityKey).(*model.Identity); ok {
		return id
	}
	return nil
}

// reject writes the taxonomy error as a JSON body with its mapped status.
func reject(c echo.Context, err *auth.Error) error {
	return c.JSON(err.Status, echo.Map{"error": err.Message, "code": err.Code})
}

// Authenticate returns an Echo middleware that admits only requests carrying
// a valid bearer access token. The token's signature and expiry are checked
// and the named user is re-read from the store, so a deleted or deactivated
// account is rejected even while its token is still well-signed. On success
// the sanitized identity is attached to the request context.
func Authenticate(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return reject(c, auth.ErrNoToken)
			}
			token := strings.TrimPrefix(header, "Bearer ")

			identity, aerr := svc.VerifyAccess(c.Request().Context(), token)
			if aerr != nil {
				return reject(c, aerr)
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// RequireRole returns a middleware enforcing that the attached identity holds
// one of the given roles. It assumes Authenticate ran earlier in the chain;
// without an identity the request is rejected as unauthenticated. A failed
// gate reports the full allow-list and the caller's actual role so clients
// can explain the denial.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	required := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = true
		required = append(required, string(r))
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := CurrentIdentity(c)
			if identity == nil {
				return reject(c, auth.ErrNotAuthenticated)
			}
			if !allowed[model.NormalizeRole(identity.Rol)] {
				e := auth.ErrInsufficientPermissions
				return c.JSON(e.Status, echo.Map{
					"error":          e.Message,
					"code":           e.Code,
					"required_roles": required,
					"user_role":      identity.Rol,
				})
			}
			return next(c)
		}
	}
}

// Fixed gates composed from RequireRole, mirroring the three-tier policy.
var (
	// RequireSuperAdmin admits super-administrators only.
	RequireSuperAdmin = RequireRole(model.RoleSuperAdmin)
	// RequireAdmin admits administrators and above.
	RequireAdmin = RequireRole(model.RoleAdmin, model.RoleSuperAdmin)
	// RequireAdvisor admits advisors and above.
	RequireAdvisor = RequireRole(model.RoleAdvisor, model.RoleAdmin, model.RoleSuperAdmin)
)
