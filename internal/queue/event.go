// Package queue carries the audit event stream of the CRM over RabbitMQ:
// authentication events are published to a durable queue and a background
// consumer appends them to logs/audit.log.
package queue

// Audit event kinds.
const (
	EventLogin       = "auth.login"
	EventLoginDenied = "auth.login_denied"
	EventRefresh     = "auth.refresh"
	EventLogout      = "auth.logout"
	EventUserDeleted = "user.deleted"
)

// AuditEvent records one security-relevant action. It carries enough context
// for downstream consumers to log or alert without querying the primary
// database.
type AuditEvent struct {
	Event     string `json:"event"`
	UserID    uint64 `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	IP        string `json:"ip,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339, UTC
}
