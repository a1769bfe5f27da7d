package actor

import "errors"

// ErrForbidden marks an authenticated caller lacking the admin role for an
// admin-only operation; distinct from a missing session entirely.
var ErrForbidden = errors.New("forbidden")

// Role values handed to us by the upstream auth gate.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Actor is the authenticated caller identity plus the request attribution
// fields the audit trail records.
type Actor struct {
	ID        string
	Email     string
	Role      string
	IP        string
	UserAgent string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
