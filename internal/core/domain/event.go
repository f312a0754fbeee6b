package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthEventType names an auditable account operation.
type AuthEventType string

const (
	EventRegistered      AuthEventType = "registered"
	EventLogin           AuthEventType = "login"
	EventPasswordChanged AuthEventType = "password_changed"
	EventAdminCreated    AuthEventType = "admin_created"
	EventRoleChanged     AuthEventType = "role_changed"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthEvent is one entry in the authentication audit trail. AccountID is
// uuid.Nil when the operation failed before an account was resolved.
type AuthEvent struct {
	Type      AuthEventType
	AccountID uuid.UUID
	Email     string
	Outcome   string
	Detail    string
	At        time.Time
}
