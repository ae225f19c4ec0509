// Package audit defines the audit trail emitted for every enrolment and
// authentication outcome. Events never carry responses.
package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Subject    string    `json:"subject"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Challenges int       `json:"challenges"`
	RequestID  string    `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventCRPEnrolled      AuditEvent = "crp_enrolled"
	EventCRPEnrolRejected AuditEvent = "crp_enrol_rejected"
	EventCRPAuthenticated AuditEvent = "crp_authenticated"
	EventCRPAuthFailed    AuditEvent = "crp_auth_failed"
)

// Category groups events for downstream routing.
type Category string

const (
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

// Category returns the routing category. Rejections and failures are
// security events; anything unknown falls back to operations.
func (e AuditEvent) Category() Category {
	switch e {
	case EventCRPEnrolRejected, EventCRPAuthFailed:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}

// Sink persists or forwards events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
