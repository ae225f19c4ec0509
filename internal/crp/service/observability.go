package service

import (
	"context"
	"time"

	"crpstore/internal/crp/models"
	"crpstore/internal/platform/middleware"
	audit "crpstore/pkg/platform/audit"
)

// logAudit writes the audit log line and forwards the event to the publisher.
// Publisher failures are logged and never change the result of the call.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, user string, outcome models.Outcome, reason string, challenges int) {
	requestID := middleware.GetRequestID(ctx)
	args := []any{
		"event", string(event),
		"log_type", "audit",
		"user", user,
		"outcome", string(outcome),
		"challenges", challenges,
	}
	if reason != "" {
		args = append(args, "reason", reason)
	}
	if requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if event.Category() == audit.CategorySecurity {
		s.logger.WarnContext(ctx, string(event), args...)
	} else {
		s.logger.InfoContext(ctx, string(event), args...)
	}

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Subject:    user,
		Action:     string(event),
		Outcome:    string(outcome),
		Reason:     reason,
		Challenges: challenges,
		RequestID:  requestID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "event", string(event))
	}
}

func (s *Service) logFailure(ctx context.Context, operation, user string, err error) {
	s.logger.ErrorContext(ctx, "credential store failure",
		"operation", operation,
		"user", user,
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
}

func (s *Service) observeEnrol(outcome models.Outcome, challenges int, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveEnrol(outcome, challenges, elapsed)
	}
}

func (s *Service) observeAuthenticate(outcome models.Outcome, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveAuthenticate(outcome, elapsed)
	}
}
