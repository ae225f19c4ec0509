package service

import (
	"context"
	"errors"
	"fmt"

	"crpstore/internal/crp/models"
	dErrors "crpstore/pkg/domain-errors"
	audit "crpstore/pkg/platform/audit"
	"crpstore/pkg/platform/sentinel"
)

// Store error handling: translates store and sentinel errors into domain
// errors exactly once, at this boundary.

func (s *Service) handleEnrolError(ctx context.Context, err error, user string, challenges int) error {
	if errors.Is(err, sentinel.ErrConflict) {
		s.logAudit(ctx, audit.EventCRPEnrolRejected, user, models.OutcomeAlreadyEnrolled, "already_enrolled", challenges)
		return dErrors.Wrap(err, dErrors.CodeAlreadyEnrolled, fmt.Sprintf("user `%s` already enrolled", user))
	}
	s.logFailure(ctx, "enrol", user, err)
	return translateDependencyError(err, "failed to enrol")
}

func (s *Service) handleAuthError(ctx context.Context, err error, user string, challenges int) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		s.logAudit(ctx, audit.EventCRPAuthFailed, user, outcomeOf(err), string(de.Code), challenges)
		return err
	}
	s.logFailure(ctx, "authenticate", user, err)
	return translateDependencyError(err, "failed to authenticate")
}

// translateDependencyError maps anything the store did not classify into an
// opaque internal or timeout error.
func translateDependencyError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// outcomeOf labels err for metrics, spans and audit.
func outcomeOf(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeSuccess
	case errors.Is(err, sentinel.ErrConflict):
		return models.OutcomeAlreadyEnrolled
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUserNotFound:
		return models.OutcomeUserNotFound
	case dErrors.CodeChallengeNotFound:
		return models.OutcomeChallengeNotFound
	case dErrors.CodeAuthenticationFailed:
		return models.OutcomeMismatch
	default:
		return models.OutcomeError
	}
}
