// Package service implements enrolment and authentication of challenge-response
// credentials on top of a Store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crpstore/internal/crp/metrics"
	"crpstore/internal/crp/models"
	"crpstore/internal/platform/tracer"
	dErrors "crpstore/pkg/domain-errors"
	audit "crpstore/pkg/platform/audit"
)

// Store defines the persistence interface for CRP records.
// Error Contract: InsertAll returns an error wrapping store.ErrUniquenessViolation
// (and so sentinel.ErrConflict) when any key collides; QueryByUser returns an
// empty slice for an unknown user.
type Store interface {
	InsertAll(ctx context.Context, records []models.CRP) error
	QueryByUser(ctx context.Context, user string) ([]models.CRP, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuthSuccessMessage is returned when every submitted pair matches.
const AuthSuccessMessage = "Auth Success"

type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
	auditPublisher AuditPublisher
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(store Store, opts ...Option) *Service {
	svc := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc
}

// Enrol stores every pair for user as one atomic batch. Any collision with an
// existing (user, challenge) key rejects the whole set as already enrolled.
// An empty set succeeds and stores nothing.
func (s *Service) Enrol(ctx context.Context, user string, pairs models.Pairs) (result *models.EnrolResult, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanEnrol,
		tracer.String(tracer.AttrUser, user),
		tracer.Int(tracer.AttrChallenges, len(pairs)),
	)
	outcome := models.OutcomeError
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, string(outcome)))
		span.End(err)
		s.observeEnrol(outcome, len(pairs), s.now().Sub(start))
	}()

	if err := s.store.InsertAll(ctx, pairs.Records(user)); err != nil {
		outcome = outcomeOf(err)
		return nil, s.handleEnrolError(ctx, err, user, len(pairs))
	}

	outcome = models.OutcomeSuccess
	s.logAudit(ctx, audit.EventCRPEnrolled, user, outcome, "", len(pairs))
	return &models.EnrolResult{
		User:       user,
		Challenges: len(pairs),
		Message:    fmt.Sprintf("`%s` enroled successfully", user),
	}, nil
}

// Authenticate checks pairs against the stored records for user in the order
// given and stops at the first unknown challenge or mismatched response.
func (s *Service) Authenticate(ctx context.Context, user string, pairs models.Pairs) (result *models.AuthenticateResult, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanAuthenticate,
		tracer.String(tracer.AttrUser, user),
		tracer.Int(tracer.AttrChallenges, len(pairs)),
	)
	outcome := models.OutcomeError
	defer func() {
		span.SetAttributes(tracer.String(tracer.AttrOutcome, string(outcome)))
		span.End(err)
		s.observeAuthenticate(outcome, s.now().Sub(start))
	}()

	records, err := s.store.QueryByUser(ctx, user)
	if err != nil {
		return nil, s.handleAuthError(ctx, err, user, len(pairs))
	}
	span.AddEvent(tracer.EventRecordsLoaded, tracer.Int(tracer.AttrChallenges, len(records)))

	if err := verify(user, records, pairs); err != nil {
		outcome = outcomeOf(err)
		return nil, s.handleAuthError(ctx, err, user, len(pairs))
	}

	outcome = models.OutcomeSuccess
	s.logAudit(ctx, audit.EventCRPAuthenticated, user, outcome, "", len(pairs))
	return &models.AuthenticateResult{
		User:    user,
		Checked: len(pairs),
		Message: AuthSuccessMessage,
	}, nil
}

// verify is the pure fail-fast comparison. Responses match by exact,
// case-sensitive equality.
func verify(user string, records []models.CRP, pairs models.Pairs) error {
	if len(records) == 0 {
		return dErrors.New(dErrors.CodeUserNotFound, fmt.Sprintf("user `%s` not found", user))
	}

	stored := make(map[string]string, len(records))
	for _, r := range records {
		stored[r.Challenge] = r.Response
	}

	for _, pair := range pairs {
		expected, ok := stored[pair.Challenge]
		if !ok {
			return dErrors.New(dErrors.CodeChallengeNotFound, fmt.Sprintf("challenge `%s` not found", pair.Challenge))
		}
		if expected != pair.Response {
			return dErrors.New(dErrors.CodeAuthenticationFailed, "authentication failed")
		}
	}
	return nil
}
