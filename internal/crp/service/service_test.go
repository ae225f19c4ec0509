package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/mock/gomock"

	"crpstore/internal/crp/models"
	"crpstore/internal/crp/store"
	"crpstore/internal/platform/middleware"
	"crpstore/internal/platform/tracer"
	dErrors "crpstore/pkg/domain-errors"
	audit "crpstore/pkg/platform/audit"
	testfx "crpstore/pkg/testutil"
)

func (s *ServiceSuite) expectAudit(action audit.AuditEvent, captured *audit.Event) {
	s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev audit.Event) error {
			s.Equal(string(action), ev.Action)
			if captured != nil {
				*captured = ev
			}
			return nil
		})
}

func (s *ServiceSuite) lastSpan() (string, []attribute.KeyValue, codes.Code) {
	ended := s.spans.Ended()
	s.Require().NotEmpty(ended)
	span := ended[len(ended)-1]
	return span.Name(), span.Attributes(), span.Status().Code
}

func (s *ServiceSuite) TestEnrol() {
	ctx := middleware.WithRequestID(context.Background(), "req-1")

	s.Run("stores every pair in caller order", func() {
		pairs := testfx.Pairs("c2", "r2", "c1", "r1")
		s.mockStore.EXPECT().InsertAll(gomock.Any(), testfx.Records("alice", "c2", "r2", "c1", "r1")).Return(nil)
		var ev audit.Event
		s.expectAudit(audit.EventCRPEnrolled, &ev)

		res, err := s.service.Enrol(ctx, "alice", pairs)
		s.Require().NoError(err)
		s.Equal("`alice` enroled successfully", res.Message)
		s.Equal(2, res.Challenges)
		s.Equal("alice", ev.Subject)
		s.Equal("req-1", ev.RequestID)
		s.Equal(2, ev.Challenges)
	})

	s.Run("empty set is a degenerate success", func() {
		s.mockStore.EXPECT().InsertAll(gomock.Any(), []models.CRP{}).Return(nil)
		s.expectAudit(audit.EventCRPEnrolled, nil)

		res, err := s.service.Enrol(ctx, "bob", models.Pairs{})
		s.Require().NoError(err)
		s.Equal("`bob` enroled successfully", res.Message)
		s.Zero(res.Challenges)
	})

	s.Run("uniqueness violation becomes already enrolled", func() {
		storeErr := fmt.Errorf("insert crp alice/c1: %w", store.ErrUniquenessViolation)
		s.mockStore.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(storeErr)
		var ev audit.Event
		s.expectAudit(audit.EventCRPEnrolRejected, &ev)

		res, err := s.service.Enrol(ctx, "alice", testfx.Pairs("c1", "r1"))
		s.Nil(res)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyEnrolled))
		s.Equal("user `alice` already enrolled", err.Error())
		s.ErrorIs(err, store.ErrUniquenessViolation)
		s.Equal(string(models.OutcomeAlreadyEnrolled), ev.Outcome)
	})

	s.Run("other store failures are internal and not audited", func() {
		s.mockStore.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(errors.New("disk I/O error"))

		_, err := s.service.Enrol(ctx, "carol", testfx.Pairs("c1", "r1"))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.NotContains(err.Error(), "disk")
	})

	s.Run("deadline becomes timeout", func() {
		s.mockStore.EXPECT().InsertAll(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("begin scope: %w", context.DeadlineExceeded))

		_, err := s.service.Enrol(ctx, "dave", testfx.Pairs("c1", "r1"))
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func (s *ServiceSuite) TestEnrolAuditFailureDoesNotChangeOutcome() {
	s.mockStore.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(nil)
	s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	res, err := s.service.Enrol(context.Background(), "alice", testfx.Pairs("c1", "r1"))
	s.Require().NoError(err)
	s.Equal("`alice` enroled successfully", res.Message)
}

func (s *ServiceSuite) TestAuthenticate() {
	ctx := context.Background()
	stored := testfx.Records("alice", "c1", "r1", "c2", "r2", "c3", "r3")

	s.Run("all pairs match", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(stored, nil)
		s.expectAudit(audit.EventCRPAuthenticated, nil)

		res, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("c3", "r3", "c1", "r1"))
		s.Require().NoError(err)
		s.Equal(AuthSuccessMessage, res.Message)
		s.Equal(2, res.Checked)
	})

	s.Run("subset is enough", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(stored, nil)
		s.expectAudit(audit.EventCRPAuthenticated, nil)

		_, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("c2", "r2"))
		s.NoError(err)
	})

	s.Run("unknown user", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "nobody").Return([]models.CRP{}, nil)
		var ev audit.Event
		s.expectAudit(audit.EventCRPAuthFailed, &ev)

		_, err := s.service.Authenticate(ctx, "nobody", testfx.Pairs("c1", "r1"))
		s.True(dErrors.HasCode(err, dErrors.CodeUserNotFound))
		s.Equal("user `nobody` not found", err.Error())
		s.Equal(string(models.OutcomeUserNotFound), ev.Outcome)
	})

	s.Run("unknown challenge", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(stored, nil)
		s.expectAudit(audit.EventCRPAuthFailed, nil)

		_, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("c1", "r1", "c9", "r9"))
		s.True(dErrors.HasCode(err, dErrors.CodeChallengeNotFound))
		s.Equal("challenge `c9` not found", err.Error())
	})

	s.Run("mismatch", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(stored, nil)
		var ev audit.Event
		s.expectAudit(audit.EventCRPAuthFailed, &ev)

		_, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("c1", "R1"))
		s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
		s.Equal(string(models.OutcomeMismatch), ev.Outcome)
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(nil, errors.New("connection reset"))

		_, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("c1", "r1"))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestAuthenticateFailFastOrder() {
	stored := testfx.Records("alice", "c1", "r1", "c2", "r2")
	ctx := context.Background()

	s.Run("mismatch first wins over later unknown challenge", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(stored, nil)
		s.expectAudit(audit.EventCRPAuthFailed, nil)

		_, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("c1", "bad", "zz", "r"))
		s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailed))
	})

	s.Run("unknown challenge first wins over later mismatch", func() {
		s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(stored, nil)
		s.expectAudit(audit.EventCRPAuthFailed, nil)

		_, err := s.service.Authenticate(ctx, "alice", testfx.Pairs("zz", "r", "c1", "bad"))
		s.True(dErrors.HasCode(err, dErrors.CodeChallengeNotFound))
	})
}

func (s *ServiceSuite) TestObservability() {
	s.mockStore.EXPECT().QueryByUser(gomock.Any(), "alice").Return(testfx.Records("alice", "c1", "r1"), nil).Times(2)
	s.expectAudit(audit.EventCRPAuthenticated, nil)
	s.expectAudit(audit.EventCRPAuthFailed, nil)

	_, err := s.service.Authenticate(context.Background(), "alice", testfx.Pairs("c1", "r1"))
	s.Require().NoError(err)

	name, attrs, code := s.lastSpan()
	s.Equal(tracer.SpanAuthenticate, name)
	s.Contains(attrs, attribute.String(tracer.AttrOutcome, "success"))
	s.Contains(attrs, attribute.String(tracer.AttrUser, "alice"))
	s.NotEqual(codes.Error, code)

	_, err = s.service.Authenticate(context.Background(), "alice", testfx.Pairs("c1", "nope"))
	s.Require().Error(err)

	_, attrs, code = s.lastSpan()
	s.Contains(attrs, attribute.String(tracer.AttrOutcome, "mismatch"))
	s.Equal(codes.Error, code)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Authentications.WithLabelValues("success")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Authentications.WithLabelValues("mismatch")))
}

func (s *ServiceSuite) TestEnrolMetrics() {
	s.mockStore.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(nil)
	s.expectAudit(audit.EventCRPEnrolled, nil)

	_, err := s.service.Enrol(context.Background(), "alice", testfx.Pairs("c1", "r1", "c2", "r2"))
	s.Require().NoError(err)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Enrolments.WithLabelValues("success")))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.ChallengesEnrolled))

	name, _, _ := s.lastSpan()
	s.Equal(tracer.SpanEnrol, name)
}
