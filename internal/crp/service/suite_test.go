package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"crpstore/internal/crp/metrics"
	"crpstore/internal/crp/service/mocks"
	"crpstore/internal/platform/tracer"
)

type ServiceSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	mockStore          *mocks.MockStore
	mockAuditPublisher *mocks.MockAuditPublisher
	metrics            *metrics.Metrics
	spans              *tracetest.SpanRecorder
	service            *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockAuditPublisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.spans = tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(s.spans))

	s.service = New(s.mockStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithTracer(tracer.NewOTel(tracer.WithOTelTracer(provider.Tracer("test")))),
		WithAuditPublisher(s.mockAuditPublisher),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
