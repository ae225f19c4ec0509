package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"crpstore/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanEnrol, tracer.String(tracer.AttrUser, "alice"))
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Int(tracer.AttrChallenges, 2))
	span.AddEvent(tracer.EventRecordsLoaded)
	span.End(errors.New("ignored"))
}

func TestOTelTracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := tracer.NewOTel(tracer.WithOTelTracer(provider.Tracer("test")))

	t.Run("records attributes and events", func(t *testing.T) {
		_, span := tr.Start(context.Background(), tracer.SpanAuthenticate,
			tracer.String(tracer.AttrUser, "alice"),
			tracer.Int(tracer.AttrChallenges, 3),
		)
		span.AddEvent(tracer.EventRecordsLoaded, tracer.Int("records", 2))
		span.SetAttributes(tracer.String(tracer.AttrOutcome, "success"), tracer.Bool("cached", false))
		span.End(nil)

		ended := recorder.Ended()
		require.Len(t, ended, 1)
		got := ended[0]
		assert.Equal(t, tracer.SpanAuthenticate, got.Name())
		assert.Contains(t, got.Attributes(), attribute.String(tracer.AttrUser, "alice"))
		assert.Contains(t, got.Attributes(), attribute.Int(tracer.AttrChallenges, 3))
		assert.Contains(t, got.Attributes(), attribute.String(tracer.AttrOutcome, "success"))
		require.Len(t, got.Events(), 1)
		assert.Equal(t, tracer.EventRecordsLoaded, got.Events()[0].Name)
		assert.Equal(t, codes.Unset, got.Status().Code)
	})

	t.Run("marks failed spans", func(t *testing.T) {
		_, span := tr.Start(context.Background(), tracer.SpanEnrol)
		span.End(errors.New("already enrolled"))

		ended := recorder.Ended()
		got := ended[len(ended)-1]
		assert.Equal(t, codes.Error, got.Status().Code)
		assert.Equal(t, "already enrolled", got.Status().Description)
	})
}
