package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crpstore/internal/platform/metrics"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		keepsOwn bool
	}{
		{name: "generates UUID when no header provided", header: "", keepsOwn: false},
		{name: "accepts valid client-provided ID", header: "my-request-123", keepsOwn: true},
		{name: "accepts periods and underscores", header: "trace.span_1234", keepsOwn: true},
		{name: "rejects oversized ID", header: strings.Repeat("a", MaxRequestIDLength+1), keepsOwn: false},
		{name: "rejects injection characters", header: "abc\ninjected", keepsOwn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header[http.CanonicalHeaderKey("X-Request-ID")] = []string{tt.header}
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, captured, w.Header().Get("X-Request-ID"))
			if tt.keepsOwn {
				assert.Equal(t, tt.header, captured)
			} else {
				assert.Len(t, captured, 36)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	handler := RequestID(Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/enrol", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), w.Header().Get("X-Request-ID"))
}

func TestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	req := httptest.NewRequest(http.MethodPost, "/enrol", nil)
	req.RemoteAddr = "192.168.1.47:5555"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "/enrol", line["path"])
	assert.Equal(t, float64(http.StatusForbidden), line["status"])
	assert.Equal(t, "192.168.1.0", line["remote_addr_prefix"])

	t.Run("skips healthy health checks", func(t *testing.T) {
		logs.Reset()
		Logger(logger)(http.HandlerFunc(okHandler)).
			ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Empty(t, logs.String())
	})
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := Timeout(time.Second)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	t.Run("zero disables the deadline", func(t *testing.T) {
		Timeout(0)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			_, ok = r.Context().Deadline()
		})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, ok)
	})
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "json accepted", method: http.MethodPost, contentType: "application/json", want: http.StatusOK},
		{name: "json with charset accepted", method: http.MethodPost, contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "missing accepted", method: http.MethodPost, contentType: "", want: http.StatusOK},
		{name: "form rejected", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "GET ignored", method: http.MethodGet, contentType: "text/plain", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/enrol", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentTypeJSON(http.HandlerFunc(okHandler)).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	handler := BodyLimit(8)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}

func TestLatency(t *testing.T) {
	m := metrics.NewHTTP(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Latency(m))
	r.Post("/enrol", okHandler)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/enrol", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("POST", "/enrol", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "unmatched", "404")))
}
