package httppresentation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zapshift/zapshift-backend/internal/pkg/logging"
)

func TestWithObservability_AttachesRequestLogger(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, nil, nil, nil)

	var got *zap.Logger
	r := chi.NewRouter()
	r.Use(h.withObservability)
	r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
		got = logging.FromContext(req.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	// The handler sees a request-scoped logger, not the bare process global.
	assert.NotSame(t, zap.L(), got)
}

func TestWithObservability_EchoesRequestID(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, nil, nil, nil)

	r := chi.NewRouter()
	r.Use(h.withObservability)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
