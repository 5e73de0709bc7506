package httppresentation

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/zapshift/zapshift-backend/internal/observability"
	"github.com/zapshift/zapshift-backend/internal/observability/logctx"
	"github.com/zapshift/zapshift-backend/internal/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

var errMissingCredential = errors.New("missing or invalid bearer credential")

type subjectKey struct{}

// SubjectFromContext returns the verified subject email set by requireAuth.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	email, _ := ctx.Value(subjectKey{}).(string)
	return email
}

// requireAuth verifies the bearer token and stores the subject email on the
// context. Requests without a valid credential never reach the operation.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, errMissingCredential)
			return
		}

		email, err := h.verifier.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, errMissingCredential)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withObservability combines W3C trace extraction, a server span, a
// request-scoped logger (dynamic fields only), X-Request-ID echo, RED metrics
// and a single access log line per request.
func (h *Handler) withObservability(next http.Handler) http.Handler {
	tracer := otel.Tracer("zapshift.http")
	prop := otel.GetTextMapPropagator()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		rid := r.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(headerRequestID, rid)

		ctx, span := tracer.Start(ctx,
			r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		traceID, spanID := logging.SystemTraceID, logging.SystemSpanID
		fields := []observability.Field{observability.F("request_id", rid)}
		if sc := span.SpanContext(); sc.IsValid() {
			traceID, spanID = sc.TraceID().String(), sc.SpanID().String()
			fields = append(fields,
				observability.F("trace_id", traceID),
				observability.F("span_id", spanID),
			)
		}
		reqLogger := h.log.With(fields...)
		ctx = logctx.With(ctx, reqLogger)
		ctx = logging.ContextWithLogger(ctx,
			logging.WithTrace(zap.L(), traceID, spanID).With(zap.String("request_id", rid)))

		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctx))

		// Route pattern is only resolved after routing; low-cardinality label.
		route := chi.RouteContext(ctx).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		statusLabel := strconv.Itoa(lrw.status)
		span.SetAttributes(attribute.String("http.route", route))

		metrics := h.tel.Metrics()
		metrics.Counter(observability.MHTTPRequests).Add(1,
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", statusLabel),
		)
		metrics.Histogram(observability.MHTTPRequestDuration).Observe(time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", statusLabel),
		)

		reqLogger.Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", route),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
