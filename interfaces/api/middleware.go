package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/textlift/textlift/domain/admission"
	"github.com/textlift/textlift/infrastructure/logging"
	"github.com/textlift/textlift/infrastructure/telemetry"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID assigned by the middleware
// chain, or the empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID assigns each request a UUID, exposed both on the context and
// as the X-Request-ID response header. An inbound X-Request-ID is honored.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// withCORS allows cross-origin access from any origin and short-circuits
// preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAccessLog logs one line per completed request.
func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.Info().
			Add(logging.Component("http")).
			Add(logging.RequestID(RequestIDFromContext(r.Context()))).
			Add(logging.Str("method", r.Method)).
			Add(logging.Path(r.URL.Path)).
			Add(logging.Status(rec.status)).
			Add(logging.ClientIP(clientIP(r))).
			Add(logging.Duration(time.Since(start))).
			Msg("request handled")
	})
}

// withRateLimit runs each request through the sliding-window limiter keyed
// by client IP. Health checks bypass admission so probes are never starved
// by traffic. Rejected requests receive 429 with a Retry-After hint; the
// rejection does not consume quota, so the client's standing quota is
// reported unchanged.
func withRateLimit(limiter *admission.Limiter, metrics *telemetry.MetricsProvider, next http.Handler) http.Handler {
	windowSeconds := int(limiter.Window() / time.Second)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		ok, remaining := limiter.Admit(ip)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.MaxRequests()))
		if !ok {
			if metrics != nil {
				metrics.RecordRateLimited(r.Context(), ip)
			}
			logging.Warn().
				Add(logging.Component("http")).
				Add(logging.RequestID(RequestIDFromContext(r.Context()))).
				Add(logging.ClientIP(ip)).
				Add(logging.Path(r.URL.Path)).
				Msg("rate limit exceeded")

			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(windowSeconds))
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:      fmt.Sprintf("rate limit exceeded: %d requests per %d seconds", limiter.MaxRequests(), windowSeconds),
				Code:       CodeRateLimitExceeded,
				RetryAfter: windowSeconds,
			})
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		next.ServeHTTP(w, r)
	})
}

// withMetrics records request counts, latency and the in-flight gauge.
// It is a no-op when metrics is nil.
func withMetrics(metrics *telemetry.MetricsProvider, next http.Handler) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.AddInFlight(r.Context(), 1)
		defer metrics.AddInFlight(r.Context(), -1)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordRequest(r.Context(), r.URL.Path, rec.status, time.Since(start))
	})
}
