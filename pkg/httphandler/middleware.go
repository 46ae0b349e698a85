package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	// Packages
	metrics "github.com/debtstack-ai/debtstack/pkg/metrics"
	uuid "github.com/google/uuid"
	rate "golang.org/x/time/rate"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Limiter is a token bucket per credential
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type requestIDKey struct{}

// statusWriter captures the status code and passes flushes through, which
// the event stream depends on
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	HeaderRequestID = "X-Request-ID"

	// Entries idle for longer are dropped once the table is full
	limiterIdle    = 10 * time.Minute
	limiterMaxSize = 10000
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewLimiter allows rps requests per second per credential, with bursts
// up to burst
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		limit:    rate.Limit(rps),
		burst:    max(burst, 1),
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Allow reports whether a request with the credential may proceed now
func (l *Limiter) Allow(credential string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.limiters[credential]
	if !ok {
		if len(l.limiters) >= limiterMaxSize {
			l.cleanup(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[credential] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// LoggingMiddleware assigns each request an id, logs it when it completes
// and records it in the metrics, which may be nil
func LoggingMiddleware(logger *slog.Logger, m *metrics.Metrics) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(HeaderRequestID, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next(sw, r)
			duration := time.Since(start)

			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", duration,
				"request_id", id,
			)
			if m != nil {
				m.ObserveRequest(r.Method, route(r), sw.status, duration)
			}
		}
	}
}

// RequestID returns the request id from the context
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// cleanup removes idle entries. Must be called with l.mu held.
func (l *Limiter) cleanup(now time.Time) {
	cutoff := now.Add(-limiterIdle)
	for key, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

// route returns the matched pattern, so metric labels stay bounded
func route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
