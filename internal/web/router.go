package web

import (
	"fmt"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/fd1az/allocation-ledger/internal/apperror"
	"github.com/fd1az/allocation-ledger/internal/logger"
	"github.com/fd1az/allocation-ledger/internal/ratelimit"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// NewRouter returns a chi router with the standard middleware stack.
// A nil limiter disables rate limiting.
func NewRouter(log logger.LoggerInterface, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Logging(log))
	r.Use(Recover(log))
	if limiter != nil {
		r.Use(RateLimit(log, limiter))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(req.Context(), w, log, apperror.NotFound(apperror.CodeNotFound, req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, apperror.Response{
			Error:   "Method not allowed",
			Message: fmt.Sprintf("%s is not supported on %s", req.Method, req.URL.Path),
		})
	})
	return r
}

// RequestID propagates the inbound X-Request-ID or assigns a new uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := r.Context()
		ctx = contextWithRequestID(ctx, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging writes one record per request.
func Logging(log logger.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFrom(r.Context()),
			)
		})
	}
}

// Recover turns handler panics into generic 500 responses.
func Recover(log logger.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error(r.Context(), "handler panic", "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
					WriteJSON(w, http.StatusInternalServerError,
						apperror.New(apperror.CodeInternalError).ToResponse())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects requests over the configured rate with 429.
func RateLimit(log logger.LoggerInterface, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, wait := limiter.Take(); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				WriteError(r.Context(), w, log, apperror.New(apperror.CodeRateLimitExceeded))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
