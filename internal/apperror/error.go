package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// genericInternalMessage is the only detail an internal failure exposes to callers.
const genericInternalMessage = "An unexpected error occurred"

// AppError carries a stable code, the HTTP status it maps to, an optional
// context string and the wrapped cause.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Context    string
	Timestamp  time.Time
	cause      error
	stack      []uintptr
}

func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (context: %s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// Response is the uniform error body returned to API callers.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ToResponse serializes the error for an HTTP response. Internal failures
// never expose their message, context or cause.
func (e *AppError) ToResponse() Response {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return Response{Error: "Validation failed", Message: e.Message}
	case http.StatusNotFound:
		return Response{Error: "Not found", Message: e.Message}
	case http.StatusTooManyRequests:
		return Response{Error: "Rate limit exceeded", Message: e.Message}
	case http.StatusServiceUnavailable:
		return Response{Error: "Service unavailable", Message: e.Message}
	default:
		return Response{Error: lookup(CodeInternalError).message, Message: genericInternalMessage}
	}
}

// LogValue renders the full error, cause and stack included, for slog.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
		slog.Int("status", e.StatusCode),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	if len(e.stack) > 0 {
		attrs = append(attrs, slog.String("stack", e.formatStack()))
	}
	return slog.GroupValue(attrs...)
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates an AppError with the code's catalog status and message.
func New(code Code, opts ...Option) *AppError {
	def := lookup(code)
	err := &AppError{
		Code:       code,
		Message:    def.message,
		StatusCode: def.status,
		Timestamp:  time.Now(),
		stack:      captureStack(),
	}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

// Option customizes an AppError.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// NotFound creates a 404 for the missing resource named by context.
func NotFound(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusNotFound))
}

// Validation creates a caller-correctable error whose message is shown to the caller.
func Validation(code Code, message string) *AppError {
	return New(code, WithMessage(message), WithStatusCode(http.StatusBadRequest))
}

// Internal creates a 500. Only the generic message reaches callers.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

// External creates a 503 for a failing dependency.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusServiceUnavailable))
}

// Wrap returns the AppError inside err, filling in context when it has
// none, or wraps a plain error as internal.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}
	return Internal(code, context, err)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsValidation reports whether err is a caller-correctable validation failure.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.StatusCode == http.StatusBadRequest
}

// IsInternal reports whether err is, or would be reported as, an internal failure.
func IsInternal(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err != nil
	}
	return appErr.StatusCode >= http.StatusInternalServerError && appErr.StatusCode != http.StatusServiceUnavailable
}

// GetCode extracts the error code, CodeUnknownError for plain errors.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}
