// Package httpx holds the JSON plumbing shared by the HTTP handlers. Handlers
// translate domain errors to gRPC status errors; this package turns those into
// HTTP responses.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxBodyBytes = 1 << 20

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type reasonError struct {
	err    error
	reason string
}

func (e *reasonError) Error() string { return e.err.Error() }
func (e *reasonError) Unwrap() error { return e.err }

// WithReason replaces the code string derived from err's gRPC code.
func WithReason(err error, reason string) error {
	return &reasonError{err: err, reason: reason}
}

// StatusFromGRPC maps a gRPC status error to an HTTP status, a stable code
// string and a client-facing message. Errors without a status are INTERNAL.
func StatusFromGRPC(err error) (int, string, string) {
	var reason string
	var re *reasonError
	if errors.As(err, &re) {
		reason = re.reason
		err = re.err
	}

	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}

	httpStatus, code := http.StatusInternalServerError, "INTERNAL"
	msg := st.Message()
	switch st.Code() {
	case codes.InvalidArgument:
		httpStatus, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	case codes.NotFound:
		httpStatus, code = http.StatusNotFound, "NOT_FOUND"
	case codes.AlreadyExists:
		httpStatus, code = http.StatusConflict, "ALREADY_EXISTS"
	case codes.FailedPrecondition, codes.Aborted:
		httpStatus, code = http.StatusConflict, "FAILED_PRECONDITION"
	case codes.Unavailable, codes.DeadlineExceeded:
		httpStatus, code = http.StatusServiceUnavailable, "UNAVAILABLE"
	case codes.Canceled:
		httpStatus, code = 499, "CANCELED"
	default:
		msg = "internal error"
	}
	if reason != "" {
		code = reason
	}
	return httpStatus, code, msg
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, err error) {
	httpStatus, code, msg := StatusFromGRPC(err)
	WriteJSON(w, httpStatus, ErrorBody{Error: ErrorDetail{Code: code, Message: msg}})
}

// DecodeJSON reads a single JSON object from the request body. Failures are
// returned as InvalidArgument status errors.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per request.
func Logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
