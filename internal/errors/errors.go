package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/observability"
)

type ErrorCode string

const (
	CodeInternal   ErrorCode = "INTERNAL_ERROR"
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	CodeBadRequest ErrorCode = "BAD_REQUEST"
	CodeForbidden  ErrorCode = "FORBIDDEN"
	CodeRateLimit  ErrorCode = "RATE_LIMIT_EXCEEDED"
	// CodeInvalidSelection reports a drill-down action that does not apply
	// to the session's current level.
	CodeInvalidSelection ErrorCode = "INVALID_SELECTION"
)

// SelectionDetails names the rejected value and the level it was tried at.
type SelectionDetails struct {
	Level string `json:"level"`
	Value string `json:"value"`
}

type AppError struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Selection  *SelectionDetails `json:"selection,omitempty"`
	StatusCode int               `json:"-"`
	Cause      error             `json:"-"`
	Timestamp  time.Time         `json:"timestamp"`
	RequestID  string            `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func ValidationWrap(err error, message string) *AppError {
	return Wrap(err, CodeValidation, message)
}

func BadRequestWrap(err error, message string) *AppError {
	return Wrap(err, CodeBadRequest, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

// InvalidSelection turns a rejected drill-down action into a 422. When err
// carries a *drilldown.SelectionError its level and value are exposed.
func InvalidSelection(err error) *AppError {
	appErr := Wrap(err, CodeInvalidSelection, err.Error())
	var selErr *drilldown.SelectionError
	if stderrors.As(err, &selErr) {
		appErr.Selection = &SelectionDetails{Level: selErr.Level.String(), Value: selErr.Value}
	}
	return appErr
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// FromError maps any error returned by a handler to the AppError sent to
// the client. Unknown errors become a generic 500 so internals never leak.
func FromError(err error) *AppError {
	var appErr *AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, drilldown.ErrInvalidSelection):
		return InvalidSelection(err)
	default:
		return InternalWrap(err, "An unexpected error occurred")
	}
}

func statusCode(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeInvalidSelection:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// WriteError sends the error envelope for err and logs it at warn for
// client errors and error for server errors.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	appErr := *FromError(err)
	appErr.RequestID = observability.GetRequestID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	if encodeErr := json.NewEncoder(w).Encode(ErrorResponse{Error: &appErr}); encodeErr != nil {
		logger.ErrorContext(r.Context(), "failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
		)
		return
	}

	level := slog.LevelError
	if appErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"cause", appErr.Cause,
	)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessWithHeaders(w, data, nil)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(SuccessResponse{Data: data, Success: true})
}
