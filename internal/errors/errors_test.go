package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Internal("x"), http.StatusInternalServerError},
		{ValidationWrap(io.EOF, "x"), http.StatusBadRequest},
		{BadRequestWrap(io.EOF, "x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{RateLimit("x"), http.StatusTooManyRequests},
		{InvalidSelection(drilldown.ErrInvalidSelection), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		if tt.err.StatusCode != tt.want {
			t.Errorf("%s: expected status %d, got %d", tt.err.Code, tt.want, tt.err.StatusCode)
		}
	}
}

func TestInvalidSelection_KeepsCause(t *testing.T) {
	cause := &drilldown.SelectionError{Level: drilldown.LevelRegions, Value: "Mars", Reason: "unknown region"}
	appErr := InvalidSelection(cause)

	if appErr.Code != CodeInvalidSelection {
		t.Errorf("expected code %s, got %s", CodeInvalidSelection, appErr.Code)
	}
	if appErr.Message != cause.Error() {
		t.Errorf("expected message %q, got %q", cause.Error(), appErr.Message)
	}
	if !Is(appErr, drilldown.ErrInvalidSelection) {
		t.Error("wrapped error should match ErrInvalidSelection")
	}
	if appErr.Selection == nil || appErr.Selection.Level != "regions" || appErr.Selection.Value != "Mars" {
		t.Errorf("expected selection details, got %+v", appErr.Selection)
	}
}

func TestFromError(t *testing.T) {
	selErr := &drilldown.SelectionError{Level: drilldown.LevelProducts, Value: "x", Reason: "nothing below products"}

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"app error", Forbidden("no"), CodeForbidden},
		{"wrapped app error", fmt.Errorf("handler: %w", RateLimit("slow down")), CodeRateLimit},
		{"selection error", fmt.Errorf("apply: %w", selErr), CodeInvalidSelection},
		{"plain error", io.ErrUnexpectedEOF, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err).Code; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/explore", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-1"))

	cause := &drilldown.SelectionError{Level: drilldown.LevelCategories, Value: "Toys", Reason: "no such category"}
	WriteError(rec, req, discardLogger(), cause)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
			Selection struct {
				Level string `json:"level"`
				Value string `json:"value"`
			} `json:"selection"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	if body.Error.Code != string(CodeInvalidSelection) {
		t.Errorf("expected code INVALID_SELECTION, got %q", body.Error.Code)
	}
	if body.Error.RequestID != "req-1" {
		t.Errorf("expected request id req-1, got %q", body.Error.RequestID)
	}
	if body.Error.Selection.Level != "categories" || body.Error.Selection.Value != "Toys" {
		t.Errorf("unexpected selection details: %+v", body.Error.Selection)
	}
}

func TestWriteError_PlainErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), discardLogger(), fmt.Errorf("db password is hunter2"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "hunter2") {
		t.Errorf("internal cause leaked to the client: %s", body)
	}
}

func TestWriteError_DoesNotMutateSharedError(t *testing.T) {
	shared := Forbidden("no")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-2"))

	WriteError(httptest.NewRecorder(), req, discardLogger(), shared)

	if shared.RequestID != "" {
		t.Errorf("request id should be set on a copy, got %q", shared.RequestID)
	}
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccessWithHeaders(rec, map[string]int{"n": 1}, map[string]string{"Cache-Control": "no-store"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected custom header to be set")
	}

	var body SuccessResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Error("expected success=true")
	}
}
