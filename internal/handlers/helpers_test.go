package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-drilldown/internal/dataset"
	"sales-drilldown/internal/models"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
)

const testSession = "2f1d7c3e-5b7a-4f57-9a0e-8a3c2a7c1d11"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTestExplorer() *services.Explorer {
	ds := dataset.New([]models.Record{
		{Region: "North", Category: "Electronics", Product: "Laptop", Sales: 3000, Quantity: 3, Profit: 600},
		{Region: "North", Category: "Electronics", Product: "Phone", Sales: 1000, Quantity: 5, Profit: 100},
		{Region: "North", Category: "Books", Product: "Novel", Sales: 500, Quantity: 50, Profit: 50},
		{Region: "South", Category: "Food", Product: "Pizza", Sales: 800, Quantity: 80, Profit: 160},
	}, "test")
	return services.NewExplorer(ds, session.NewStore(time.Minute, time.Minute), testLogger())
}

func createTestManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Config{HashKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	return m
}

// newRequest builds a request that already carries the test session id, as
// if it had passed through session.Manager.Middleware.
func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(session.WithID(req.Context(), testSession))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return env
}
