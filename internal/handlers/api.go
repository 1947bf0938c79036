package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/errors"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
)

const maxBodyBytes = 4 << 10

var noStore = map[string]string{"Cache-Control": "no-store"}

type exploreRequest struct {
	Value string `json:"value" validate:"required,max=128"`
}

type APIHandlers struct {
	explorer *services.Explorer
	sessions *session.Manager
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPIHandlers(explorer *services.Explorer, sessions *session.Manager, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		explorer: explorer,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (h *APIHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	view := h.explorer.View(r.Context(), session.FromContext(r.Context()))
	errors.WriteSuccessWithHeaders(w, view, noStore)
}

func (h *APIHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	data := h.explorer.Regions(r.Context())

	headers := map[string]string{
		"Cache-Control": "public, max-age=300",
	}

	errors.WriteSuccessWithHeaders(w, data, headers)
}

func (h *APIHandlers) HandleExplore(w http.ResponseWriter, r *http.Request) {
	var req exploreRequest
	if err := h.decode(r, &req); err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}
	h.apply(w, r, drilldown.Explore(req.Value))
}

func (h *APIHandlers) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, drilldown.Back())
}

func (h *APIHandlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, drilldown.GoHome())
}

// HandleEndSession drops the session state and its cookie. Browsers posting
// the form are sent back to a fresh dashboard.
func (h *APIHandlers) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	h.explorer.End(r.Context(), session.FromContext(r.Context()))
	h.sessions.Clear(w)

	if wantsJSON(r) {
		errors.WriteSuccessWithHeaders(w, map[string]bool{"ended": true}, noStore)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.explorer.Stats()

	errors.WriteSuccessWithHeaders(w, stats, noStore)
}

func (h *APIHandlers) apply(w http.ResponseWriter, r *http.Request, action drilldown.Action) {
	view, err := h.explorer.Apply(r.Context(), session.FromContext(r.Context()), action)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, view, noStore)
}

func (h *APIHandlers) decode(r *http.Request, dst *exploreRequest) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.BadRequestWrap(err, "Request body must be a JSON object with a \"value\" field")
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.ValidationWrap(err, "value is required and must be at most 128 characters")
	}
	return nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
