package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
	"sales-drilldown/internal/ui/templates"
)

// actionSignals is what the page posts with every Datastar action.
type actionSignals struct {
	Selection string `json:"selection"`
}

type SSEHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewSSEHandlers(explorer *services.Explorer, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

func (h *SSEHandlers) HandleView(w http.ResponseWriter, r *http.Request) {
	view := h.explorer.View(r.Context(), session.FromContext(r.Context()))
	h.patch(w, r, view, "")
}

func (h *SSEHandlers) HandleExplore(w http.ResponseWriter, r *http.Request) {
	var signals actionSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.WarnContext(r.Context(), "read signals", "error", err)
		view := h.explorer.View(r.Context(), session.FromContext(r.Context()))
		h.patch(w, r, view, "Could not read the selection, please try again.")
		return
	}
	h.apply(w, r, drilldown.Explore(signals.Selection))
}

func (h *SSEHandlers) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, drilldown.Back())
}

func (h *SSEHandlers) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, drilldown.GoHome())
}

// apply re-renders the fragment either way. A rejected action shows the
// error in #flash next to the unchanged view.
func (h *SSEHandlers) apply(w http.ResponseWriter, r *http.Request, action drilldown.Action) {
	view, err := h.explorer.Apply(r.Context(), session.FromContext(r.Context()), action)
	flash := ""
	if err != nil {
		flash = err.Error()
	}
	h.patch(w, r, view, flash)
}

func (h *SSEHandlers) patch(w http.ResponseWriter, r *http.Request, view drilldown.View, flash string) {
	sse := datastar.NewSSE(w, r)

	flashHTML, err := templates.Render(r.Context(), templates.Flash(flash))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render flash", "error", err)
		return
	}
	sse.PatchElements(flashHTML)

	html, err := templates.Render(r.Context(), templates.Drilldown(view))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render drilldown", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"level":     view.State.Level,
		"region":    view.State.Region,
		"category":  view.State.Category,
		"selection": "",
		"totals":    view.Totals,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "marshal view signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
