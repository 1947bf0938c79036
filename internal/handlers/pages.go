package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
	"sales-drilldown/internal/ui/templates"
)

type PageHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewPageHandlers(explorer *services.Explorer, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

// HandleDashboard renders the full page. A deep link such as
// /?level=products&region=North&category=Books moves the session there
// first; a link that does not fit the data leaves the session as it was and
// explains why in the flash box.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := session.FromContext(ctx)

	var (
		view  drilldown.View
		flash string
	)

	target, ok, err := parseDeepLink(r.URL.Query())
	switch {
	case err != nil:
		flash = err.Error()
		view = h.explorer.View(ctx, sid)
	case ok:
		view, err = h.explorer.Restore(ctx, sid, target)
		if err != nil {
			flash = err.Error()
		}
	default:
		view = h.explorer.View(ctx, sid)
	}

	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(templates.Dashboard(view, flash)).ServeHTTP(w, r)
}

// parseDeepLink reads level (or page), region and category. A missing level
// is inferred from which selections are present.
func parseDeepLink(q url.Values) (drilldown.State, bool, error) {
	level := q.Get("level")
	if level == "" {
		level = q.Get("page")
	}
	region, category := q.Get("region"), q.Get("category")
	if level == "" && region == "" && category == "" {
		return drilldown.State{}, false, nil
	}

	st := drilldown.State{Region: region, Category: category}
	if level == "" {
		switch {
		case category != "":
			st.Level = drilldown.LevelProducts
		case region != "":
			st.Level = drilldown.LevelCategories
		}
		return st, true, nil
	}

	lvl, err := drilldown.ParseLevel(level)
	if err != nil {
		return drilldown.State{}, false, err
	}
	st.Level = lvl
	return st, true, nil
}
