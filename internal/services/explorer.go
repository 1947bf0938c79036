package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sales-drilldown/internal/dataset"
	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/models"
	"sales-drilldown/internal/observability"
	"sales-drilldown/internal/session"
)

// Stats is a point-in-time snapshot for the admin endpoint.
type Stats struct {
	Source          string    `json:"source"`
	Records         int       `json:"records"`
	Regions         int       `json:"regions"`
	LiveSessions    int       `json:"live_sessions"`
	ActionsApplied  int64     `json:"actions_applied"`
	ActionsRejected int64     `json:"actions_rejected"`
	StartedAt       time.Time `json:"started_at"`
}

// Explorer is the per-action event handler. It loads the session's state,
// applies one transition and stores the result, returning the new view.
type Explorer struct {
	data   *dataset.Dataset
	nav    *drilldown.Navigator
	store  *session.Store
	logger *slog.Logger
	tracer trace.Tracer

	applied   atomic.Int64
	rejected  atomic.Int64
	startedAt time.Time
}

type Option func(*Explorer)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Explorer) {
		e.tracer = observability.Tracer(tp)
	}
}

func NewExplorer(ds *dataset.Dataset, store *session.Store, logger *slog.Logger, opts ...Option) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Explorer{
		data:      ds,
		nav:       drilldown.NewNavigator(ds),
		store:     store,
		logger:    logger,
		tracer:    observability.Tracer(nil),
		startedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View returns the current view of the session without changing it.
func (e *Explorer) View(ctx context.Context, sid string) drilldown.View {
	_, span := e.tracer.Start(ctx, "explorer.view")
	defer span.End()

	st := e.store.Load(sid)
	span.SetAttributes(attribute.String("drilldown.level", st.Level.String()))
	return e.nav.CurrentView(st)
}

// Apply runs action against the session's state. A rejected action returns
// the unchanged view together with the error.
func (e *Explorer) Apply(ctx context.Context, sid string, action drilldown.Action) (drilldown.View, error) {
	ctx, span := e.tracer.Start(ctx, "explorer.apply", trace.WithAttributes(
		attribute.String("drilldown.action", string(action.Kind)),
		attribute.String("drilldown.value", action.Value),
	))
	defer span.End()

	var view drilldown.View
	st, err := e.store.Update(sid, func(st *drilldown.State) error {
		next, v, err := e.nav.Dispatch(*st, action)
		if err != nil {
			return err
		}
		*st = next
		view = v
		return nil
	})
	if err != nil {
		e.reject(ctx, span, st, err)
		return e.nav.CurrentView(st), err
	}

	e.applied.Add(1)
	span.SetAttributes(attribute.String("drilldown.level", st.Level.String()))
	e.logger.DebugContext(ctx, "action applied",
		"action", action.Kind,
		"value", action.Value,
		"state", st.String(),
	)
	return view, nil
}

// Restore moves the session straight to target, as a deep link does. An
// inconsistent target leaves the session where it was.
func (e *Explorer) Restore(ctx context.Context, sid string, target drilldown.State) (drilldown.View, error) {
	ctx, span := e.tracer.Start(ctx, "explorer.restore", trace.WithAttributes(
		attribute.String("drilldown.target", target.String()),
	))
	defer span.End()

	st, err := e.store.Update(sid, func(st *drilldown.State) error {
		restored, err := e.nav.Restore(target)
		if err != nil {
			return err
		}
		*st = restored
		return nil
	})
	if err != nil {
		e.reject(ctx, span, st, err)
		return e.nav.CurrentView(st), err
	}

	e.applied.Add(1)
	return e.nav.CurrentView(st), nil
}

// End discards the session's state. The next request starts from home.
func (e *Explorer) End(ctx context.Context, sid string) {
	_, span := e.tracer.Start(ctx, "explorer.end")
	defer span.End()

	e.store.Delete(sid)
	e.logger.InfoContext(ctx, "session ended")
}

// Regions summarises the whole dataset by region, independent of any session.
func (e *Explorer) Regions(ctx context.Context) []models.GroupSummary {
	_, span := e.tracer.Start(ctx, "explorer.regions")
	defer span.End()

	return e.nav.CurrentView(drilldown.Home()).Groups
}

func (e *Explorer) Stats() Stats {
	return Stats{
		Source:          e.data.Source(),
		Records:         e.data.Len(),
		Regions:         len(e.data.Regions()),
		LiveSessions:    e.store.Count(),
		ActionsApplied:  e.applied.Load(),
		ActionsRejected: e.rejected.Load(),
		StartedAt:       e.startedAt,
	}
}

func (e *Explorer) reject(ctx context.Context, span trace.Span, st drilldown.State, err error) {
	e.rejected.Add(1)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attrs := []any{
		"error", err,
		"state", st.String(),
	}
	var selErr *drilldown.SelectionError
	if errors.As(err, &selErr) {
		attrs = append(attrs, "level", selErr.Level.String(), "value", selErr.Value)
	}
	e.logger.WarnContext(ctx, "action rejected", attrs...)
}
