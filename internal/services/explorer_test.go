package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"sales-drilldown/internal/dataset"
	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/models"
	"sales-drilldown/internal/session"
)

func testDataset() *dataset.Dataset {
	return dataset.New([]models.Record{
		{Region: "North", Category: "Electronics", Product: "Laptop", Sales: 3000, Quantity: 3, Profit: 600},
		{Region: "North", Category: "Books", Product: "Novel", Sales: 500, Quantity: 50, Profit: 50},
		{Region: "South", Category: "Food", Product: "Pizza", Sales: 800, Quantity: 80, Profit: 160},
	}, "test")
}

func newTestExplorer(t *testing.T, opts ...Option) *Explorer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExplorer(testDataset(), session.NewStore(time.Minute, time.Minute), logger, opts...)
}

func TestExplorer_ViewStartsAtHome(t *testing.T) {
	e := newTestExplorer(t)

	view := e.View(context.Background(), "s1")
	if view.State != drilldown.Home() {
		t.Errorf("expected home state, got %s", view.State)
	}
	if len(view.Records) != 3 {
		t.Errorf("expected all 3 records, got %d", len(view.Records))
	}
	if view.Totals.Sales != 4300 {
		t.Errorf("expected total sales 4300, got %d", view.Totals.Sales)
	}
}

func TestExplorer_ApplyPersistsState(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	view, err := e.Apply(ctx, "s1", drilldown.Explore("North"))
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if view.State.Level != drilldown.LevelCategories || view.State.Region != "North" {
		t.Errorf("unexpected state %s", view.State)
	}

	view = e.View(ctx, "s1")
	if view.State.Region != "North" {
		t.Errorf("state should persist across requests, got %s", view.State)
	}
	if len(view.Records) != 2 {
		t.Errorf("expected 2 North records, got %d", len(view.Records))
	}

	view, err = e.Apply(ctx, "s1", drilldown.Explore("Books"))
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if view.State.Level != drilldown.LevelProducts || len(view.Products) != 1 {
		t.Errorf("expected products level with 1 row, got %s with %d rows", view.State, len(view.Products))
	}

	view, _ = e.Apply(ctx, "s1", drilldown.Back())
	if view.State != (drilldown.State{Level: drilldown.LevelCategories, Region: "North"}) {
		t.Errorf("back should return to categories, got %s", view.State)
	}

	view, _ = e.Apply(ctx, "s1", drilldown.GoHome())
	if view.State != drilldown.Home() {
		t.Errorf("home should reset state, got %s", view.State)
	}
}

func TestExplorer_RejectedActionKeepsState(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	if _, err := e.Apply(ctx, "s1", drilldown.Explore("South")); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	view, err := e.Apply(ctx, "s1", drilldown.Explore("Books"))
	if !errors.Is(err, drilldown.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	want := drilldown.State{Level: drilldown.LevelCategories, Region: "South"}
	if view.State != want {
		t.Errorf("rejected action should return the unchanged view, got %s", view.State)
	}
	if got := e.View(ctx, "s1").State; got != want {
		t.Errorf("stored state changed after rejection: %s", got)
	}

	stats := e.Stats()
	if stats.ActionsApplied != 1 || stats.ActionsRejected != 1 {
		t.Errorf("expected 1 applied and 1 rejected, got %d and %d", stats.ActionsApplied, stats.ActionsRejected)
	}
}

func TestExplorer_SessionsAreIsolated(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	if _, err := e.Apply(ctx, "a", drilldown.Explore("North")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Apply(ctx, "b", drilldown.Explore("South")); err != nil {
		t.Fatal(err)
	}

	if got := e.View(ctx, "a").State.Region; got != "North" {
		t.Errorf("session a should be in North, got %q", got)
	}
	if got := e.View(ctx, "b").State.Region; got != "South" {
		t.Errorf("session b should be in South, got %q", got)
	}
	if got := e.View(ctx, "c").State; got != drilldown.Home() {
		t.Errorf("fresh session should be at home, got %s", got)
	}
}

func TestExplorer_Restore(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	target := drilldown.State{Level: drilldown.LevelProducts, Region: "North", Category: "Electronics"}
	view, err := e.Restore(ctx, "s1", target)
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if view.State != target {
		t.Errorf("expected %s, got %s", target, view.State)
	}

	bad := drilldown.State{Level: drilldown.LevelProducts, Region: "South", Category: "Electronics"}
	view, err = e.Restore(ctx, "s1", bad)
	if !errors.Is(err, drilldown.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if view.State != target {
		t.Errorf("failed restore should keep the previous state, got %s", view.State)
	}
}

func TestExplorer_End(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	if _, err := e.Apply(ctx, "s1", drilldown.Explore("North")); err != nil {
		t.Fatal(err)
	}
	if e.Stats().LiveSessions != 1 {
		t.Errorf("expected 1 live session, got %d", e.Stats().LiveSessions)
	}

	e.End(ctx, "s1")

	if got := e.View(ctx, "s1").State; got != drilldown.Home() {
		t.Errorf("ended session should restart at home, got %s", got)
	}
	if e.Stats().LiveSessions != 0 {
		t.Errorf("expected 0 live sessions, got %d", e.Stats().LiveSessions)
	}
}

func TestExplorer_Regions(t *testing.T) {
	e := newTestExplorer(t)

	regions := e.Regions(context.Background())
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	if regions[0].Key != "North" || regions[0].Sales != 3500 {
		t.Errorf("unexpected North summary: %+v", regions[0])
	}
	if regions[1].Key != "South" || regions[1].Sales != 800 {
		t.Errorf("unexpected South summary: %+v", regions[1])
	}
}

func TestExplorer_Stats(t *testing.T) {
	e := newTestExplorer(t)
	stats := e.Stats()

	if stats.Source != "test" {
		t.Errorf("expected source test, got %q", stats.Source)
	}
	if stats.Records != 3 || stats.Regions != 2 {
		t.Errorf("expected 3 records in 2 regions, got %d in %d", stats.Records, stats.Regions)
	}
	if stats.StartedAt.IsZero() {
		t.Error("StartedAt should be set")
	}
}

func TestExplorer_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	e := newTestExplorer(t, WithTracerProvider(tp))
	ctx := context.Background()

	_, _ = e.Apply(ctx, "s1", drilldown.Explore("North"))
	_, _ = e.Apply(ctx, "s1", drilldown.Explore("Atlantis"))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "explorer.apply" {
			t.Errorf("unexpected span %q", s.Name())
		}
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("accepted action should not fail its span")
	}
	if spans[1].Status().Code != codes.Error {
		t.Error("rejected action should fail its span")
	}
}

func TestExplorer_ConcurrentSessions(t *testing.T) {
	e := newTestExplorer(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := drilldown.Explore("North")
			if i%2 == 0 {
				action = drilldown.GoHome()
			}
			_, _ = e.Apply(ctx, "shared", action)
		}(i)
	}
	wg.Wait()

	if !e.View(ctx, "shared").State.Valid() {
		t.Error("concurrent actions left an invalid state")
	}
}
