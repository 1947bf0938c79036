package handlers

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/wcharczuk/go-chart/v2"

	"sales-drilldown/internal/drilldown"
	"sales-drilldown/internal/errors"
	"sales-drilldown/internal/models"
	"sales-drilldown/internal/services"
	"sales-drilldown/internal/session"
	"sales-drilldown/internal/ui/templates"
)

const (
	chartWidth  = 520
	chartHeight = 320
)

// ChartHandlers draws the session's current view as SVG charts.
type ChartHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewChartHandlers(explorer *services.Explorer, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

func (h *ChartHandlers) HandleSales(w http.ResponseWriter, r *http.Request) {
	view := h.explorer.View(r.Context(), session.FromContext(r.Context()))
	h.write(w, r, view, hasSales(view), func(buf *bytes.Buffer) error {
		return SalesBarChart(view).Render(chart.SVG, buf)
	})
}

func (h *ChartHandlers) HandleShare(w http.ResponseWriter, r *http.Request) {
	view := h.explorer.View(r.Context(), session.FromContext(r.Context()))
	h.write(w, r, view, hasSales(view), func(buf *bytes.Buffer) error {
		return SharePieChart(view).Render(chart.SVG, buf)
	})
}

// HandleProducts is only meaningful at the products level; elsewhere it
// draws the empty placeholder.
func (h *ChartHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	view := h.explorer.View(r.Context(), session.FromContext(r.Context()))
	h.write(w, r, view, len(view.Products) > 0, func(buf *bytes.Buffer) error {
		return ProductsScatterChart(view).Render(chart.SVG, buf)
	})
}

func hasSales(view drilldown.View) bool {
	return view.Totals.Sales > 0 && len(view.Groups) > 0
}

func (h *ChartHandlers) write(w http.ResponseWriter, r *http.Request, view drilldown.View, ok bool, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if !ok {
		writeEmptyChart(&buf, templates.Title(view.State))
	} else if err := render(&buf); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to render chart"))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// SalesBarChart plots sales per group of the current level.
func SalesBarChart(view drilldown.View) chart.BarChart {
	return chart.BarChart{
		Title:      "Sales by " + groupNoun(view.State.Level),
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth(len(view.Groups)),
		BarSpacing: barSpacing(len(view.Groups)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		YAxis: chart.YAxis{
			ValueFormatter: moneyFormatter,
		},
		Bars: values(view.Groups),
	}
}

// ProductsScatterChart plots each product row's sales against its quantity,
// with the dot size following profit.
func ProductsScatterChart(view drilldown.View) chart.Chart {
	n := len(view.Products)
	xs, ys := make([]float64, n), make([]float64, n)
	profits := make([]int64, n)
	var maxQty, maxSales, maxProfit int64
	for i, p := range view.Products {
		xs[i], ys[i], profits[i] = float64(p.Quantity), float64(p.Sales), p.Profit
		maxQty = max(maxQty, p.Quantity)
		maxSales = max(maxSales, p.Sales)
		maxProfit = max(maxProfit, p.Profit)
	}

	return chart.Chart{
		Title:  "Sales vs Quantity",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:  "Quantity",
			Range: axisRange(maxQty),
		},
		YAxis: chart.YAxis{
			Name:           "Sales",
			Range:          axisRange(maxSales),
			ValueFormatter: moneyFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Products",
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    minDot,
					DotWidthProvider: func(_, _ chart.Range, i int, _, _ float64) float64 {
						return dotWidth(profits[i], maxProfit)
					},
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}
}

const (
	minDot = 4
	maxDot = 16
)

func dotWidth(profit, maxProfit int64) float64 {
	if maxProfit <= 0 || profit <= 0 {
		return minDot
	}
	return minDot + (maxDot-minDot)*float64(profit)/float64(maxProfit)
}

// axisRange starts at zero and leaves headroom above the largest value.
// go-chart refuses to draw an axis whose range is empty.
func axisRange(maxValue int64) *chart.ContinuousRange {
	top := float64(maxValue) * 1.1
	if top <= 0 {
		top = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: top}
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return templates.Money(int64(f))
	}
	return ""
}

// SharePieChart shows each group's share of the current level's sales.
func SharePieChart(view drilldown.View) chart.PieChart {
	return chart.PieChart{
		Title:  "Sales Distribution",
		Width:  chartWidth,
		Height: chartHeight,
		Values: values(view.Groups),
	}
}

func values(groups []models.GroupSummary) []chart.Value {
	out := make([]chart.Value, 0, len(groups))
	for _, g := range groups {
		out = append(out, chart.Value{Value: float64(g.Sales), Label: g.Key})
	}
	return out
}

// Bars and gaps share the plot width so the chart never overflows.
func barSlot(n int) int {
	if n == 0 {
		return chartWidth - 80
	}
	return (chartWidth - 80) / n
}

func barWidth(n int) int {
	return max(4, min(barSlot(n)*2/3, 80))
}

func barSpacing(n int) int {
	return max(2, barSlot(n)-barWidth(n))
}

func groupNoun(level drilldown.Level) string {
	switch level {
	case drilldown.LevelCategories:
		return "Category"
	case drilldown.LevelProducts:
		return "Product"
	default:
		return "Region"
	}
}

func writeEmptyChart(buf *bytes.Buffer, title string) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="50%%" text-anchor="middle">%s: no sales</text></svg>`,
		chartWidth, chartHeight, html.EscapeString(title))
}
