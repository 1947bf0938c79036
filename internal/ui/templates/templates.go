// Package templates renders the dashboard as templ components. The markup
// itself lives in html/template definitions so that every interpolated value
// goes through contextual escaping.
package templates

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"sales-drilldown/internal/drilldown"
)

//go:embed html/*.html
var files embed.FS

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"money":   Money,
	"number":  Number,
	"percent": Percent,
	"count":   func(n int) string { return Number(int64(n)) },
	"title":   Title,
	"chartQS": chartQuery,
	"share":   share,
	"groupLabel": func(l drilldown.Level) string {
		switch l {
		case drilldown.LevelCategories:
			return "Category"
		case drilldown.LevelProducts:
			return "Product"
		default:
			return "Region"
		}
	},
	"exploreLabel": func(l drilldown.Level) string {
		if l == drilldown.LevelCategories {
			return "Explore products"
		}
		return "Explore categories"
	},
}).ParseFS(files, "html/*.html"))

// DrilldownID is the element id the SSE handlers patch.
const (
	DrilldownID = "drilldown"
	FlashID     = "flash"
)

type drilldownData struct {
	View       drilldown.View
	CanExplore bool
	Explorable map[string]bool
	CountLabel string
	CountValue int
}

type pageData struct {
	Title     string
	Drilldown drilldownData
	Flash     string
}

type helpData struct {
	Title string
	Body  template.HTML
}

// Title is the heading shown for a state.
func Title(st drilldown.State) string {
	switch st.Level {
	case drilldown.LevelCategories:
		return "Categories in " + st.Region + " Region"
	case drilldown.LevelProducts:
		return "Products in " + st.Category + " - " + st.Region
	default:
		return "Regional Overview"
	}
}

func newDrilldownData(v drilldown.View) drilldownData {
	d := drilldownData{View: v, Explorable: make(map[string]bool)}
	d.CountLabel, d.CountValue = CountMetric(v)
	for _, a := range v.Actions {
		if a.Kind == drilldown.ActionExplore {
			d.Explorable[a.Value] = true
			d.CanExplore = true
		}
	}
	return d
}

func chartQuery(st drilldown.State) template.URL {
	q := url.Values{}
	q.Set("level", st.Level.String())
	if st.Region != "" {
		q.Set("region", st.Region)
	}
	if st.Category != "" {
		q.Set("category", st.Category)
	}
	return template.URL(q.Encode())
}

// CountMetric is the fourth metric card: every record on the overview, the
// number of categories in a region, the number of product rows below that.
func CountMetric(v drilldown.View) (string, int) {
	switch v.State.Level {
	case drilldown.LevelCategories:
		return "Categories", len(v.Groups)
	case drilldown.LevelProducts:
		return "Products", v.Totals.Count
	default:
		return "Total Products", v.Totals.Count
	}
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return tmpl.ExecuteTemplate(w, name, data)
	})
}

// Dashboard is the full page for v. A non-empty flash is shown above the
// drill-down, used when a deep link could not be restored.
func Dashboard(v drilldown.View, flash string) templ.Component {
	return component("page", pageData{
		Title:     Title(v.State),
		Drilldown: newDrilldownData(v),
		Flash:     flash,
	})
}

// Drilldown is the #drilldown fragment: breadcrumbs, metrics, charts and the
// table of the current level.
func Drilldown(v drilldown.View) templ.Component {
	return component("drilldown", newDrilldownData(v))
}

// Flash is the #flash fragment. An empty message renders an empty box.
func Flash(message string) templ.Component {
	return component("flash", message)
}

// Help wraps already sanitised HTML in the page layout.
func Help(body template.HTML) templ.Component {
	return component("help", helpData{Title: "How to use", Body: body})
}

// Render writes c to a string, for SSE patches.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// share is part's percentage of total, 0 when total is 0.
func share(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
