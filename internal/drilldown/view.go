package drilldown

import (
	"slices"

	"sales-drilldown/internal/models"
)

// View is everything the rendering layer needs for one state.
type View struct {
	State       State                 `json:"state"`
	Totals      models.Aggregates     `json:"totals"`
	Groups      []models.GroupSummary `json:"groups"`
	Records     []models.Record       `json:"records"`
	Products    []models.ProductRow   `json:"products,omitempty"`
	Actions     []Action              `json:"actions"`
	Breadcrumbs []Crumb               `json:"breadcrumbs"`
}

// Crumb is one breadcrumb entry. Action is nil for the current level.
type Crumb struct {
	Label  string  `json:"label"`
	Level  Level   `json:"level"`
	Action *Action `json:"action,omitempty"`
}

// CurrentView filters the records for st and summarises them.
func (n *Navigator) CurrentView(st State) View {
	records := n.src.Filter(st.Region, st.Category)

	v := View{
		State:       st,
		Totals:      models.Summarize(records),
		Groups:      groupBy(records, groupKey(st.Level)),
		Records:     records,
		Actions:     n.Actions(st),
		Breadcrumbs: breadcrumbs(st),
	}
	if st.Level == LevelProducts {
		v.Products = productRows(records, v.Totals.AverageSales)
	}
	return v
}

func groupKey(level Level) func(models.Record) string {
	switch level {
	case LevelRegions:
		return func(r models.Record) string { return r.Region }
	case LevelCategories:
		return func(r models.Record) string { return r.Category }
	default:
		return func(r models.Record) string { return r.Product }
	}
}

// groupBy summarises records per key, keeping first appearance order.
func groupBy(records []models.Record, key func(models.Record) string) []models.GroupSummary {
	var order []string
	buckets := make(map[string][]models.Record)
	for _, r := range records {
		k := key(r)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]models.GroupSummary, 0, len(order))
	for _, k := range order {
		groups = append(groups, models.GroupSummary{
			Key:        k,
			Aggregates: models.Summarize(buckets[k]),
		})
	}
	return groups
}

// productRows sorts by sales, highest first, and flags rows above the mean.
func productRows(records []models.Record, avgSales float64) []models.ProductRow {
	rows := make([]models.ProductRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.ProductRow{
			Record:       r,
			Margin:       models.MarginPercent(r.Profit, r.Sales),
			AboveAverage: float64(r.Sales) > avgSales,
		})
	}
	slices.SortStableFunc(rows, func(a, b models.ProductRow) int {
		switch {
		case a.Sales > b.Sales:
			return -1
		case a.Sales < b.Sales:
			return 1
		default:
			return 0
		}
	})
	return rows
}

func breadcrumbs(st State) []Crumb {
	home := GoHome()
	back := Back()

	switch st.Level {
	case LevelCategories:
		return []Crumb{
			{Label: "Home", Level: LevelRegions, Action: &home},
			{Label: st.Region, Level: LevelCategories},
		}
	case LevelProducts:
		return []Crumb{
			{Label: "Home", Level: LevelRegions, Action: &home},
			{Label: st.Region, Level: LevelCategories, Action: &back},
			{Label: st.Category, Level: LevelProducts},
		}
	default:
		return []Crumb{{Label: "Home", Level: LevelRegions}}
	}
}
