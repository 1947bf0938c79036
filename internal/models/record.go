package models

// Record is one row of the sales table. Records are never mutated once a
// dataset has been built.
type Record struct {
	Region   string `json:"region"`
	Category string `json:"category"`
	Product  string `json:"product"`
	Sales    int64  `json:"sales"`
	Quantity int64  `json:"quantity"`
	Profit   int64  `json:"profit"`
}

// Aggregates holds the summary metrics shown above every drill-down level.
type Aggregates struct {
	Sales        int64   `json:"total_sales"`
	Quantity     int64   `json:"total_quantity"`
	Profit       int64   `json:"total_profit"`
	Count        int     `json:"count"`
	AverageSales float64 `json:"average_sales"`
	Margin       float64 `json:"margin"`
}

// GroupSummary is the aggregate of all records sharing one key at the
// current level (a region, a category or a product).
type GroupSummary struct {
	Key string `json:"key"`
	Aggregates
}

// ProductRow is a record as presented on the products level.
type ProductRow struct {
	Record
	Margin       float64 `json:"margin"`
	AboveAverage bool    `json:"above_average"`
}

// Summarize computes aggregates over records.
func Summarize(records []Record) Aggregates {
	var agg Aggregates
	for _, r := range records {
		agg.Sales += r.Sales
		agg.Quantity += r.Quantity
		agg.Profit += r.Profit
	}
	agg.Count = len(records)
	if agg.Count > 0 {
		agg.AverageSales = float64(agg.Sales) / float64(agg.Count)
	}
	agg.Margin = MarginPercent(agg.Profit, agg.Sales)
	return agg
}

// MarginPercent returns profit as a percentage of sales, or 0 when there
// were no sales.
func MarginPercent(profit, sales int64) float64 {
	if sales == 0 {
		return 0
	}
	return float64(profit) / float64(sales) * 100
}
