package dataset

import (
	"math/rand/v2"

	"sales-drilldown/internal/models"
)

const SourceSynthetic = "synthetic"

// Measure ranges, lower bound inclusive and upper bound exclusive.
const (
	minSales, maxSales       = 1000, 50000
	minQuantity, maxQuantity = 10, 500
	minProfit, maxProfit     = 100, 10000
)

// Generate builds a synthetic dataset: for every region and category it
// draws PerGroup products (with replacement) and random measures. The same
// catalog and seed always produce the same records.
func Generate(cat Catalog, seed uint64) *Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	records := make([]models.Record, 0, len(cat.Regions)*len(cat.Categories)*cat.PerGroup)
	for _, region := range cat.Regions {
		for _, category := range cat.Categories {
			for i := 0; i < cat.PerGroup; i++ {
				records = append(records, models.Record{
					Region:   region,
					Category: category,
					Product:  cat.Products[rng.IntN(len(cat.Products))],
					Sales:    between(rng, minSales, maxSales),
					Quantity: between(rng, minQuantity, maxQuantity),
					Profit:   between(rng, minProfit, maxProfit),
				})
			}
		}
	}

	return New(records, SourceSynthetic)
}

func between(rng *rand.Rand, lo, hi int64) int64 {
	return lo + rng.Int64N(hi-lo)
}
