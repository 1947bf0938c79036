// Package dataset holds the immutable sales table every session drills into,
// together with the generators and loaders that build it.
package dataset

import (
	"slices"

	"sales-drilldown/internal/models"
)

// Dataset is a read-only, indexed snapshot of sales records. It is safe for
// concurrent use because nothing mutates it after New returns.
type Dataset struct {
	records    []models.Record
	regions    []string
	categories map[string][]string
	regionSet  map[string]struct{}
	pairSet    map[string]map[string]struct{}
	source     string
}

// New copies records and indexes their regions and per-region categories in
// first appearance order.
func New(records []models.Record, source string) *Dataset {
	d := &Dataset{
		records:    slices.Clone(records),
		categories: make(map[string][]string),
		regionSet:  make(map[string]struct{}),
		pairSet:    make(map[string]map[string]struct{}),
		source:     source,
	}

	for _, r := range d.records {
		if _, ok := d.regionSet[r.Region]; !ok {
			d.regionSet[r.Region] = struct{}{}
			d.regions = append(d.regions, r.Region)
			d.pairSet[r.Region] = make(map[string]struct{})
		}
		if _, ok := d.pairSet[r.Region][r.Category]; !ok {
			d.pairSet[r.Region][r.Category] = struct{}{}
			d.categories[r.Region] = append(d.categories[r.Region], r.Category)
		}
	}

	return d
}

// Len reports the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Source describes where the records came from ("synthetic" or a CSV path).
func (d *Dataset) Source() string {
	return d.source
}

// Records returns a copy of every record.
func (d *Dataset) Records() []models.Record {
	return slices.Clone(d.records)
}

// Regions returns the distinct regions.
func (d *Dataset) Regions() []string {
	return slices.Clone(d.regions)
}

// Categories returns the distinct categories present for region.
func (d *Dataset) Categories(region string) []string {
	return slices.Clone(d.categories[region])
}

func (d *Dataset) HasRegion(region string) bool {
	_, ok := d.regionSet[region]
	return ok
}

func (d *Dataset) HasCategory(region, category string) bool {
	cats, ok := d.pairSet[region]
	if !ok {
		return false
	}
	_, ok = cats[category]
	return ok
}

// Filter returns the records matching region and category. An empty
// argument matches everything for that column.
func (d *Dataset) Filter(region, category string) []models.Record {
	out := make([]models.Record, 0, len(d.records))
	for _, r := range d.records {
		if region != "" && r.Region != region {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	return out
}
