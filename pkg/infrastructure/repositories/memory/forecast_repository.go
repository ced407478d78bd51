package memory

import (
	"sort"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

// ForecastRepository provides in-memory forecast storage. Entries
// accumulate per (location, product, date) key; each location's
// forecast is independent of every other location's.
type ForecastRepository struct {
	entries []entities.ForecastEntry
}

// NewForecastRepository creates a new in-memory forecast repository
func NewForecastRepository() *ForecastRepository {
	return &ForecastRepository{
		entries: []entities.ForecastEntry{},
	}
}

// Add loads forecast entries into the repository
func (r *ForecastRepository) Add(entries ...*entities.ForecastEntry) {
	for _, e := range entries {
		r.entries = append(r.entries, *e)
	}
}

// Entries returns all forecast entries
func (r *ForecastRepository) Entries() []*entities.ForecastEntry {
	var out []*entities.ForecastEntry
	for i := range r.entries {
		out = append(out, &r.entries[i])
	}
	return out
}

// Totals returns accumulated demand per key
func (r *ForecastRepository) Totals() map[entities.ForecastKey]float64 {
	totals := make(map[entities.ForecastKey]float64)
	for i := range r.entries {
		totals[r.entries[i].Key()] += r.entries[i].Units
	}
	return totals
}

// TotalsByProduct returns accumulated demand per product across the
// whole horizon, sorted output for deterministic iteration
func (r *ForecastRepository) TotalsByProduct() []ProductTotal {
	byProduct := make(map[entities.ProductID]float64)
	for i := range r.entries {
		byProduct[r.entries[i].Product] += r.entries[i].Units
	}
	out := make([]ProductTotal, 0, len(byProduct))
	for pid, units := range byProduct {
		out = append(out, ProductTotal{Product: pid, Units: units})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Units != out[j].Units {
			return out[i].Units > out[j].Units
		}
		return out[i].Product < out[j].Product
	})
	return out
}

// ProductTotal is one product's accumulated horizon demand
type ProductTotal struct {
	Product entities.ProductID
	Units   float64
}
