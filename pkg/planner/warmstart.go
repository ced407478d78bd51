package planner

import (
	"sort"
	"time"

	"github.com/bakeplan/bakeplan/pkg/domain/entities"
)

// WarmstartKey identifies one heuristic production decision
type WarmstartKey struct {
	Location entities.LocationID
	Product  entities.ProductID
	Date     time.Time
}

// weekdaySlots is the number of weekday indexes a campaign pattern
// spans (Monday through Friday).
const weekdaySlots = 5

// weekendEngageThreshold is the weekday-capacity utilization above
// which the warmstart adds a weekend slot for the top product.
const weekendEngageThreshold = 0.95

// GenerateWarmstart produces a heuristic campaign assignment: for each
// manufacturing site, which products to produce on which dates. The
// output is binary (present keys mean produce), deterministic for
// identical inputs, and never fails: any internal problem yields an
// empty mapping so the caller proceeds without a warmstart.
func GenerateWarmstart(n *network, targetSKUsPerDay int) (assignment map[WarmstartKey]bool) {
	defer func() {
		if recover() != nil {
			assignment = map[WarmstartKey]bool{}
		}
	}()

	assignment = make(map[WarmstartKey]bool)
	if len(n.mfg) == 0 || len(n.dates) == 0 {
		return assignment
	}

	byProduct := n.demandByProduct()
	total := n.totalDemand()
	if total <= 0 {
		return assignment
	}

	// Products sorted by descending demand share, ties by ID for
	// determinism.
	type share struct {
		id     entities.ProductID
		demand float64
	}
	shares := make([]share, 0, len(byProduct))
	for id, q := range byProduct {
		shares = append(shares, share{id: id, demand: q})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].demand != shares[j].demand {
			return shares[i].demand > shares[j].demand
		}
		return shares[i].id < shares[j].id
	})

	for _, site := range n.mfg {
		target := targetSKUsPerDay
		if target <= 0 || target > site.Manufacturing.MaxProductsPerDay {
			target = site.Manufacturing.MaxProductsPerDay
		}
		totalSlots := weekdaySlots * target

		// Proportional slots with a one-slot freshness floor.
		slots := make(map[entities.ProductID]int, len(shares))
		used := 0
		for _, s := range shares {
			c := int(float64(totalSlots) * s.demand / total)
			if c < 1 {
				c = 1
			}
			if used+c > totalSlots {
				c = totalSlots - used
			}
			slots[s.id] = c
			used += c
			if used == totalSlots {
				break
			}
		}
		// Remainder to the highest-demand products first.
		for i := 0; used < totalSlots && len(shares) > 0; i = (i + 1) % len(shares) {
			slots[shares[i].id]++
			used++
		}

		// Round-robin each product's slots across the five weekdays to
		// balance daily SKU counts.
		pattern := make([][]entities.ProductID, weekdaySlots)
		day := 0
		for _, s := range shares {
			for k := 0; k < slots[s.id]; k++ {
				pattern[day] = append(pattern[day], s.id)
				day = (day + 1) % weekdaySlots
			}
		}

		// Replicate the single-week pattern onto every horizon date by
		// weekday index; partial weeks use only the matching weekdays.
		for _, d := range n.dates {
			wd := d.Weekday()
			if wd == time.Saturday || wd == time.Sunday {
				continue
			}
			for _, pid := range pattern[int(wd)-int(time.Monday)] {
				assignment[WarmstartKey{Location: site.ID, Product: pid, Date: d}] = true
			}
		}

		// Conservative weekend allowance: engage only when aggregate
		// demand crowds weekday capacity, and only for the single
		// highest-demand product.
		if weekdayCapacity := n.weekdayCapacity(site); weekdayCapacity > 0 && total > weekendEngageThreshold*weekdayCapacity {
			top := shares[0].id
			for _, d := range n.dates {
				if entities.IsWeekend(d) {
					assignment[WarmstartKey{Location: site.ID, Product: top, Date: d}] = true
				}
			}
		}
	}
	return assignment
}

// weekdayCapacity is the site's maximum output over the horizon using
// weekdays only.
func (n *network) weekdayCapacity(site *entities.Location) float64 {
	var cap float64
	for _, d := range n.dates {
		if !entities.IsWeekend(d) {
			cap += site.Manufacturing.MaxDailyUnits
		}
	}
	return cap
}
