/*
Package dashboard aggregates a producer's crop cycles into summary series.

PURPOSE:
  Read-only analytical view. Summarize is a pure function of the cycles it
  is given and the as-of date; it recomputes everything on each call and
  caches nothing.

COMPUTED FIELDS:
  Active:      expected harvest is unknown or on/after asOf
  Window30:    expected harvest in [asOf, asOf+30]
  Window60:    expected harvest in (asOf+30, asOf+60]
  Window90:    expected harvest in (asOf+60, asOf+90]
  AreaByCrop:  area per distinct crop name, missing areas count as 0,
               in first-seen order (not sorted)
  Monthly:     cycles with a known harvest date counted per "YYYY-MM",
               months sorted ascending

SEE ALSO:
  - api/dashboard.go: JSON shape served to the frontend
*/
package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/agro-engine/agro"
)

type CropArea struct {
	Crop string
	Area decimal.Decimal
}

// MonthlySeries holds parallel slices: Counts[i] belongs to Months[i].
type MonthlySeries struct {
	Months []string
	Counts []int
}

type Snapshot struct {
	AsOf       agro.Date
	Total      int
	Active     int
	Window30   int
	Window60   int
	Window90   int
	AreaByCrop []CropArea
	Monthly    MonthlySeries
}

// Summarize builds the snapshot for cycles as of asOf.
func Summarize(cycles []agro.CropCycle, asOf agro.Date) Snapshot {
	snap := Snapshot{
		AsOf:       asOf,
		Total:      len(cycles),
		AreaByCrop: []CropArea{},
		Monthly:    MonthlySeries{Months: []string{}, Counts: []int{}},
	}

	d30, d60, d90 := asOf.AddDays(30), asOf.AddDays(60), asOf.AddDays(90)
	cropIndex := make(map[string]int)
	months := make(map[string]int)

	for _, c := range cycles {
		if h := c.ExpectedHarvestDate; h == nil {
			snap.Active++
		} else {
			if h.AfterOrEqual(asOf) {
				snap.Active++
			}
			switch {
			case h.Before(asOf):
			case h.BeforeOrEqual(d30):
				snap.Window30++
			case h.BeforeOrEqual(d60):
				snap.Window60++
			case h.BeforeOrEqual(d90):
				snap.Window90++
			}
			months[h.MonthKey()]++
		}

		area := decimal.Zero
		if c.Area.Valid {
			area = c.Area.Decimal
		}
		if i, ok := cropIndex[c.Crop]; ok {
			snap.AreaByCrop[i].Area = snap.AreaByCrop[i].Area.Add(area)
		} else {
			cropIndex[c.Crop] = len(snap.AreaByCrop)
			snap.AreaByCrop = append(snap.AreaByCrop, CropArea{Crop: c.Crop, Area: area})
		}
	}

	for key := range months {
		snap.Monthly.Months = append(snap.Monthly.Months, key)
	}
	sort.Strings(snap.Monthly.Months)
	for _, key := range snap.Monthly.Months {
		snap.Monthly.Counts = append(snap.Monthly.Counts, months[key])
	}
	return snap
}
