/*
allocator.go - Deterministic seasonal demo-data allocation

PURPOSE:
  Generates crop cycles for a list of farms and seasons without ever
  exceeding a farm's per-season area budget. Used by the demo seeder and
  doubles as a reference implementation of the budget invariant.

PURITY:
  Allocate never touches a store. The running per-farm, per-season budget
  is an explicit Budgets value: the caller passes one in (or nil to start
  from the farm budgets) and gets the remaining budgets back. The input map
  is not modified.

ALGORITHM (per season, index reset to 0 for each season):
  for each farm, for each crop, up to PerCrop attempts:
    remaining <= 0           -> stop this crop for this season
    area = 1 + index mod 4   -> clipped to remaining
    month = months[index mod 3]   summer {Nov, Dec, Jan}, winter {Jun, Jul, Aug}
    day   = index mod 28 + 1
    year  = season first year if month >= July, else the next year
    harvest = planting + 120 days (summer) or 135 days (winter)
    variety = round-robin over catalog entries for the crop
    yield   = 50 + index mod 20 sacks of 60 kg
    remaining -= area
  The index advances after every attempt, including the failed one.

SEASON CLASSIFICATION:
  "23/24" (halves differ) is a summer season, default crops Soja, Milho.
  "23/23" (halves equal) is a winter season, default crops Cevada, Trigo.
  A SeasonPlan with explicit Crops overrides the defaults.

SEE ALSO:
  - area.go: The invariant this respects by construction
  - seed.go: Persists the allocation through CycleService
*/
package agro

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	DefaultSummerCrops = []string{"Soja", "Milho"}
	DefaultWinterCrops = []string{"Cevada", "Trigo"}

	summerMonths = []time.Month{time.November, time.December, time.January}
	winterMonths = []time.Month{time.June, time.July, time.August}
)

const (
	summerCycleDays = 120
	winterCycleDays = 135
)

// =============================================================================
// BUDGETS - Remaining area per farm and season
// =============================================================================

type Budgets map[FarmID]map[string]decimal.Decimal

// NewBudgets starts every (farm, season) at the farm budget, or 0 when the
// farm has no area defined.
func NewBudgets(farms []Farm, seasons []string) Budgets {
	b := make(Budgets, len(farms))
	for _, f := range farms {
		budget, _ := f.Budget()
		perSeason := make(map[string]decimal.Decimal, len(seasons))
		for _, s := range seasons {
			perSeason[s] = budget
		}
		b[f.ID] = perSeason
	}
	return b
}

// Remaining returns the area still available; unknown keys are 0.
func (b Budgets) Remaining(farmID FarmID, season string) decimal.Decimal {
	if perSeason, ok := b[farmID]; ok {
		return perSeason[season]
	}
	return decimal.Zero
}

func (b Budgets) clone() Budgets {
	out := make(Budgets, len(b))
	for farmID, perSeason := range b {
		cp := make(map[string]decimal.Decimal, len(perSeason))
		for s, v := range perSeason {
			cp[s] = v
		}
		out[farmID] = cp
	}
	return out
}

func (b Budgets) spend(farmID FarmID, season string, area decimal.Decimal) {
	if b[farmID] == nil {
		b[farmID] = make(map[string]decimal.Decimal)
	}
	b[farmID][season] = b[farmID][season].Sub(area)
}

// =============================================================================
// ALLOCATION
// =============================================================================

// SeasonPlan lists the crops to plant in one season. Empty Crops means the
// defaults for the season's classification.
type SeasonPlan struct {
	Season string
	Crops  []string
}

type AllocationRequest struct {
	Farms    []Farm
	Schedule []SeasonPlan
	Catalog  []CultivarEntry
	Budgets  Budgets // nil: NewBudgets(Farms, seasons of Schedule)
	PerCrop  int     // attempts per crop per farm and season; 0 means 2
}

type Allocation struct {
	Cycles    []CropCycle
	Remaining Budgets
}

// Allocate produces the demo cycles. It fails only on a malformed season
// label, before producing anything.
func Allocate(req AllocationRequest) (Allocation, error) {
	seasons := make([]Season, len(req.Schedule))
	labels := make([]string, len(req.Schedule))
	for i, plan := range req.Schedule {
		s, err := ParseSeason(plan.Season)
		if err != nil {
			return Allocation{}, err
		}
		seasons[i] = s
		labels[i] = plan.Season
	}

	budgets := req.Budgets
	if budgets == nil {
		budgets = NewBudgets(req.Farms, labels)
	} else {
		budgets = budgets.clone()
	}
	perCrop := req.PerCrop
	if perCrop <= 0 {
		perCrop = 2
	}

	var cycles []CropCycle
	for i, plan := range req.Schedule {
		season := seasons[i]
		crops := plan.Crops
		if len(crops) == 0 {
			crops = DefaultWinterCrops
			if season.Summer() {
				crops = DefaultSummerCrops
			}
		}

		idx := 0
		for _, farm := range req.Farms {
			for _, crop := range crops {
				for k := 0; k < perCrop; k++ {
					cycle, ok := allocateOne(budgets, farm, season, crop, req.Catalog, idx)
					idx++
					if !ok {
						break
					}
					cycles = append(cycles, cycle)
				}
			}
		}
	}

	return Allocation{Cycles: cycles, Remaining: budgets}, nil
}

func allocateOne(budgets Budgets, farm Farm, season Season, crop string, catalog []CultivarEntry, idx int) (CropCycle, bool) {
	remaining := budgets.Remaining(farm.ID, season.Label)
	if !remaining.IsPositive() {
		return CropCycle{}, false
	}
	area := decimal.NewFromInt(int64(1 + idx%4))
	if area.GreaterThan(remaining) {
		area = remaining
	}

	months, cycleDays := winterMonths, winterCycleDays
	if season.Summer() {
		months, cycleDays = summerMonths, summerCycleDays
	}
	month := months[idx%len(months)]
	planting := NewDate(season.PlantingYear(month), month, idx%28+1)
	harvest := planting.AddDays(cycleDays)

	budgets.spend(farm.ID, season.Label, area)

	return CropCycle{
		FarmID:              farm.ID,
		Crop:                crop,
		Variety:             PickVariety(catalog, crop, idx),
		Area:                decimal.NewNullDecimal(area),
		PlantingDate:        &planting,
		ExpectedHarvestDate: &harvest,
		Season:              season.Label,
		SacksPerArea:        decimal.NewNullDecimal(decimal.NewFromInt(int64(50 + idx%20))),
		KgPerSack:           DefaultKgPerSack,
	}, true
}
