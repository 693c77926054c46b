/*
area.go - Farm area budget validation

PURPOSE:
  Guarantees that the planted area of a farm, within one season, never
  exceeds the farm's area budget. This is the only gate protecting that
  invariant; the database does not enforce it.

ALGORITHM:
  1. No candidate area: accept (area is optional metadata)
  2. Budget = cultivable area, else total area; neither: accept
  3. Candidate alone above budget: reject (cycle_exceeds_budget)
  4. Existing = sum of the farm's cycle areas in the candidate season
     (farm-wide when the season is empty), minus the cycle being updated
  5. Candidate + existing above budget: reject (season_exceeds_budget)
  6. Accept. Reaching the budget exactly is allowed.

CONCURRENCY:
  Validate must run inside CycleStore.WithFarmLock together with the
  write it guards. CycleService does this.

EXAMPLE:
  Budget 60.00, season "23/24":
    A = 50.00  -> accepted
    B = 15.00  -> rejected (50 + 15 > 60)
    C = 10.00  -> accepted (50 + 10 = 60)

BUDGET CHANGES:
  Lowering a farm's area does not re-check existing cycles, so a season
  can end up above the new budget. OverAllocatedSeasons reports those
  seasons; the API logs them and accepts the farm update.

SEE ALSO:
  - service.go: Runs Validate under the farm lock
  - allocator.go: Produces data that always passes Validate
*/
package agro

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	MsgCycleOverBudget  = "cycle area exceeds farm budget"
	MsgSeasonOverBudget = "season allocation exceeds farm budget"
)

// AreaValidator checks candidate crop-cycle areas against the farm budget.
type AreaValidator struct {
	Cycles CycleReader
}

func NewAreaValidator(cycles CycleReader) *AreaValidator {
	return &AreaValidator{Cycles: cycles}
}

// Validate returns nil to accept or a *ValidationError to reject. Pass the
// ID of the cycle being updated as excluding, or 0 on create.
func (v *AreaValidator) Validate(ctx context.Context, farm Farm, area decimal.NullDecimal, season string, excluding CycleID) error {
	if !area.Valid {
		return nil
	}
	budget, ok := farm.Budget()
	if !ok {
		return nil
	}
	if area.Decimal.GreaterThan(budget) {
		return NewValidationError("area_ha", CodeCycleOverBudget, MsgCycleOverBudget)
	}

	existing, err := v.Cycles.AllocatedArea(ctx, farm.ID, season, excluding)
	if err != nil {
		return fmt.Errorf("failed to load allocated area: %w", err)
	}
	return CheckSeasonBudget(budget, existing, area.Decimal)
}

// CheckSeasonBudget is step 5 on its own: existing + candidate must fit.
func CheckSeasonBudget(budget, existing, candidate decimal.Decimal) error {
	if candidate.Add(existing).GreaterThan(budget) {
		return NewValidationError("area_ha", CodeSeasonOverBudget, MsgSeasonOverBudget)
	}
	return nil
}

// OverAllocatedSeasons returns the season labels whose allocated area on
// farm is above its budget, sorted. Cycles of other farms are ignored. The
// empty label stands for the farm-wide total and is reported only when an
// unlabelled cycle exists, since only those are checked farm-wide.
func OverAllocatedSeasons(farm Farm, cycles []CropCycle) []string {
	budget, ok := farm.Budget()
	if !ok {
		return nil
	}

	bySeason := make(map[string]decimal.Decimal)
	farmWide := decimal.Zero
	unlabelled := false
	for _, c := range cycles {
		if c.FarmID != farm.ID {
			continue
		}
		if c.Season == "" {
			unlabelled = true
		}
		if !c.Area.Valid {
			continue
		}
		farmWide = farmWide.Add(c.Area.Decimal)
		if c.Season != "" {
			bySeason[c.Season] = bySeason[c.Season].Add(c.Area.Decimal)
		}
	}

	var over []string
	if unlabelled && farmWide.GreaterThan(budget) {
		over = append(over, "")
	}
	for season, total := range bySeason {
		if total.GreaterThan(budget) {
			over = append(over, season)
		}
	}
	sort.Strings(over)
	return over
}
