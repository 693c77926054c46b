package dashboard_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/dashboard"
)

var asOf = agro.NewDate(2024, time.March, 1)

func cycle(crop string, area string, harvestOffset *int) agro.CropCycle {
	c := agro.CropCycle{Crop: crop}
	if area != "" {
		c.Area = agro.NullArea(area)
	}
	if harvestOffset != nil {
		c.ExpectedHarvestDate = agro.DatePtr(asOf.AddDays(*harvestOffset))
	}
	return c
}

func days(n int) *int { return &n }

func TestSummarize_WindowsPartitionTheHorizon(t *testing.T) {
	// GIVEN: Harvest dates on every window boundary
	// WHEN: Summarizing as of 2024-03-01
	// THEN: Each cycle lands in at most one window, asOf itself is in the first

	cycles := []agro.CropCycle{
		cycle("Soja", "", days(-1)), // past: no window, not active
		cycle("Soja", "", days(0)),  // 30
		cycle("Soja", "", days(30)), // 30
		cycle("Soja", "", days(31)), // 60
		cycle("Soja", "", days(60)), // 60
		cycle("Soja", "", days(61)), // 90
		cycle("Soja", "", days(90)), // 90
		cycle("Soja", "", days(91)), // beyond
		cycle("Soja", "", nil),      // unknown: active only
	}

	snap := dashboard.Summarize(cycles, asOf)

	assert.Equal(t, 9, snap.Total)
	assert.Equal(t, 8, snap.Active)
	assert.Equal(t, 2, snap.Window30)
	assert.Equal(t, 2, snap.Window60)
	assert.Equal(t, 2, snap.Window90)
}

func TestSummarize_WindowsNeverDoubleCount(t *testing.T) {
	var cycles []agro.CropCycle
	for offset := -10; offset <= 100; offset++ {
		cycles = append(cycles, cycle("Milho", "", days(offset)))
	}

	snap := dashboard.Summarize(cycles, asOf)

	// Offsets 0..90 inclusive are inside the horizon.
	assert.Equal(t, 91, snap.Window30+snap.Window60+snap.Window90)
}

func TestSummarize_AreaByCropFirstSeenOrder(t *testing.T) {
	cycles := []agro.CropCycle{
		cycle("Trigo", "2.50", nil),
		cycle("Soja", "10", nil),
		cycle("Trigo", "", nil),
		cycle("Soja", "5.25", nil),
	}

	snap := dashboard.Summarize(cycles, asOf)

	require.Len(t, snap.AreaByCrop, 2)
	assert.Equal(t, "Trigo", snap.AreaByCrop[0].Crop)
	assert.True(t, snap.AreaByCrop[0].Area.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "Soja", snap.AreaByCrop[1].Crop)
	assert.True(t, snap.AreaByCrop[1].Area.Equal(decimal.RequireFromString("15.25")))
}

func TestSummarize_MonthlySeriesSorted(t *testing.T) {
	cycles := []agro.CropCycle{
		cycle("Soja", "", days(40)),  // 2024-04
		cycle("Soja", "", days(-60)), // 2024-01
		cycle("Soja", "", days(45)),  // 2024-04
		cycle("Soja", "", nil),
	}

	snap := dashboard.Summarize(cycles, asOf)

	assert.Equal(t, []string{"2024-01", "2024-04"}, snap.Monthly.Months)
	assert.Equal(t, []int{1, 2}, snap.Monthly.Counts)
}

func TestSummarize_EmptyInput(t *testing.T) {
	snap := dashboard.Summarize(nil, asOf)

	assert.Zero(t, snap.Total)
	assert.NotNil(t, snap.AreaByCrop)
	assert.NotNil(t, snap.Monthly.Months)
	assert.NotNil(t, snap.Monthly.Counts)
}
