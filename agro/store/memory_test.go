package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/agro/store"
)

func TestMemory_CyclesDoNotShareDates(t *testing.T) {
	// GIVEN: A stored cycle with planting and harvest dates
	// WHEN: The caller mutates the dates it passed in and the dates it read back
	// THEN: The stored cycle is unchanged

	mem := store.NewMemory()
	ctx := context.Background()
	farm, err := mem.CreateFarm(ctx, agro.Farm{ProducerID: 1, Name: "Fazenda"})
	require.NoError(t, err)

	planting := agro.NewDate(2023, 11, 1)
	harvest := agro.NewDate(2024, 3, 1)
	input := agro.CropCycle{
		FarmID:              farm.ID,
		Crop:                "Soja",
		PlantingDate:        &planting,
		ExpectedHarvestDate: &harvest,
		KgPerSack:           agro.DefaultKgPerSack,
	}

	var created agro.CropCycle
	require.NoError(t, mem.WithFarmLock(ctx, farm.ID, func(w agro.CycleWriter) error {
		created, err = w.CreateCycle(ctx, input)
		return err
	}))

	harvest = agro.NewDate(2030, 1, 1)

	got, err := mem.GetCycle(ctx, created.ID)
	require.NoError(t, err)
	*got.ExpectedHarvestDate = agro.NewDate(2031, 1, 1)

	listed, err := mem.ListCycles(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	*listed[0].PlantingDate = agro.NewDate(2031, 1, 1)

	stored, err := mem.GetCycle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2023-11-01", stored.PlantingDate.String())
	assert.Equal(t, "2024-03-01", stored.ExpectedHarvestDate.String())
}

func TestMemory_UpdateDoesNotKeepCallerDates(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	farm, err := mem.CreateFarm(ctx, agro.Farm{ProducerID: 1, Name: "Fazenda"})
	require.NoError(t, err)

	var c agro.CropCycle
	require.NoError(t, mem.WithFarmLock(ctx, farm.ID, func(w agro.CycleWriter) error {
		c, err = w.CreateCycle(ctx, agro.CropCycle{FarmID: farm.ID, Crop: "Milho", KgPerSack: agro.DefaultKgPerSack})
		return err
	}))

	harvest := agro.NewDate(2024, 6, 1)
	c.ExpectedHarvestDate = &harvest
	require.NoError(t, mem.WithFarmLock(ctx, farm.ID, func(w agro.CycleWriter) error {
		_, err := w.UpdateCycle(ctx, c)
		return err
	}))
	harvest = agro.NewDate(2030, 1, 1)

	stored, err := mem.GetCycle(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", stored.ExpectedHarvestDate.String())
}
