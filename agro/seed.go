/*
seed.go - Demo dataset loader

PURPOSE:
  Populates a store with a realistic producer dataset: two farms, the
  default cultivar catalog and several seasons of crop cycles produced by
  Allocate. Every cycle goes through CycleService, so the seeded data is
  accepted by the same area budget check as API writes.

HOW SEEDING WORKS:
 1. Insert the default catalog (existing pairs are kept)
 2. Find or create the demo farms for the producer
 3. Delete the producer's existing crop cycles
 4. Allocate cycles for DemoSeasons
 5. Persist each cycle through CycleService.CreateCycle

NOTE:
  Step 3 deletes data. Only use in development/demo environments.

SEE ALSO:
  - allocator.go: Allocation algorithm
  - cmd/seed/main.go: Command-line entry point
*/
package agro

import (
	"context"
	"errors"
	"fmt"
)

// DemoSeasons alternates winter ("22/22") and summer ("22/23") seasons.
var DemoSeasons = []string{"22/22", "22/23", "23/23", "23/24", "24/24", "24/25", "25/25", "25/26"}

// DemoFarms are matched by name so reseeding reuses them.
var DemoFarms = []Farm{
	{
		Name:           "Fazenda Primavera",
		PostalCode:     "13000-000",
		City:           "Campinas",
		State:          "SP",
		TotalArea:      NullArea("100.00"),
		CultivableArea: NullArea("60.00"),
		Latitude:       NullArea("-22.9056"),
		Longitude:      NullArea("-47.0608"),
	},
	{
		Name:           "Fazenda Verão",
		PostalCode:     "80000-000",
		City:           "Curitiba",
		State:          "PR",
		TotalArea:      NullArea("150.00"),
		CultivableArea: NullArea("90.00"),
		Latitude:       NullArea("-25.4284"),
		Longitude:      NullArea("-49.2733"),
	},
}

type Seeder struct {
	Farms   FarmStore
	Cycles  CycleStore
	Catalog CatalogStore
	Service *CycleService
}

func NewSeeder(farms FarmStore, cycles CycleStore, catalog CatalogStore) *Seeder {
	return &Seeder{
		Farms:   farms,
		Cycles:  cycles,
		Catalog: catalog,
		Service: NewCycleService(farms, cycles),
	}
}

type SeedResult struct {
	Farms        []Farm
	Cycles       []CropCycle
	CatalogAdded int
	Summer       int // cycles in year-spanning seasons
	Winter       int // cycles in single-year seasons
}

// Seed loads the demo dataset for producerID.
func (s *Seeder) Seed(ctx context.Context, producerID ProducerID, seasons []string) (SeedResult, error) {
	var result SeedResult

	added, err := s.seedCatalog(ctx)
	if err != nil {
		return result, err
	}
	result.CatalogAdded = added

	farms, err := s.seedFarms(ctx, producerID)
	if err != nil {
		return result, err
	}
	result.Farms = farms

	existing, err := s.Cycles.ListCycles(ctx, producerID)
	if err != nil {
		return result, fmt.Errorf("failed to list cycles: %w", err)
	}
	for _, c := range existing {
		if err := s.Cycles.DeleteCycle(ctx, c.ID); err != nil {
			return result, fmt.Errorf("failed to delete cycle %d: %w", c.ID, err)
		}
	}

	catalog, err := s.Catalog.ListCultivars(ctx, "")
	if err != nil {
		return result, fmt.Errorf("failed to list cultivars: %w", err)
	}

	schedule := make([]SeasonPlan, len(seasons))
	for i, label := range seasons {
		schedule[i] = SeasonPlan{Season: label}
	}
	alloc, err := Allocate(AllocationRequest{Farms: farms, Schedule: schedule, Catalog: catalog})
	if err != nil {
		return result, err
	}

	for _, c := range alloc.Cycles {
		created, err := s.Service.CreateCycle(ctx, producerID, c)
		if err != nil {
			return result, fmt.Errorf("failed to create %s cycle in %s: %w", c.Crop, c.Season, err)
		}
		result.Cycles = append(result.Cycles, created)

		season, _ := ParseSeason(created.Season)
		if season.Summer() {
			result.Summer++
		} else {
			result.Winter++
		}
	}
	return result, nil
}

func (s *Seeder) seedCatalog(ctx context.Context) (int, error) {
	defaults, err := DefaultCultivars()
	if err != nil {
		return 0, err
	}
	added := 0
	for _, e := range defaults {
		_, err := s.Catalog.CreateCultivar(ctx, e)
		if errors.Is(err, ErrDuplicateCultivar) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to add cultivar %s %s: %w", e.Crop, e.Variety, err)
		}
		added++
	}
	return added, nil
}

func (s *Seeder) seedFarms(ctx context.Context, producerID ProducerID) ([]Farm, error) {
	owned, err := s.Farms.ListFarms(ctx, producerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	byName := make(map[string]Farm, len(owned))
	for _, f := range owned {
		byName[f.Name] = f
	}

	farms := make([]Farm, 0, len(DemoFarms))
	for _, demo := range DemoFarms {
		if f, ok := byName[demo.Name]; ok {
			farms = append(farms, f)
			continue
		}
		demo.ProducerID = producerID
		f, err := s.Farms.CreateFarm(ctx, demo)
		if err != nil {
			return nil, fmt.Errorf("failed to create farm %q: %w", demo.Name, err)
		}
		farms = append(farms, f)
	}
	return farms, nil
}
