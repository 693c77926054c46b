package agro

import (
	"context"
	"fmt"
)

// =============================================================================
// CYCLE SERVICE - Ownership checks + validator-gated writes
// =============================================================================

// CycleService is the only write path for crop cycles. Every create and
// update runs the area budget check under the farm lock.
type CycleService struct {
	Farms  FarmStore
	Cycles CycleStore
}

func NewCycleService(farms FarmStore, cycles CycleStore) *CycleService {
	return &CycleService{Farms: farms, Cycles: cycles}
}

// OwnedFarm loads a farm and hides it when it belongs to another producer.
func (s *CycleService) OwnedFarm(ctx context.Context, producerID ProducerID, id FarmID) (Farm, error) {
	farm, err := s.Farms.GetFarm(ctx, id)
	if err != nil {
		return Farm{}, err
	}
	if farm.ProducerID != producerID {
		return Farm{}, fmt.Errorf("farm %d: %w", id, ErrNotFound)
	}
	return farm, nil
}

// OwnedCycle loads a cycle through its farm's ownership.
func (s *CycleService) OwnedCycle(ctx context.Context, producerID ProducerID, id CycleID) (CropCycle, error) {
	cycle, err := s.Cycles.GetCycle(ctx, id)
	if err != nil {
		return CropCycle{}, err
	}
	if _, err := s.OwnedFarm(ctx, producerID, cycle.FarmID); err != nil {
		return CropCycle{}, fmt.Errorf("crop cycle %d: %w", id, ErrNotFound)
	}
	return cycle, nil
}

// CreateCycle validates c and persists it on one of the producer's farms.
func (s *CycleService) CreateCycle(ctx context.Context, producerID ProducerID, c CropCycle) (CropCycle, error) {
	if err := c.Validate(); err != nil {
		return CropCycle{}, err
	}
	farm, err := s.OwnedFarm(ctx, producerID, c.FarmID)
	if err != nil {
		return CropCycle{}, err
	}

	var created CropCycle
	err = s.Cycles.WithFarmLock(ctx, farm.ID, func(w CycleWriter) error {
		if err := NewAreaValidator(w).Validate(ctx, farm, c.Area, c.Season, 0); err != nil {
			return err
		}
		var err error
		created, err = w.CreateCycle(ctx, c)
		return err
	})
	return created, err
}

// UpdateCycle replaces the stored cycle c.ID with c. The cycle's own
// previous area is excluded from the season total, so resubmitting an
// unchanged cycle never rejects itself.
func (s *CycleService) UpdateCycle(ctx context.Context, producerID ProducerID, c CropCycle) (CropCycle, error) {
	existing, err := s.OwnedCycle(ctx, producerID, c.ID)
	if err != nil {
		return CropCycle{}, err
	}
	c.CreatedAt = existing.CreatedAt

	if err := c.Validate(); err != nil {
		return CropCycle{}, err
	}
	farm, err := s.OwnedFarm(ctx, producerID, c.FarmID)
	if err != nil {
		return CropCycle{}, err
	}

	var updated CropCycle
	err = s.Cycles.WithFarmLock(ctx, farm.ID, func(w CycleWriter) error {
		if err := NewAreaValidator(w).Validate(ctx, farm, c.Area, c.Season, c.ID); err != nil {
			return err
		}
		var err error
		updated, err = w.UpdateCycle(ctx, c)
		return err
	})
	return updated, err
}

// DeleteCycle removes one of the producer's cycles with its movements.
func (s *CycleService) DeleteCycle(ctx context.Context, producerID ProducerID, id CycleID) error {
	if _, err := s.OwnedCycle(ctx, producerID, id); err != nil {
		return err
	}
	return s.Cycles.DeleteCycle(ctx, id)
}
