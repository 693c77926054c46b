// Package store provides in-memory implementations of the agro store
// interfaces.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agro-engine/agro"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	farms     map[agro.FarmID]agro.Farm
	cycles    map[agro.CycleID]agro.CropCycle
	cultivars map[agro.CultivarID]agro.CultivarEntry
	movements map[agro.MovementID]agro.StockMovement
	nextID    int64

	// farmLocks serialize check-and-write sequences per farm.
	locksMu   sync.Mutex
	farmLocks map[agro.FarmID]*sync.Mutex

	// Now stamps CreatedAt. Tests replace it to control ordering.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		farms:     make(map[agro.FarmID]agro.Farm),
		cycles:    make(map[agro.CycleID]agro.CropCycle),
		cultivars: make(map[agro.CultivarID]agro.CultivarEntry),
		movements: make(map[agro.MovementID]agro.StockMovement),
		farmLocks: make(map[agro.FarmID]*sync.Mutex),
		Now:       time.Now,
	}
}

func (m *Memory) newID() int64 {
	m.nextID++
	return m.nextID
}

// =============================================================================
// FARMS
// =============================================================================

func (m *Memory) CreateFarm(_ context.Context, f agro.Farm) (agro.Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f.ID = agro.FarmID(m.newID())
	f.CreatedAt = m.Now().UTC()
	m.farms[f.ID] = f
	return f, nil
}

func (m *Memory) GetFarm(_ context.Context, id agro.FarmID) (agro.Farm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.farms[id]
	if !ok {
		return agro.Farm{}, fmt.Errorf("farm %d: %w", id, agro.ErrNotFound)
	}
	return f, nil
}

func (m *Memory) ListFarms(_ context.Context, producerID agro.ProducerID) ([]agro.Farm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []agro.Farm
	for _, f := range m.farms {
		if f.ProducerID == producerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateFarm(_ context.Context, f agro.Farm) (agro.Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.farms[f.ID]
	if !ok {
		return agro.Farm{}, fmt.Errorf("farm %d: %w", f.ID, agro.ErrNotFound)
	}
	f.ProducerID = existing.ProducerID
	f.CreatedAt = existing.CreatedAt
	m.farms[f.ID] = f
	return f, nil
}

func (m *Memory) DeleteFarm(_ context.Context, id agro.FarmID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.farms[id]; !ok {
		return fmt.Errorf("farm %d: %w", id, agro.ErrNotFound)
	}
	delete(m.farms, id)
	for cid, c := range m.cycles {
		if c.FarmID == id {
			m.deleteCycleLocked(cid)
		}
	}
	return nil
}

// =============================================================================
// CROP CYCLES
// =============================================================================

func (m *Memory) GetCycle(_ context.Context, id agro.CycleID) (agro.CropCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cycles[id]
	if !ok {
		return agro.CropCycle{}, fmt.Errorf("crop cycle %d: %w", id, agro.ErrNotFound)
	}
	return c.Clone(), nil
}

func (m *Memory) AllocatedArea(_ context.Context, farmID agro.FarmID, season string, excluding agro.CycleID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, c := range m.cycles {
		if c.FarmID != farmID || c.ID == excluding || !c.Area.Valid {
			continue
		}
		if season != "" && c.Season != season {
			continue
		}
		total = total.Add(c.Area.Decimal)
	}
	return total, nil
}

func (m *Memory) ListCycles(_ context.Context, producerID agro.ProducerID) ([]agro.CropCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []agro.CropCycle
	for _, c := range m.cycles {
		if f, ok := m.farms[c.FarmID]; ok && f.ProducerID == producerID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteCycle(_ context.Context, id agro.CycleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cycles[id]; !ok {
		return fmt.Errorf("crop cycle %d: %w", id, agro.ErrNotFound)
	}
	m.deleteCycleLocked(id)
	return nil
}

func (m *Memory) deleteCycleLocked(id agro.CycleID) {
	delete(m.cycles, id)
	for mid, mv := range m.movements {
		if mv.CycleID == id {
			delete(m.movements, mid)
		}
	}
}

func (m *Memory) createCycle(c agro.CropCycle) (agro.CropCycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.farms[c.FarmID]; !ok {
		return agro.CropCycle{}, fmt.Errorf("farm %d: %w", c.FarmID, agro.ErrNotFound)
	}
	c.ID = agro.CycleID(m.newID())
	c.CreatedAt = m.Now().UTC()
	m.cycles[c.ID] = c.Clone()
	return c, nil
}

func (m *Memory) updateCycle(c agro.CropCycle) (prev agro.CropCycle, updated agro.CropCycle, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.cycles[c.ID]
	if !ok {
		return agro.CropCycle{}, agro.CropCycle{}, fmt.Errorf("crop cycle %d: %w", c.ID, agro.ErrNotFound)
	}
	if _, ok := m.farms[c.FarmID]; !ok {
		return agro.CropCycle{}, agro.CropCycle{}, fmt.Errorf("farm %d: %w", c.FarmID, agro.ErrNotFound)
	}
	c.CreatedAt = prev.CreatedAt
	m.cycles[c.ID] = c.Clone()
	return prev, c, nil
}

// WithFarmLock holds the farm's mutex for the whole of fn. Writes made
// through the view are reverted when fn fails.
func (m *Memory) WithFarmLock(ctx context.Context, farmID agro.FarmID, fn func(agro.CycleWriter) error) error {
	lock := m.farmLock(farmID)
	lock.Lock()
	defer lock.Unlock()

	view := &lockedView{parent: m, undo: make(map[agro.CycleID]*agro.CropCycle)}
	if err := fn(view); err != nil {
		view.rollback()
		return err
	}
	return nil
}

func (m *Memory) farmLock(farmID agro.FarmID) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	l, ok := m.farmLocks[farmID]
	if !ok {
		l = &sync.Mutex{}
		m.farmLocks[farmID] = l
	}
	return l
}

type lockedView struct {
	parent *Memory
	undo   map[agro.CycleID]*agro.CropCycle // nil value: cycle did not exist
}

func (v *lockedView) GetCycle(ctx context.Context, id agro.CycleID) (agro.CropCycle, error) {
	return v.parent.GetCycle(ctx, id)
}

func (v *lockedView) AllocatedArea(ctx context.Context, farmID agro.FarmID, season string, excluding agro.CycleID) (decimal.Decimal, error) {
	return v.parent.AllocatedArea(ctx, farmID, season, excluding)
}

func (v *lockedView) CreateCycle(_ context.Context, c agro.CropCycle) (agro.CropCycle, error) {
	created, err := v.parent.createCycle(c)
	if err != nil {
		return created, err
	}
	if _, seen := v.undo[created.ID]; !seen {
		v.undo[created.ID] = nil
	}
	return created, nil
}

func (v *lockedView) UpdateCycle(_ context.Context, c agro.CropCycle) (agro.CropCycle, error) {
	prev, updated, err := v.parent.updateCycle(c)
	if err != nil {
		return updated, err
	}
	if _, seen := v.undo[prev.ID]; !seen {
		v.undo[prev.ID] = &prev
	}
	return updated, nil
}

func (v *lockedView) rollback() {
	v.parent.mu.Lock()
	defer v.parent.mu.Unlock()

	for id, prev := range v.undo {
		if prev == nil {
			delete(v.parent.cycles, id)
			continue
		}
		v.parent.cycles[id] = *prev
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func (m *Memory) ListCultivars(_ context.Context, crop string) ([]agro.CultivarEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []agro.CultivarEntry
	for _, e := range m.cultivars {
		if crop == "" || e.MatchesCrop(crop) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Crop != out[j].Crop {
			return out[i].Crop < out[j].Crop
		}
		return out[i].Variety < out[j].Variety
	})
	return out, nil
}

func (m *Memory) CreateCultivar(_ context.Context, e agro.CultivarEntry) (agro.CultivarEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.cultivars {
		if existing.Key() == e.Key() {
			return agro.CultivarEntry{}, fmt.Errorf("%w: %s %s", agro.ErrDuplicateCultivar, e.Crop, e.Variety)
		}
	}
	e.ID = agro.CultivarID(m.newID())
	e.CreatedAt = m.Now().UTC()
	m.cultivars[e.ID] = e
	return e, nil
}

// =============================================================================
// STOCK MOVEMENTS (append-only)
// =============================================================================

func (m *Memory) AppendMovement(_ context.Context, mv agro.StockMovement) (agro.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cycles[mv.CycleID]
	if !ok {
		return agro.StockMovement{}, fmt.Errorf("crop cycle %d: %w", mv.CycleID, agro.ErrNotFound)
	}
	mv.ID = agro.MovementID(m.newID())
	mv.CreatedAt = m.Now().UTC()
	mv.CycleLabel = c.Label()
	m.movements[mv.ID] = mv
	return mv, nil
}

func (m *Memory) ListMovements(_ context.Context, producerID agro.ProducerID) ([]agro.StockMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []agro.StockMovement
	for _, mv := range m.movements {
		c, ok := m.cycles[mv.CycleID]
		if !ok || !m.ownsFarmLocked(producerID, c.FarmID) {
			continue
		}
		mv.CycleLabel = c.Label()
		out = append(out, mv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) MovementQuantities(ctx context.Context, producerID agro.ProducerID) ([]agro.RawQuantity, error) {
	movements, err := m.ListMovements(ctx, producerID)
	if err != nil {
		return nil, err
	}
	out := make([]agro.RawQuantity, len(movements))
	for i, mv := range movements {
		out[i] = agro.RawQuantity{MovementID: mv.ID, Value: mv.QuantityKg.String()}
	}
	return out, nil
}

func (m *Memory) ownsFarmLocked(producerID agro.ProducerID, farmID agro.FarmID) bool {
	f, ok := m.farms[farmID]
	return ok && f.ProducerID == producerID
}
