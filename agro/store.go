/*
store.go - Persistence interfaces for farms, crop cycles, catalog and stock

PURPOSE:
  Defines the interface between the planning logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  FarmStore:     Farm CRUD, scoped by producer on listing
  CycleStore:    Crop-cycle reads plus the farm-scoped write lock
  CycleWriter:   The view handed to code running under the farm lock
  CatalogStore:  Cultivar lookups and inserts
  MovementStore: Append-only stock movements

FARM LOCK:
  The area budget check reads the season total and then writes. Two
  concurrent writers could both read a total that fits and then both
  commit. WithFarmLock serializes every check-and-write for one farm:
  the validator and the write must both run inside fn, through the
  CycleWriter it receives.

APPEND-ONLY CONTRACT:
  MovementStore has no Update or Delete. Movements disappear only through
  the cascade when their crop cycle (or its farm) is deleted.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - agro/store/memory.go: In-memory for testing

SEE ALSO:
  - service.go: Uses CycleStore.WithFarmLock around validation
  - area.go: Reads through CycleReader
*/
package agro

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FARMS
// =============================================================================

type FarmStore interface {
	CreateFarm(ctx context.Context, f Farm) (Farm, error)

	// GetFarm returns ErrNotFound when the farm does not exist.
	GetFarm(ctx context.Context, id FarmID) (Farm, error)

	// ListFarms returns the producer's farms, newest first.
	ListFarms(ctx context.Context, producerID ProducerID) ([]Farm, error)

	UpdateFarm(ctx context.Context, f Farm) (Farm, error)

	// DeleteFarm removes the farm with its crop cycles and their movements.
	DeleteFarm(ctx context.Context, id FarmID) error
}

// =============================================================================
// CROP CYCLES
// =============================================================================

// CycleReader is what the area validator needs.
type CycleReader interface {
	// GetCycle returns ErrNotFound when the cycle does not exist.
	GetCycle(ctx context.Context, id CycleID) (CropCycle, error)

	// AllocatedArea sums the area of the farm's cycles. A non-empty season
	// restricts the sum to cycles with exactly that label. A non-zero
	// excluding ID leaves that cycle out. Cycles without area count as 0.
	AllocatedArea(ctx context.Context, farmID FarmID, season string, excluding CycleID) (decimal.Decimal, error)
}

// CycleWriter is only valid inside WithFarmLock.
type CycleWriter interface {
	CycleReader
	CreateCycle(ctx context.Context, c CropCycle) (CropCycle, error)
	UpdateCycle(ctx context.Context, c CropCycle) (CropCycle, error)
}

type CycleStore interface {
	CycleReader

	// ListCycles returns the cycles on the producer's farms, newest first.
	ListCycles(ctx context.Context, producerID ProducerID) ([]CropCycle, error)

	// DeleteCycle removes the cycle and its stock movements.
	DeleteCycle(ctx context.Context, id CycleID) error

	// WithFarmLock runs fn while holding the write lock for farmID.
	// If fn returns an error nothing it wrote is kept.
	WithFarmLock(ctx context.Context, farmID FarmID, fn func(CycleWriter) error) error
}

// =============================================================================
// CATALOG
// =============================================================================

type CatalogStore interface {
	// ListCultivars returns entries ordered by crop then variety. A
	// non-empty crop filters case-insensitively.
	ListCultivars(ctx context.Context, crop string) ([]CultivarEntry, error)

	// CreateCultivar returns ErrDuplicateCultivar when the pair exists.
	CreateCultivar(ctx context.Context, e CultivarEntry) (CultivarEntry, error)
}

// =============================================================================
// STOCK MOVEMENTS (append-only)
// =============================================================================

type MovementStore interface {
	// AppendMovement is the ONLY write operation.
	AppendMovement(ctx context.Context, m StockMovement) (StockMovement, error)

	// ListMovements returns movements on the producer's cycles, most recent
	// first, ties broken by descending ID. CycleLabel is filled in.
	ListMovements(ctx context.Context, producerID ProducerID) ([]StockMovement, error)

	// MovementQuantities returns the stored quantity text of every movement
	// on the producer's cycles, for balance derivation.
	MovementQuantities(ctx context.Context, producerID ProducerID) ([]RawQuantity, error)
}
