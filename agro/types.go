/*
Package agro provides the farm and crop-cycle planning engine.

PURPOSE:
  This package holds the domain types and the algorithms that keep a
  producer's planting plan consistent: the per-season area budget check,
  the demonstration-data allocator, the cultivar catalog and the season
  label parser. Persistence and HTTP live elsewhere; everything here works
  against the store interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Farm: a producer's property with a total and a cultivable area
  - CropCycle: one crop planted on a farm for a season
  - CultivarEntry: a known (crop, variety) pair
  - StockMovement: an append-only harvest or adjustment record

DESIGN PRINCIPLES:
  1. Precision: areas and quantities use decimal.Decimal
  2. Nullability: optional decimals use decimal.NullDecimal, optional
     dates use *Date
  3. Type Safety: strong typing for IDs prevents mixing farm/cycle IDs
  4. Budget: the cultivable area is the authoritative area budget; the
     total area substitutes when it is absent

USAGE:
  farm := agro.Farm{
      ProducerID:     1,
      Name:           "Fazenda Primavera",
      CultivableArea: agro.NullArea("60.00"),
  }
  budget, ok := farm.Budget()

SEE ALSO:
  - area.go: Area budget validation
  - allocator.go: Seasonal seed allocation
  - store.go: Persistence interfaces
*/
package agro

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProducerID int64
type FarmID int64
type CycleID int64
type CultivarID int64
type MovementID int64

// =============================================================================
// FARM
// =============================================================================

// Farm is owned exclusively by one producer.
type Farm struct {
	ID             FarmID
	ProducerID     ProducerID
	Name           string
	PostalCode     string
	City           string
	State          string
	TotalArea      decimal.NullDecimal
	CultivableArea decimal.NullDecimal
	Latitude       decimal.NullDecimal
	Longitude      decimal.NullDecimal
	CreatedAt      time.Time
}

// Budget returns the area available for allocation across the farm's crop
// cycles. The second value is false when neither area is defined.
func (f Farm) Budget() (decimal.Decimal, bool) {
	if f.CultivableArea.Valid {
		return f.CultivableArea.Decimal, true
	}
	if f.TotalArea.Valid {
		return f.TotalArea.Decimal, true
	}
	return decimal.Zero, false
}

// Validate checks the farm's own fields. It does not look at crop cycles.
func (f Farm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return NewValidationError("nome", CodeRequired, "farm name is required")
	}
	if f.TotalArea.Valid && f.TotalArea.Decimal.IsNegative() {
		return NewValidationError("areatotal", CodeOutOfRange, "total area must not be negative")
	}
	if f.CultivableArea.Valid && f.CultivableArea.Decimal.IsNegative() {
		return NewValidationError("areacultivada", CodeOutOfRange, "cultivable area must not be negative")
	}
	if f.TotalArea.Valid && f.CultivableArea.Valid && f.CultivableArea.Decimal.GreaterThan(f.TotalArea.Decimal) {
		return NewValidationError("areacultivada", CodeOutOfRange, "cultivable area must not exceed total area")
	}
	return nil
}

// =============================================================================
// CROP CYCLE
// =============================================================================

// DefaultKgPerSack is the conventional weight of one sack of grain.
var DefaultKgPerSack = decimal.NewFromInt(60)

// CropCycle is one crop planted on a farm for a season. It is created and
// updated only through CycleService, which runs the area budget check.
type CropCycle struct {
	ID                  CycleID
	FarmID              FarmID
	Crop                string
	Variety             string
	Area                decimal.NullDecimal
	PlantingDate        *Date
	ExpectedHarvestDate *Date
	Season              string
	SacksPerArea        decimal.NullDecimal
	KgPerSack           decimal.Decimal
	CreatedAt           time.Time
}

// Validate checks the cycle's own fields. The farm budget is checked
// separately by AreaValidator.
func (c CropCycle) Validate() error {
	if strings.TrimSpace(c.Crop) == "" {
		return NewValidationError("cultura", CodeRequired, "crop name is required")
	}
	if c.Area.Valid && !c.Area.Decimal.IsPositive() {
		return NewValidationError("area_ha", CodeOutOfRange, "area must be greater than zero")
	}
	if c.PlantingDate != nil && c.ExpectedHarvestDate != nil && c.ExpectedHarvestDate.Before(*c.PlantingDate) {
		return NewValidationError("data_prevista_colheita", CodeOutOfRange, "expected harvest date must not precede planting date")
	}
	if c.SacksPerArea.Valid && c.SacksPerArea.Decimal.IsNegative() {
		return NewValidationError("sacas_por_ha", CodeOutOfRange, "sacks per area must not be negative")
	}
	if !c.KgPerSack.IsPositive() {
		return NewValidationError("kg_por_saca", CodeOutOfRange, "kg per sack must be greater than zero")
	}
	return nil
}

// Clone returns a copy that shares no date pointers with c.
func (c CropCycle) Clone() CropCycle {
	c.PlantingDate = cloneDate(c.PlantingDate)
	c.ExpectedHarvestDate = cloneDate(c.ExpectedHarvestDate)
	return c
}

func cloneDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	return DatePtr(*d)
}

// Label is the display name used by the stock views, e.g. "Soja BRS 1001".
func (c CropCycle) Label() string {
	return strings.TrimSpace(c.Crop + " " + c.Variety)
}

// HarvestedBy reports whether the expected harvest date is present and not
// later than day.
func (c CropCycle) HarvestedBy(day Date) bool {
	return c.ExpectedHarvestDate != nil && c.ExpectedHarvestDate.BeforeOrEqual(day)
}

// ExpectedYieldKg is area * sacksPerArea * kgPerSack. The second value is
// false when the area or the sack yield is unknown.
func (c CropCycle) ExpectedYieldKg() (decimal.Decimal, bool) {
	if !c.Area.Valid || !c.SacksPerArea.Valid {
		return decimal.Zero, false
	}
	return c.Area.Decimal.Mul(c.SacksPerArea.Decimal).Mul(c.KgPerSack), true
}

// =============================================================================
// CULTIVAR CATALOG ENTRY
// =============================================================================

// CultivarEntry is a known crop/variety pair. The pair is unique with the
// crop compared case-insensitively.
type CultivarEntry struct {
	ID        CultivarID
	Crop      string
	Variety   string
	CreatedAt time.Time
}

// =============================================================================
// STOCK MOVEMENT
// =============================================================================

type MovementKind string

const (
	KindHarvest    MovementKind = "colheita" // Harvest intake
	KindAdjustment MovementKind = "ajuste"   // Manual correction
)

// StockMovement is an immutable ledger record. Corrections are new
// adjustment movements, never edits.
type StockMovement struct {
	ID         MovementID
	CycleID    CycleID
	CycleLabel string // Read-side only, filled by the store on listing
	QuantityKg decimal.Decimal
	Kind       MovementKind
	Note       string
	CreatedAt  time.Time
}

// RawQuantity is a movement quantity exactly as persisted, before parsing.
type RawQuantity struct {
	MovementID MovementID
	Value      string
}

// =============================================================================
// HELPERS
// =============================================================================

// NullArea parses s into a valid NullDecimal. It panics on malformed input
// and is meant for literals in tests and seed data.
func NullArea(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
