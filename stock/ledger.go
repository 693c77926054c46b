/*
Package stock implements the append-only harvest stock ledger.

PURPOSE:
  The ledger is the only record of harvested and adjusted quantities. The
  balance is always derived by summing movements; there is no stored
  balance that could drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. Corrections are new "ajuste"
     movements.
  2. POSITIVE: every recorded quantity is > 0.
  3. HARVESTED: a "colheita" movement needs a crop cycle whose expected
     harvest date is present and not in the future.

BALANCE DERIVATION:
  Stored quantities are parsed one by one into QuantityResult values.
  Unparseable records do not abort the sum: they are left out, logged,
  and reported in BalanceResult.Skipped so callers can surface them.

EXAMPLE FLOW:
  1. Cycle harvested yesterday: Record(cycle, 100, "colheita", "") -> ok
  2. Scale was off by 5 kg:     Record(cycle, 5, "ajuste", "balança") -> ok
  3. Balance(producer) = 105

SEE ALSO:
  - agro/store.go: MovementStore
  - api/stock.go: HTTP endpoints
*/
package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/logger"
)

const (
	MsgNonPositive  = "quantity must be positive"
	MsgInvalidKind  = "movement kind must be colheita or ajuste"
	MsgNotHarvested = "cycle not yet harvested"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store agro.MovementStore
	Log   *logger.Logger

	// Now decides which expected harvest dates count as past.
	Now func() time.Time
}

func NewLedger(store agro.MovementStore, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.Nop()
	}
	return &Ledger{Store: store, Log: log, Now: time.Now}
}

// ParseKind accepts "colheita" and "ajuste", ignoring case and padding.
func ParseKind(s string) (agro.MovementKind, error) {
	switch kind := agro.MovementKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case agro.KindHarvest, agro.KindAdjustment:
		return kind, nil
	default:
		return "", agro.NewValidationError("tipo", agro.CodeInvalidKind, MsgInvalidKind)
	}
}

// ValidateInput runs the checks that need no crop cycle: positive quantity
// and a known kind.
func ValidateInput(quantityKg decimal.Decimal, kind string) (agro.MovementKind, error) {
	if !quantityKg.IsPositive() {
		return "", agro.NewValidationError("quantidade_kg", agro.CodeNonPositiveAmount, MsgNonPositive)
	}
	return ParseKind(kind)
}

// Record appends a movement for cycle. The caller has already checked that
// the cycle belongs to the producer.
func (l *Ledger) Record(ctx context.Context, cycle agro.CropCycle, quantityKg decimal.Decimal, kind string, note string) (agro.StockMovement, error) {
	k, err := ValidateInput(quantityKg, kind)
	if err != nil {
		return agro.StockMovement{}, err
	}
	if k == agro.KindHarvest && !cycle.HarvestedBy(agro.DateOf(l.Now())) {
		return agro.StockMovement{}, agro.NewValidationError("cultivo_id", agro.CodeNotHarvested, MsgNotHarvested)
	}

	m, err := l.Store.AppendMovement(ctx, agro.StockMovement{
		CycleID:    cycle.ID,
		QuantityKg: quantityKg,
		Kind:       k,
		Note:       strings.TrimSpace(note),
	})
	if err != nil {
		return agro.StockMovement{}, fmt.Errorf("failed to append movement: %w", err)
	}

	l.Log.Info("stock movement recorded",
		"movement_id", m.ID, "cycle_id", cycle.ID, "kind", k, "quantity_kg", quantityKg.String())
	return m, nil
}

// Entries lists the producer's movements, most recent first.
func (l *Ledger) Entries(ctx context.Context, producerID agro.ProducerID) ([]agro.StockMovement, error) {
	return l.Store.ListMovements(ctx, producerID)
}

// =============================================================================
// BALANCE
// =============================================================================

// QuantityResult is the outcome of parsing one stored quantity.
type QuantityResult struct {
	MovementID agro.MovementID
	Value      decimal.Decimal
	Err        error
}

type BalanceResult struct {
	TotalKg decimal.Decimal
	Counted int
	Skipped []agro.MovementID
}

// ParseQuantities parses every raw record independently.
func ParseQuantities(raw []agro.RawQuantity) []QuantityResult {
	out := make([]QuantityResult, len(raw))
	for i, r := range raw {
		v, err := decimal.NewFromString(strings.TrimSpace(r.Value))
		out[i] = QuantityResult{MovementID: r.MovementID, Value: v, Err: err}
	}
	return out
}

// Sum aggregates the successfully parsed results.
func Sum(results []QuantityResult) BalanceResult {
	b := BalanceResult{TotalKg: decimal.Zero}
	for _, r := range results {
		if r.Err != nil {
			b.Skipped = append(b.Skipped, r.MovementID)
			continue
		}
		b.TotalKg = b.TotalKg.Add(r.Value)
		b.Counted++
	}
	return b
}

// Balance sums every movement on the producer's cycles.
func (l *Ledger) Balance(ctx context.Context, producerID agro.ProducerID) (BalanceResult, error) {
	raw, err := l.Store.MovementQuantities(ctx, producerID)
	if err != nil {
		return BalanceResult{}, fmt.Errorf("failed to load movement quantities: %w", err)
	}

	results := ParseQuantities(raw)
	for _, r := range results {
		if r.Err != nil {
			l.Log.Warn("skipping unparseable stock quantity",
				"producer_id", producerID, "movement_id", r.MovementID, "error", r.Err)
		}
	}
	return Sum(results), nil
}
