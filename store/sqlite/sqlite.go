/*
Package sqlite provides a SQLite-backed implementation of the agro store
interfaces.

PURPOSE:
  Implements FarmStore, CycleStore, CatalogStore and MovementStore on one
  SQLite database. In production the same patterns apply to PostgreSQL,
  with only minor SQL dialect differences.

KEY TABLES:
  farms:         Producer-owned farms with area budgets
  crop_cycles:   Crops planted per farm and season (cascade with farm)
  cultivars:     Crop/variety catalog, unique on (lower(crop), variety)
  stock_entries: Append-only stock movements (cascade with crop cycle)

DECIMALS:
  Areas and quantities are stored as TEXT and summed in Go with
  shopspring/decimal, never with SQL SUM (which would go through float).

FARM LOCK:
  WithFarmLock holds the store mutex exclusively and runs fn inside a
  transaction opened with BEGIN IMMEDIATE (_txlock=immediate), so the
  season total read by the validator cannot change before the write
  commits, even across processes sharing the file.

APPEND-ONLY ENFORCEMENT:
  stock_entries has no UPDATE or DELETE statement in this package. Rows go
  away only through ON DELETE CASCADE.

USAGE:
  store, err := sqlite.New("./data/agro.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - agro/store.go: Interface definitions
  - agro/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/agro-engine/agro"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements all agro storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Now stamps created_at. Tests replace it to control ordering.
	Now func() time.Time
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, Now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS farms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		producer_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		postal_code TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		total_area TEXT,
		cultivable_area TEXT,
		latitude TEXT,
		longitude TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_farms_producer
		ON farms(producer_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS crop_cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		farm_id INTEGER NOT NULL REFERENCES farms(id) ON DELETE CASCADE,
		crop TEXT NOT NULL,
		variety TEXT NOT NULL DEFAULT '',
		area TEXT,
		planting_date TEXT,
		expected_harvest_date TEXT,
		season TEXT NOT NULL DEFAULT '',
		sacks_per_area TEXT,
		kg_per_sack TEXT NOT NULL DEFAULT '60',
		created_at TEXT NOT NULL
	);

	-- Hot path: season total for the area budget check
	CREATE INDEX IF NOT EXISTS idx_crop_cycles_farm_season
		ON crop_cycles(farm_id, season);

	CREATE TABLE IF NOT EXISTS cultivars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crop TEXT NOT NULL,
		crop_key TEXT NOT NULL,
		variety TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(crop_key, variety)
	);

	-- Append-only stock ledger
	CREATE TABLE IF NOT EXISTS stock_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL REFERENCES crop_cycles(id) ON DELETE CASCADE,
		quantity_kg TEXT NOT NULL,
		kind TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_entries_cycle
		ON stock_entries(cycle_id);
	CREATE INDEX IF NOT EXISTS idx_stock_entries_created
		ON stock_entries(created_at DESC, id DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) now() string {
	return s.Now().UTC().Format(timeLayout)
}

// =============================================================================
// FARM STORE (agro.FarmStore interface)
// =============================================================================

const farmColumns = `id, producer_id, name, postal_code, city, state,
	total_area, cultivable_area, latitude, longitude, created_at`

func (s *Store) CreateFarm(ctx context.Context, f agro.Farm) (agro.Farm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO farms (producer_id, name, postal_code, city, state,
			total_area, cultivable_area, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ProducerID, f.Name, f.PostalCode, f.City, f.State,
		f.TotalArea, f.CultivableArea, f.Latitude, f.Longitude, createdAt,
	)
	if err != nil {
		return agro.Farm{}, fmt.Errorf("failed to insert farm: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return agro.Farm{}, err
	}
	f.ID = agro.FarmID(id)
	f.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return f, nil
}

func (s *Store) GetFarm(ctx context.Context, id agro.FarmID) (agro.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+farmColumns+" FROM farms WHERE id = ?", id)
	f, err := scanFarm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return agro.Farm{}, fmt.Errorf("farm %d: %w", id, agro.ErrNotFound)
	}
	return f, err
}

func (s *Store) ListFarms(ctx context.Context, producerID agro.ProducerID) ([]agro.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+farmColumns+" FROM farms WHERE producer_id = ? ORDER BY created_at DESC, id DESC",
		producerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query farms: %w", err)
	}
	defer rows.Close()

	var farms []agro.Farm
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, err
		}
		farms = append(farms, f)
	}
	return farms, rows.Err()
}

// UpdateFarm overwrites the editable fields. Owner and creation time are
// kept.
func (s *Store) UpdateFarm(ctx context.Context, f agro.Farm) (agro.Farm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE farms SET name = ?, postal_code = ?, city = ?, state = ?,
			total_area = ?, cultivable_area = ?, latitude = ?, longitude = ?
		WHERE id = ?`,
		f.Name, f.PostalCode, f.City, f.State,
		f.TotalArea, f.CultivableArea, f.Latitude, f.Longitude, f.ID,
	)
	if err != nil {
		return agro.Farm{}, fmt.Errorf("failed to update farm: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return agro.Farm{}, fmt.Errorf("farm %d: %w", f.ID, agro.ErrNotFound)
	}

	row := s.db.QueryRowContext(ctx, "SELECT "+farmColumns+" FROM farms WHERE id = ?", f.ID)
	return scanFarm(row)
}

func (s *Store) DeleteFarm(ctx context.Context, id agro.FarmID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM farms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete farm: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("farm %d: %w", id, agro.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFarm(row scanner) (agro.Farm, error) {
	var (
		f         agro.Farm
		createdAt string
	)
	err := row.Scan(&f.ID, &f.ProducerID, &f.Name, &f.PostalCode, &f.City, &f.State,
		&f.TotalArea, &f.CultivableArea, &f.Latitude, &f.Longitude, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, err
		}
		return f, fmt.Errorf("failed to scan farm: %w", err)
	}
	f.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return f, nil
}

// =============================================================================
// CYCLE STORE (agro.CycleStore interface)
// =============================================================================

const cycleColumns = `c.id, c.farm_id, c.crop, c.variety, c.area, c.planting_date,
	c.expected_harvest_date, c.season, c.sacks_per_area, c.kg_per_sack, c.created_at`

func (s *Store) GetCycle(ctx context.Context, id agro.CycleID) (agro.CropCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getCycle(ctx, s.db, id)
}

func (s *Store) AllocatedArea(ctx context.Context, farmID agro.FarmID, season string, excluding agro.CycleID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return allocatedArea(ctx, s.db, farmID, season, excluding)
}

func (s *Store) ListCycles(ctx context.Context, producerID agro.ProducerID) ([]agro.CropCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cycleColumns+`
		FROM crop_cycles c
		JOIN farms f ON f.id = c.farm_id
		WHERE f.producer_id = ?
		ORDER BY c.created_at DESC, c.id DESC`,
		producerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query crop cycles: %w", err)
	}
	defer rows.Close()

	var cycles []agro.CropCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func (s *Store) DeleteCycle(ctx context.Context, id agro.CycleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM crop_cycles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete crop cycle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crop cycle %d: %w", id, agro.ErrNotFound)
	}
	return nil
}

// WithFarmLock executes fn within an immediate (write-locking) transaction.
func (s *Store) WithFarmLock(ctx context.Context, farmID agro.FarmID, fn func(agro.CycleWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for farm %d: %w", farmID, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&cycleTx{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type cycleTx struct {
	tx     *sql.Tx
	parent *Store
}

func (ct *cycleTx) GetCycle(ctx context.Context, id agro.CycleID) (agro.CropCycle, error) {
	return getCycle(ctx, ct.tx, id)
}

func (ct *cycleTx) AllocatedArea(ctx context.Context, farmID agro.FarmID, season string, excluding agro.CycleID) (decimal.Decimal, error) {
	return allocatedArea(ctx, ct.tx, farmID, season, excluding)
}

func (ct *cycleTx) CreateCycle(ctx context.Context, c agro.CropCycle) (agro.CropCycle, error) {
	createdAt := ct.parent.now()
	res, err := ct.tx.ExecContext(ctx, `
		INSERT INTO crop_cycles (farm_id, crop, variety, area, planting_date,
			expected_harvest_date, season, sacks_per_area, kg_per_sack, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FarmID, c.Crop, c.Variety, c.Area, dateValue(c.PlantingDate),
		dateValue(c.ExpectedHarvestDate), c.Season, c.SacksPerArea, c.KgPerSack.String(), createdAt,
	)
	if err != nil {
		return agro.CropCycle{}, fmt.Errorf("failed to insert crop cycle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return agro.CropCycle{}, err
	}
	return getCycle(ctx, ct.tx, agro.CycleID(id))
}

func (ct *cycleTx) UpdateCycle(ctx context.Context, c agro.CropCycle) (agro.CropCycle, error) {
	res, err := ct.tx.ExecContext(ctx, `
		UPDATE crop_cycles SET farm_id = ?, crop = ?, variety = ?, area = ?,
			planting_date = ?, expected_harvest_date = ?, season = ?,
			sacks_per_area = ?, kg_per_sack = ?
		WHERE id = ?`,
		c.FarmID, c.Crop, c.Variety, c.Area, dateValue(c.PlantingDate),
		dateValue(c.ExpectedHarvestDate), c.Season, c.SacksPerArea, c.KgPerSack.String(), c.ID,
	)
	if err != nil {
		return agro.CropCycle{}, fmt.Errorf("failed to update crop cycle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return agro.CropCycle{}, fmt.Errorf("crop cycle %d: %w", c.ID, agro.ErrNotFound)
	}
	return getCycle(ctx, ct.tx, c.ID)
}

func getCycle(ctx context.Context, q querier, id agro.CycleID) (agro.CropCycle, error) {
	row := q.QueryRowContext(ctx, "SELECT "+cycleColumns+" FROM crop_cycles c WHERE c.id = ?", id)
	c, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return agro.CropCycle{}, fmt.Errorf("crop cycle %d: %w", id, agro.ErrNotFound)
	}
	return c, err
}

func allocatedArea(ctx context.Context, q querier, farmID agro.FarmID, season string, excluding agro.CycleID) (decimal.Decimal, error) {
	query := "SELECT area FROM crop_cycles WHERE farm_id = ? AND area IS NOT NULL AND id <> ?"
	args := []any{farmID, excluding}
	if season != "" {
		query += " AND season = ?"
		args = append(args, season)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query allocated area: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var area decimal.NullDecimal
		if err := rows.Scan(&area); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan area: %w", err)
		}
		if area.Valid {
			total = total.Add(area.Decimal)
		}
	}
	return total, rows.Err()
}

func scanCycle(row scanner) (agro.CropCycle, error) {
	var (
		c                 agro.CropCycle
		planting, harvest sql.NullString
		kgPerSack         string
		createdAt         string
	)
	err := row.Scan(&c.ID, &c.FarmID, &c.Crop, &c.Variety, &c.Area, &planting,
		&harvest, &c.Season, &c.SacksPerArea, &kgPerSack, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("failed to scan crop cycle: %w", err)
	}

	if c.PlantingDate, err = parseNullDate(planting); err != nil {
		return c, err
	}
	if c.ExpectedHarvestDate, err = parseNullDate(harvest); err != nil {
		return c, err
	}
	c.KgPerSack, err = decimal.NewFromString(kgPerSack)
	if err != nil {
		return c, fmt.Errorf("crop cycle %d: invalid kg_per_sack %q: %w", c.ID, kgPerSack, err)
	}
	c.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return c, nil
}

// =============================================================================
// CATALOG STORE (agro.CatalogStore interface)
// =============================================================================

func (s *Store) ListCultivars(ctx context.Context, crop string) ([]agro.CultivarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, crop, variety, created_at FROM cultivars"
	var args []any
	if crop != "" {
		query += " WHERE crop_key = ?"
		args = append(args, strings.ToLower(crop))
	}
	query += " ORDER BY crop, variety"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cultivars: %w", err)
	}
	defer rows.Close()

	var entries []agro.CultivarEntry
	for rows.Next() {
		var (
			e         agro.CultivarEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Crop, &e.Variety, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan cultivar: %w", err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) CreateCultivar(ctx context.Context, e agro.CultivarEntry) (agro.CultivarEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cultivars (crop, crop_key, variety, created_at) VALUES (?, ?, ?, ?)",
		e.Crop, strings.ToLower(e.Crop), e.Variety, createdAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return agro.CultivarEntry{}, fmt.Errorf("%w: %s %s", agro.ErrDuplicateCultivar, e.Crop, e.Variety)
		}
		return agro.CultivarEntry{}, fmt.Errorf("failed to insert cultivar: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return agro.CultivarEntry{}, err
	}
	e.ID = agro.CultivarID(id)
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return e, nil
}

// =============================================================================
// MOVEMENT STORE (agro.MovementStore interface, append-only)
// =============================================================================

// AppendMovement adds a movement to the ledger. This is the ONLY write.
func (s *Store) AppendMovement(ctx context.Context, m agro.StockMovement) (agro.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := getCycle(ctx, s.db, m.CycleID)
	if err != nil {
		return agro.StockMovement{}, err
	}

	createdAt := s.now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO stock_entries (cycle_id, quantity_kg, kind, note, created_at) VALUES (?, ?, ?, ?, ?)",
		m.CycleID, m.QuantityKg.String(), string(m.Kind), m.Note, createdAt,
	)
	if err != nil {
		return agro.StockMovement{}, fmt.Errorf("failed to insert stock entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return agro.StockMovement{}, err
	}
	m.ID = agro.MovementID(id)
	m.CycleLabel = c.Label()
	m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return m, nil
}

// ListMovements returns the producer's movements, most recent first. A
// quantity that cannot be parsed is listed as zero; Balance reports it.
func (s *Store) ListMovements(ctx context.Context, producerID agro.ProducerID) ([]agro.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.cycle_id, c.crop, c.variety, e.quantity_kg, e.kind, e.note, e.created_at
		FROM stock_entries e
		JOIN crop_cycles c ON c.id = e.cycle_id
		JOIN farms f ON f.id = c.farm_id
		WHERE f.producer_id = ?
		ORDER BY e.created_at DESC, e.id DESC`,
		producerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock entries: %w", err)
	}
	defer rows.Close()

	var movements []agro.StockMovement
	for rows.Next() {
		var (
			m              agro.StockMovement
			crop, variety  string
			quantity, kind string
			createdAt      string
		)
		if err := rows.Scan(&m.ID, &m.CycleID, &crop, &variety, &quantity, &kind, &m.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock entry: %w", err)
		}
		m.CycleLabel = agro.CropCycle{Crop: crop, Variety: variety}.Label()
		m.QuantityKg, _ = decimal.NewFromString(strings.TrimSpace(quantity))
		m.Kind = agro.MovementKind(kind)
		m.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (s *Store) MovementQuantities(ctx context.Context, producerID agro.ProducerID) ([]agro.RawQuantity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.quantity_kg
		FROM stock_entries e
		JOIN crop_cycles c ON c.id = e.cycle_id
		JOIN farms f ON f.id = c.farm_id
		WHERE f.producer_id = ?
		ORDER BY e.id`,
		producerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock quantities: %w", err)
	}
	defer rows.Close()

	var out []agro.RawQuantity
	for rows.Next() {
		var (
			r     agro.RawQuantity
			value sql.NullString
		)
		if err := rows.Scan(&r.MovementID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan stock quantity: %w", err)
		}
		r.Value = value.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func dateValue(d *agro.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullDate(s sql.NullString) (*agro.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := agro.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
