/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Wire names are
  Portuguese (nome, areatotal, cultura, safra, ...) because the web and
  mobile clients already speak them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DECIMALS:
  Areas, yields and quantities are decimal strings ("50.00"). The stock
  total and chart values are JSON numbers, as the charts expect.

VALIDATION:
  Request structs carry go-playground/validator tags for shape checks
  (required, lengths). Domain rules (budget, harvest date, positivity) live
  in the agro and stock packages.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/dashboard"
	"github.com/warp/agro-engine/stock"
)

// =============================================================================
// FARMS
// =============================================================================

type FarmDTO struct {
	ID            int64               `json:"id"`
	Nome          string              `json:"nome"`
	Cep           string              `json:"cep"`
	Cidade        string              `json:"cidade"`
	Estado        string              `json:"estado"`
	AreaTotal     decimal.NullDecimal `json:"areatotal"`
	AreaCultivada decimal.NullDecimal `json:"areacultivada"`
	Latitude      decimal.NullDecimal `json:"latitude"`
	Longitude     decimal.NullDecimal `json:"longitude"`
	CriadoEm      string              `json:"criado_em"`
}

// FarmRequest is the body of POST, PUT and PATCH on farms.
type FarmRequest struct {
	Nome          string              `json:"nome" validate:"required,max=255"`
	Cep           string              `json:"cep" validate:"max=20"`
	Cidade        string              `json:"cidade" validate:"max=255"`
	Estado        string              `json:"estado" validate:"max=10"`
	AreaTotal     decimal.NullDecimal `json:"areatotal"`
	AreaCultivada decimal.NullDecimal `json:"areacultivada"`
	Latitude      decimal.NullDecimal `json:"latitude"`
	Longitude     decimal.NullDecimal `json:"longitude"`
}

func farmToDTO(f agro.Farm) FarmDTO {
	return FarmDTO{
		ID:            int64(f.ID),
		Nome:          f.Name,
		Cep:           f.PostalCode,
		Cidade:        f.City,
		Estado:        f.State,
		AreaTotal:     f.TotalArea,
		AreaCultivada: f.CultivableArea,
		Latitude:      f.Latitude,
		Longitude:     f.Longitude,
		CriadoEm:      formatTime(f.CreatedAt),
	}
}

func farmToRequest(f agro.Farm) FarmRequest {
	return FarmRequest{
		Nome:          f.Name,
		Cep:           f.PostalCode,
		Cidade:        f.City,
		Estado:        f.State,
		AreaTotal:     f.TotalArea,
		AreaCultivada: f.CultivableArea,
		Latitude:      f.Latitude,
		Longitude:     f.Longitude,
	}
}

func (req FarmRequest) toFarm(id agro.FarmID, producerID agro.ProducerID) agro.Farm {
	return agro.Farm{
		ID:             id,
		ProducerID:     producerID,
		Name:           req.Nome,
		PostalCode:     req.Cep,
		City:           req.Cidade,
		State:          req.Estado,
		TotalArea:      req.AreaTotal,
		CultivableArea: req.AreaCultivada,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}
}

// =============================================================================
// CROP CYCLES
// =============================================================================

type CycleDTO struct {
	ID                   int64               `json:"id"`
	Fazenda              int64               `json:"fazenda"`
	Cultura              string              `json:"cultura"`
	Variedade            string              `json:"variedade"`
	AreaHa               decimal.NullDecimal `json:"area_ha"`
	DataPlantio          *agro.Date          `json:"data_plantio"`
	DataPrevistaColheita *agro.Date          `json:"data_prevista_colheita"`
	Safra                string              `json:"safra"`
	SacasPorHa           decimal.NullDecimal `json:"sacas_por_ha"`
	KgPorSaca            decimal.Decimal     `json:"kg_por_saca"`
	ProducaoEstimadaKg   decimal.NullDecimal `json:"producao_estimada_kg"`
	CriadoEm             string              `json:"criado_em"`
}

// CycleRequest is the body of POST, PUT and PATCH on crop cycles. A missing
// kg_por_saca means the 60 kg default.
type CycleRequest struct {
	Fazenda              int64               `json:"fazenda" validate:"required,gt=0"`
	Cultura              string              `json:"cultura" validate:"required,max=100"`
	Variedade            string              `json:"variedade" validate:"max=100"`
	AreaHa               decimal.NullDecimal `json:"area_ha"`
	DataPlantio          *agro.Date          `json:"data_plantio"`
	DataPrevistaColheita *agro.Date          `json:"data_prevista_colheita"`
	Safra                string              `json:"safra" validate:"max=20"`
	SacasPorHa           decimal.NullDecimal `json:"sacas_por_ha"`
	KgPorSaca            decimal.NullDecimal `json:"kg_por_saca"`
}

func cycleToDTO(c agro.CropCycle) CycleDTO {
	dto := CycleDTO{
		ID:                   int64(c.ID),
		Fazenda:              int64(c.FarmID),
		Cultura:              c.Crop,
		Variedade:            c.Variety,
		AreaHa:               c.Area,
		DataPlantio:          c.PlantingDate,
		DataPrevistaColheita: c.ExpectedHarvestDate,
		Safra:                c.Season,
		SacasPorHa:           c.SacksPerArea,
		KgPorSaca:            c.KgPerSack,
		CriadoEm:             formatTime(c.CreatedAt),
	}
	if kg, ok := c.ExpectedYieldKg(); ok {
		dto.ProducaoEstimadaKg = decimal.NewNullDecimal(kg)
	}
	return dto
}

func cycleToRequest(c agro.CropCycle) CycleRequest {
	return CycleRequest{
		Fazenda:              int64(c.FarmID),
		Cultura:              c.Crop,
		Variedade:            c.Variety,
		AreaHa:               c.Area,
		DataPlantio:          copyDate(c.PlantingDate),
		DataPrevistaColheita: copyDate(c.ExpectedHarvestDate),
		Safra:                c.Season,
		SacasPorHa:           c.SacksPerArea,
		KgPorSaca:            decimal.NewNullDecimal(c.KgPerSack),
	}
}

func (req CycleRequest) toCycle(id agro.CycleID) agro.CropCycle {
	kg := agro.DefaultKgPerSack
	if req.KgPorSaca.Valid {
		kg = req.KgPorSaca.Decimal
	}
	return agro.CropCycle{
		ID:                  id,
		FarmID:              agro.FarmID(req.Fazenda),
		Crop:                req.Cultura,
		Variety:             req.Variedade,
		Area:                req.AreaHa,
		PlantingDate:        req.DataPlantio,
		ExpectedHarvestDate: req.DataPrevistaColheita,
		Season:              req.Safra,
		SacksPerArea:        req.SacasPorHa,
		KgPerSack:           kg,
	}
}

// =============================================================================
// CULTIVAR CATALOG
// =============================================================================

type CultivarDTO struct {
	ID        int64  `json:"id"`
	Cultura   string `json:"cultura"`
	Variedade string `json:"variedade"`
	CriadoEm  string `json:"criado_em"`
}

type CultivarRequest struct {
	Cultura   string `json:"cultura" validate:"required,max=100"`
	Variedade string `json:"variedade" validate:"required,max=100"`
}

func cultivarToDTO(e agro.CultivarEntry) CultivarDTO {
	return CultivarDTO{
		ID:        int64(e.ID),
		Cultura:   e.Crop,
		Variedade: e.Variety,
		CriadoEm:  formatTime(e.CreatedAt),
	}
}

// =============================================================================
// STOCK
// =============================================================================

type StockEntryDTO struct {
	ID           int64           `json:"id"`
	CultivoID    int64           `json:"cultivo_id"`
	CultivoNome  string          `json:"cultivo_nome"`
	QuantidadeKg decimal.Decimal `json:"quantidade_kg"`
	Tipo         string          `json:"tipo"`
	Observacao   string          `json:"observacao"`
	CriadoEm     string          `json:"criado_em"`
}

// StockEntryRequest is the body of POST /api/estoque/entrada.
type StockEntryRequest struct {
	CultivoID    int64           `json:"cultivo_id" validate:"required,gt=0"`
	QuantidadeKg decimal.Decimal `json:"quantidade_kg"`
	Tipo         string          `json:"tipo"`
	Observacao   string          `json:"observacao" validate:"max=1000"`
}

// StockSummaryDTO is the stock overview. RegistrosIgnorados counts stored
// movements whose quantity could not be parsed and were left out of the
// total.
type StockSummaryDTO struct {
	SaldoTotalKg       float64         `json:"saldo_total_kg"`
	Entradas           []StockEntryDTO `json:"entradas"`
	RegistrosIgnorados int             `json:"registros_ignorados"`
}

func movementToDTO(m agro.StockMovement) StockEntryDTO {
	return StockEntryDTO{
		ID:           int64(m.ID),
		CultivoID:    int64(m.CycleID),
		CultivoNome:  m.CycleLabel,
		QuantidadeKg: m.QuantityKg,
		Tipo:         string(m.Kind),
		Observacao:   m.Note,
		CriadoEm:     formatTime(m.CreatedAt),
	}
}

func stockSummaryToDTO(movements []agro.StockMovement, balance stock.BalanceResult) StockSummaryDTO {
	entries := make([]StockEntryDTO, 0, len(movements))
	for _, m := range movements {
		entries = append(entries, movementToDTO(m))
	}
	return StockSummaryDTO{
		SaldoTotalKg:       balance.TotalKg.InexactFloat64(),
		Entradas:           entries,
		RegistrosIgnorados: len(balance.Skipped),
	}
}

// =============================================================================
// DASHBOARD
// =============================================================================

type HarvestForecastDTO struct {
	Dias30 int `json:"dias_30"`
	Dias60 int `json:"dias_60"`
	Dias90 int `json:"dias_90"`
}

type SeriesDTO struct {
	X []string `json:"x"`
	Y []int    `json:"y"`
}

type LabeledValuesDTO struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

type StockSeriesDTO struct {
	X []string  `json:"x"`
	Y []float64 `json:"y"`
}

type ChartsDTO struct {
	EvolucaoProducaoMensal SeriesDTO        `json:"evolucao_producao_mensal"`
	AreaPorCultura         LabeledValuesDTO `json:"area_por_cultura"`
	EstoquePorCultivo      StockSeriesDTO   `json:"estoque_por_cultivo"`
}

type DashboardDTO struct {
	FazendasTotal    int                `json:"fazendas_total"`
	CultivosTotal    int                `json:"cultivos_total"`
	CultivosAtivos   int                `json:"cultivos_ativos"`
	EstoqueTotalKg   float64            `json:"estoque_total_kg"`
	PrevisaoColheita HarvestForecastDTO `json:"previsao_colheita"`
	Charts           ChartsDTO          `json:"charts"`
}

// dashboardToDTO builds the dashboard reply. estoque_por_cultivo is part of
// the contract but has no data behind it yet, so it is always {x:[], y:[]}.
func dashboardToDTO(farms int, snap dashboard.Snapshot, balance stock.BalanceResult) DashboardDTO {
	dto := DashboardDTO{
		FazendasTotal:  farms,
		CultivosTotal:  snap.Total,
		CultivosAtivos: snap.Active,
		EstoqueTotalKg: balance.TotalKg.InexactFloat64(),
		PrevisaoColheita: HarvestForecastDTO{
			Dias30: snap.Window30,
			Dias60: snap.Window60,
			Dias90: snap.Window90,
		},
		Charts: ChartsDTO{
			EvolucaoProducaoMensal: SeriesDTO{X: snap.Monthly.Months, Y: snap.Monthly.Counts},
			AreaPorCultura:         LabeledValuesDTO{Labels: []string{}, Values: []float64{}},
			EstoquePorCultivo:      StockSeriesDTO{X: []string{}, Y: []float64{}},
		},
	}
	for _, a := range snap.AreaByCrop {
		dto.Charts.AreaPorCultura.Labels = append(dto.Charts.AreaPorCultura.Labels, a.Crop)
		dto.Charts.AreaPorCultura.Values = append(dto.Charts.AreaPorCultura.Values, a.Area.InexactFloat64())
	}
	return dto
}

// =============================================================================
// HELPERS
// =============================================================================

// copyDate detaches a PATCH request from the stored cycle, since decoding
// the body writes through pointer fields.
func copyDate(d *agro.Date) *agro.Date {
	if d == nil {
		return nil
	}
	return agro.DatePtr(*d)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
