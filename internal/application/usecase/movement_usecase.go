package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Valores aceptados en include.
const (
	IncludeProduct   = "product"
	IncludeWarehouse = "warehouse"
)

// MovementUseCase casos de uso del historial y de los niveles de stock.
type MovementUseCase struct {
	ledger  *inventory.StockLedger
	catalog *inventory.Catalog
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(ledger *inventory.StockLedger, catalog *inventory.Catalog) *MovementUseCase {
	return &MovementUseCase{ledger: ledger, catalog: catalog}
}

// Create confirma un movimiento con los datos del request.
func (uc *MovementUseCase) Create(ctx context.Context, userID string, in dto.CreateMovementRequest) (*dto.CommitMovementResponse, error) {
	kind, err := inventory.NewMovementKind(in.MovementType, in.Quantity, in.DestinationWarehouseID)
	if err != nil {
		return nil, err
	}
	res, err := uc.ledger.CommitMovement(ctx, inventory.MovementCommand{
		ProductID:     strings.TrimSpace(in.ProductID),
		WarehouseID:   strings.TrimSpace(in.WarehouseID),
		BatchNumber:   in.BatchNumber,
		Kind:          kind,
		UnitCost:      in.UnitCost,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Notes:         in.Notes,
		CreatedBy:     userID,
	})
	if err != nil {
		return nil, err
	}
	return toCommitResponse(res), nil
}

// Reverse revierte un movimiento agregando su compensación.
func (uc *MovementUseCase) Reverse(ctx context.Context, userID, id string) (*dto.CommitMovementResponse, error) {
	res, err := uc.ledger.ReverseMovement(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return toCommitResponse(res), nil
}

func toCommitResponse(res *inventory.CommitResult) *dto.CommitMovementResponse {
	return &dto.CommitMovementResponse{
		Movement: toMovementDTO(res.Movement),
		Levels:   toStockLevelDTOs(res.Levels),
	}
}

// GetByID obtiene un movimiento; include embebe producto y bodegas.
func (uc *MovementUseCase) GetByID(ctx context.Context, id, include string) (*dto.MovementDTO, error) {
	m, err := uc.ledger.GetMovement(ctx, id)
	if err != nil {
		return nil, err
	}
	out := []dto.MovementDTO{toMovementDTO(*m)}
	if err := uc.embed(ctx, out, parseInclude(include)); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List pagina el historial filtrado. Lee limit+1 elementos de la secuencia para calcular has_more.
func (uc *MovementUseCase) List(ctx context.Context, q dto.MovementListQuery) (*dto.MovementListResponse, error) {
	filter, err := movementFilterOf(q)
	if err != nil {
		return nil, err
	}
	q.DefaultPage()
	filter.PageSize = q.Limit + 1

	items := make([]dto.MovementDTO, 0, q.Limit)
	skipped, hasMore := 0, false
	for m, err := range uc.ledger.ListMovements(ctx, filter) {
		if err != nil {
			return nil, err
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		if len(items) == q.Limit {
			hasMore = true
			break
		}
		items = append(items, toMovementDTO(*m))
	}
	if err := uc.embed(ctx, items, parseInclude(q.Include)); err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Data: items,
		Meta: dto.PageResponse{Limit: q.Limit, Offset: q.Offset, HasMore: hasMore},
	}, nil
}

// embed completa producto y bodegas con una sola lectura del catálogo por tipo.
func (uc *MovementUseCase) embed(ctx context.Context, items []dto.MovementDTO, include map[string]bool) error {
	if len(items) == 0 {
		return nil
	}
	if include[IncludeProduct] {
		idx, err := uc.catalog.ProductIndex(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].Product = toProductDTO(idx[items[i].ProductID])
		}
	}
	if include[IncludeWarehouse] {
		idx, err := uc.catalog.WarehouseIndex(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].Warehouse = toWarehouseDTO(idx[items[i].WarehouseID])
			if id := items[i].DestinationWarehouseID; id != "" {
				items[i].DestinationWarehouse = toWarehouseDTO(idx[id])
			}
		}
	}
	return nil
}

// parseInclude interpreta "product,warehouse". Valores desconocidos se ignoran.
func parseInclude(raw string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out[p] = true
		}
	}
	return out
}

func movementFilterOf(q dto.MovementListQuery) (repository.MovementFilter, error) {
	var bag domain.ValidationBag
	f := repository.MovementFilter{
		ProductID:     q.ProductID,
		WarehouseID:   q.WarehouseID,
		BatchNumber:   q.BatchNumber,
		ReferenceType: q.ReferenceType,
		ReferenceID:   q.ReferenceID,
	}
	if q.MovementType != "" {
		mt, ok := entity.ParseMovementType(strings.ToUpper(strings.TrimSpace(q.MovementType)))
		if !ok {
			bag.Add("movement_type", domain.ErrInvalidInput, "debe ser IN, OUT, TRANSFER o ADJUSTMENT")
		}
		f.Type = mt
	}
	var err error
	if f.From, err = parseTimeParam(q.From, false); err != nil {
		bag.Add("from", domain.ErrInvalidInput, "fecha inválida (RFC3339 o YYYY-MM-DD)")
	}
	if f.To, err = parseTimeParam(q.To, true); err != nil {
		bag.Add("to", domain.ErrInvalidInput, "fecha inválida (RFC3339 o YYYY-MM-DD)")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		bag.Add("to", domain.ErrInvalidInput, "to debe ser posterior a from")
	}
	desc, ok := parseSort(q.Sort)
	if !ok {
		bag.Add("sort", domain.ErrInvalidInput, "usar id|asc, id|desc, created_at|asc o created_at|desc")
	}
	f.Descending = desc
	return f, bag.OrNil()
}

// parseSort interpreta el orden del listado. Formas aceptadas: "campo|dirección" (id|desc),
// "campo:dirección", "-campo", el campo solo o la dirección sola. Los campos id y created_at
// ordenan igual: por orden de confirmación.
func parseSort(raw string) (descending, ok bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "asc":
		return false, true
	case "desc":
		return true, true
	}
	field, dir := s, "asc"
	if strings.HasPrefix(s, "-") {
		field, dir = s[1:], "desc"
	} else if i := strings.IndexAny(s, "|:"); i >= 0 {
		field, dir = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	if field != "id" && field != "created_at" {
		return false, false
	}
	switch dir {
	case "asc":
		return false, true
	case "desc":
		return true, true
	}
	return false, false
}

// parseTimeParam acepta RFC3339 o fecha simple; con endOfDay una fecha simple cubre el día completo.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// Level devuelve el nivel de una llave; batch nil agrega todos los lotes.
func (uc *MovementUseCase) Level(ctx context.Context, productID, warehouseID string, batch *string) (*dto.StockLevelDTO, error) {
	var bag domain.ValidationBag
	if strings.TrimSpace(productID) == "" {
		bag.Add("product_id", domain.ErrInvalidInput, "product_id es requerido")
	}
	if strings.TrimSpace(warehouseID) == "" {
		bag.Add("warehouse_id", domain.ErrInvalidInput, "warehouse_id es requerido")
	}
	if err := bag.OrNil(); err != nil {
		return nil, err
	}
	lvl, err := uc.ledger.GetLevel(ctx, productID, warehouseID, batch)
	if err != nil {
		return nil, err
	}
	out := toStockLevelDTO(lvl)
	return &out, nil
}

// WarehouseStock niveles por lote de una bodega existente.
func (uc *MovementUseCase) WarehouseStock(ctx context.Context, warehouseID, productID string) (*dto.StockLevelListResponse, error) {
	if _, err := uc.catalog.Warehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	rows, err := uc.ledger.ListLevels(ctx, repository.LevelFilter{WarehouseID: warehouseID, ProductID: productID})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockLevelDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toStockLevelDTO(*r))
	}
	return &dto.StockLevelListResponse{Data: out}, nil
}
