package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// AnalyticsUseCase alertas de stock bajo y valorización.
type AnalyticsUseCase struct {
	monitor   *analytics.LowStockMonitor
	valuation *analytics.ValuationEngine
	now       func() time.Time
}

// NewAnalyticsUseCase construye el caso de uso.
func NewAnalyticsUseCase(monitor *analytics.LowStockMonitor, valuation *analytics.ValuationEngine) *AnalyticsUseCase {
	return &AnalyticsUseCase{monitor: monitor, valuation: valuation, now: time.Now}
}

// LowStock evalúa las reglas de stock bajo bajo demanda.
func (uc *AnalyticsUseCase) LowStock(ctx context.Context, productID, warehouseID string) (*dto.LowStockResponse, error) {
	alerts, err := uc.monitor.Evaluate(ctx, analytics.AlertFilter{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return nil, err
	}
	items := make([]dto.LowStockAlertDTO, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, toAlertDTO(a))
	}
	sum := analytics.Summarize(alerts)
	return &dto.LowStockResponse{
		Data: items,
		Meta: dto.LowStockMeta{
			CriticalItems:      sum.CriticalItems,
			OutOfStockItems:    sum.OutOfStock,
			TotalLowStockItems: sum.Total,
		},
	}, nil
}

// WeightedAverageCost costo promedio del producto, opcionalmente en una bodega.
func (uc *AnalyticsUseCase) WeightedAverageCost(ctx context.Context, productID, warehouseID string) (*dto.WeightedAverageCostResponse, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, &domain.FieldError{Field: "product_id", Message: "product_id es requerido", Err: domain.ErrInvalidInput}
	}
	cost, err := uc.valuation.WeightedAverageCost(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &dto.WeightedAverageCostResponse{ProductID: productID, WarehouseID: warehouseID, WeightedAverageCost: cost}, nil
}

// Valuation valor total del inventario con subtotales por bodega y categoría.
func (uc *AnalyticsUseCase) Valuation(ctx context.Context, warehouseID, categoryID string) (*dto.ValuationResponse, error) {
	v, err := uc.valuation.TotalValue(ctx, analytics.ValuationScope{WarehouseID: warehouseID, CategoryID: categoryID})
	if err != nil {
		return nil, err
	}
	out := &dto.ValuationResponse{
		TotalValue:    v.TotalValue,
		TotalQuantity: v.TotalQuantity,
		UnvaluedItems: v.UnvaluedItems,
		ByWarehouse:   toGroupDTOs(v.ByWarehouse),
		ByCategory:    toGroupDTOs(v.ByCategory),
		Items:         make([]dto.ValuationLineDTO, 0, len(v.Lines)),
		GeneratedAt:   uc.now().UTC(),
	}
	for _, l := range v.Lines {
		out.Items = append(out.Items, dto.ValuationLineDTO{
			ProductID:     l.ProductID,
			SKU:           l.SKU,
			ProductName:   l.ProductName,
			CategoryID:    l.CategoryID,
			WarehouseID:   l.WarehouseID,
			WarehouseCode: l.WarehouseCode,
			Quantity:      l.Quantity,
			UnitCost:      l.UnitCost,
			Value:         l.Value,
			CostSource:    l.CostSource,
		})
	}
	return out, nil
}

func toGroupDTOs(groups []analytics.ValuationGroup) []dto.ValuationGroupDTO {
	out := make([]dto.ValuationGroupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.ValuationGroupDTO{ID: g.ID, Label: g.Label, Quantity: g.Quantity, Value: g.Value, Items: g.Items})
	}
	return out
}
