// Package analytics contiene los evaluadores de lectura sobre el ledger:
// alertas de stock bajo y valorización de inventario.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// AlertFilter acota la evaluación. Campos vacíos evalúan todo el catálogo.
type AlertFilter struct {
	ProductID   string
	WarehouseID string
}

// AlertSummary contadores para la respuesta de la API.
type AlertSummary struct {
	CriticalItems int // critical + out_of_stock
	OutOfStock    int
	Total         int
}

// LowStockMonitor evaluador de reglas de stock bajo. Función pura del estado actual: no guarda alertas.
type LowStockMonitor struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	levels     repository.StockLevelRepository
}

// NewLowStockMonitor construye el monitor.
func NewLowStockMonitor(
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	levels repository.StockLevelRepository,
) *LowStockMonitor {
	return &LowStockMonitor{products: products, warehouses: warehouses, levels: levels}
}

type pairKey struct{ productID, warehouseID string }

// Evaluate calcula las alertas por (producto, bodega) para productos con notificación habilitada.
// Un par sin movimientos cuenta como disponible 0. Orden: out_of_stock, critical, low; dentro de
// cada severidad, menor disponible primero.
func (m *LowStockMonitor) Evaluate(ctx context.Context, filter AlertFilter) ([]entity.LowStockAlert, error) {
	var (
		products   []*entity.Product
		warehouses []*entity.Warehouse
		levels     []*entity.StockLevel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = loadProducts(gctx, m.products, filter.ProductID)
		return err
	})
	g.Go(func() error {
		var err error
		warehouses, err = loadWarehouses(gctx, m.warehouses, filter.WarehouseID)
		return err
	})
	g.Go(func() error {
		var err error
		levels, err = m.levels.List(gctx, repository.LevelFilter{ProductID: filter.ProductID, WarehouseID: filter.WarehouseID})
		if err != nil {
			return fmt.Errorf("low stock: niveles: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	available := make(map[pairKey]decimal.Decimal, len(levels))
	for _, l := range levels {
		k := pairKey{l.ProductID, l.WarehouseID}
		available[k] = available[k].Add(l.AvailableQuantity())
	}

	alerts := make([]entity.LowStockAlert, 0)
	for _, p := range products {
		threshold, ok := p.AlertThreshold()
		if !ok {
			continue
		}
		for _, w := range warehouses {
			avail := available[pairKey{p.ID, w.ID}]
			sev, alert := inventory.ClassifyStock(avail, threshold)
			if !alert {
				continue
			}
			alerts = append(alerts, entity.LowStockAlert{
				ProductID:         p.ID,
				SKU:               p.SKU,
				ProductName:       p.Name,
				WarehouseID:       w.ID,
				WarehouseCode:     w.Code,
				AvailableQuantity: avail,
				Threshold:         threshold,
				Severity:          sev,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if !a.AvailableQuantity.Equal(b.AvailableQuantity) {
			return a.AvailableQuantity.LessThan(b.AvailableQuantity)
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.WarehouseID < b.WarehouseID
	})
	return alerts, nil
}

// Summarize cuenta alertas por severidad.
func Summarize(alerts []entity.LowStockAlert) AlertSummary {
	s := AlertSummary{Total: len(alerts)}
	for _, a := range alerts {
		switch a.Severity {
		case entity.SeverityOutOfStock:
			s.OutOfStock++
			s.CriticalItems++
		case entity.SeverityCritical:
			s.CriticalItems++
		}
	}
	return s
}

func loadProducts(ctx context.Context, repo repository.ProductRepository, id string) ([]*entity.Product, error) {
	if id == "" {
		list, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("analytics: productos: %w", err)
		}
		return list, nil
	}
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("analytics: producto: %w", err)
	}
	if p == nil {
		return nil, &domain.FieldError{Field: "product_id", Message: "producto no encontrado", Err: domain.ErrNotFound}
	}
	return []*entity.Product{p}, nil
}

func loadWarehouses(ctx context.Context, repo repository.WarehouseRepository, id string) ([]*entity.Warehouse, error) {
	if id == "" {
		list, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("analytics: bodegas: %w", err)
		}
		return list, nil
	}
	w, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("analytics: bodega: %w", err)
	}
	if w == nil {
		return nil, &domain.FieldError{Field: "warehouse_id", Message: "bodega no encontrada", Err: domain.ErrNotFound}
	}
	return []*entity.Warehouse{w}, nil
}
