package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Origen del costo usado para valorizar una línea.
const (
	CostSourceWarehouse = "warehouse" // promedio de las entradas de esa bodega
	CostSourceProduct   = "product"   // promedio del producto en todas las bodegas
)

// UncategorizedID agrupación para productos sin categoría.
const UncategorizedID = "uncategorized"

// ValuationScope alcance de TotalValue. Campos vacíos no filtran.
type ValuationScope struct {
	WarehouseID string
	CategoryID  string
}

// ValuationLine valor de un producto en una bodega (todos los lotes).
type ValuationLine struct {
	ProductID     string
	SKU           string
	ProductName   string
	CategoryID    string
	WarehouseID   string
	WarehouseCode string
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal // nil: sin entradas con costo
	Value         decimal.Decimal
	CostSource    string
}

// ValuationGroup subtotal por bodega o por categoría.
type ValuationGroup struct {
	ID       string
	Label    string
	Quantity decimal.Decimal
	Value    decimal.Decimal
	Items    int
}

// Valuation resultado de TotalValue.
type Valuation struct {
	TotalValue    decimal.Decimal
	TotalQuantity decimal.Decimal
	ByWarehouse   []ValuationGroup
	ByCategory    []ValuationGroup
	Lines         []ValuationLine
	UnvaluedItems int // líneas con cantidad pero sin costo conocido
}

// ValuationEngine agregador de lectura: costo promedio ponderado y valor total desde el historial.
type ValuationEngine struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	levels     repository.StockLevelRepository
	movements  repository.StockMovementRepository
}

// NewValuationEngine construye el motor de valorización.
func NewValuationEngine(
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
) *ValuationEngine {
	return &ValuationEngine{products: products, warehouses: warehouses, levels: levels, movements: movements}
}

// costBook acumuladores de costo por producto+bodega y por producto.
type costBook struct {
	byPair    map[pairKey]*inventory.WeightedAverage
	byProduct map[string]*inventory.WeightedAverage
}

func (b costBook) add(m *entity.StockMovement) {
	pk := pairKey{m.ProductID, m.WarehouseID}
	if b.byPair[pk] == nil {
		b.byPair[pk] = &inventory.WeightedAverage{}
	}
	b.byPair[pk].Add(m.Quantity, m.UnitCost)
}

// rollUp arma el promedio por producto sumando los acumuladores de cada bodega.
func (b costBook) rollUp() {
	for pk, w := range b.byPair {
		if !w.CostedQuantity().IsPositive() {
			continue
		}
		if b.byProduct[pk.productID] == nil {
			b.byProduct[pk.productID] = &inventory.WeightedAverage{}
		}
		b.byProduct[pk.productID].Merge(*w)
	}
}

// loadCosts recorre las entradas IN con costo. Las entradas revertidas no cuentan: su cantidad ya salió
// del ledger por la reversión.
func (e *ValuationEngine) loadCosts(ctx context.Context, productID, warehouseID string) (costBook, error) {
	reversed := make(map[string]bool)
	for m, err := range e.movements.List(ctx, repository.MovementFilter{
		ProductID:     productID,
		ReferenceType: entity.ReferenceMovementReversal,
	}) {
		if err != nil {
			return costBook{}, fmt.Errorf("valuation: reversiones: %w", err)
		}
		reversed[m.ReferenceID] = true
	}

	book := costBook{
		byPair:    make(map[pairKey]*inventory.WeightedAverage),
		byProduct: make(map[string]*inventory.WeightedAverage),
	}
	for m, err := range e.movements.List(ctx, repository.MovementFilter{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        entity.MovementTypeIN,
	}) {
		if err != nil {
			return costBook{}, fmt.Errorf("valuation: entradas: %w", err)
		}
		if m.UnitCost == nil || reversed[m.ID] || m.IsReversal() {
			continue
		}
		book.add(m)
	}
	book.rollUp()
	return book, nil
}

// WeightedAverageCost Σ(cantidad × costo) / Σ(cantidad) sobre las entradas con costo del producto
// (y de la bodega si se indica). nil cuando ninguna entrada tiene costo.
// Las entradas revertidas (DELETE /stock_movements/:id) no entran en el promedio.
func (e *ValuationEngine) WeightedAverageCost(ctx context.Context, productID, warehouseID string) (*decimal.Decimal, error) {
	if _, err := loadProducts(ctx, e.products, productID); err != nil {
		return nil, err
	}
	if warehouseID != "" {
		if _, err := loadWarehouses(ctx, e.warehouses, warehouseID); err != nil {
			return nil, err
		}
	}
	book, err := e.loadCosts(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if w := book.byProduct[productID]; w != nil {
		return w.Cost(), nil
	}
	return nil, nil
}

// TotalValue cantidad actual × costo promedio sumado sobre el alcance. Cada línea usa el promedio de su
// bodega y, si esa bodega no tiene entradas con costo, el promedio del producto.
func (e *ValuationEngine) TotalValue(ctx context.Context, scope ValuationScope) (*Valuation, error) {
	var (
		products   []*entity.Product
		warehouses []*entity.Warehouse
		levels     []*entity.StockLevel
		book       costBook
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = loadProducts(gctx, e.products, "")
		return err
	})
	g.Go(func() error {
		var err error
		warehouses, err = loadWarehouses(gctx, e.warehouses, scope.WarehouseID)
		return err
	})
	g.Go(func() error {
		var err error
		levels, err = e.levels.List(gctx, repository.LevelFilter{WarehouseID: scope.WarehouseID})
		if err != nil {
			return fmt.Errorf("valuation: niveles: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		book, err = e.loadCosts(gctx, "", "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	productIdx := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		productIdx[p.ID] = p
	}
	warehouseIdx := make(map[string]*entity.Warehouse, len(warehouses))
	for _, w := range warehouses {
		warehouseIdx[w.ID] = w
	}

	quantities := make(map[pairKey]decimal.Decimal)
	for _, l := range levels {
		k := pairKey{l.ProductID, l.WarehouseID}
		quantities[k] = quantities[k].Add(l.CurrentQuantity)
	}

	out := &Valuation{TotalValue: decimal.Zero, TotalQuantity: decimal.Zero, Lines: []ValuationLine{}}
	byWarehouse := make(map[string]*ValuationGroup)
	byCategory := make(map[string]*ValuationGroup)

	for k, qty := range quantities {
		if qty.IsZero() {
			continue
		}
		p := productIdx[k.productID]
		category := UncategorizedID
		line := ValuationLine{ProductID: k.productID, WarehouseID: k.warehouseID, Quantity: qty, Value: decimal.Zero}
		if p != nil {
			line.SKU, line.ProductName = p.SKU, p.Name
			if p.CategoryID != "" {
				category = p.CategoryID
			}
		}
		line.CategoryID = category
		if scope.CategoryID != "" && category != scope.CategoryID {
			continue
		}
		if w := warehouseIdx[k.warehouseID]; w != nil {
			line.WarehouseCode = w.Code
		}

		if w := book.byPair[k]; w != nil && w.Cost() != nil {
			line.UnitCost, line.CostSource = w.Cost(), CostSourceWarehouse
		} else if w := book.byProduct[k.productID]; w != nil && w.Cost() != nil {
			line.UnitCost, line.CostSource = w.Cost(), CostSourceProduct
		}
		if line.UnitCost != nil {
			line.Value = qty.Mul(*line.UnitCost)
		} else {
			out.UnvaluedItems++
		}

		out.Lines = append(out.Lines, line)
		out.TotalQuantity = out.TotalQuantity.Add(qty)
		out.TotalValue = out.TotalValue.Add(line.Value)
		addToGroup(byWarehouse, k.warehouseID, line.WarehouseCode, line)
		addToGroup(byCategory, category, category, line)
	}

	sort.Slice(out.Lines, func(i, j int) bool {
		a, b := out.Lines[i], out.Lines[j]
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.WarehouseID < b.WarehouseID
	})
	out.ByWarehouse = sortedGroups(byWarehouse)
	out.ByCategory = sortedGroups(byCategory)
	return out, nil
}

func addToGroup(groups map[string]*ValuationGroup, id, label string, line ValuationLine) {
	g := groups[id]
	if g == nil {
		if label == "" {
			label = id
		}
		g = &ValuationGroup{ID: id, Label: label, Quantity: decimal.Zero, Value: decimal.Zero}
		groups[id] = g
	}
	g.Quantity = g.Quantity.Add(line.Quantity)
	g.Value = g.Value.Add(line.Value)
	g.Items++
}

func sortedGroups(groups map[string]*ValuationGroup) []ValuationGroup {
	out := make([]ValuationGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
