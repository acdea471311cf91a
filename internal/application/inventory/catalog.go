package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Catalog lectura de productos y bodegas (propiedad de otro sistema). El ledger nunca adivina una bodega.
type Catalog struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
}

// NewCatalog construye el lector de catálogo.
func NewCatalog(products repository.ProductRepository, warehouses repository.WarehouseRepository) *Catalog {
	return &Catalog{products: products, warehouses: warehouses}
}

func (c *Catalog) requireProduct(ctx context.Context, id string) (*entity.Product, error) {
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, &domain.FieldError{Field: "product_id", Message: "producto no encontrado", Err: domain.ErrNotFound}
	}
	return p, nil
}

func (c *Catalog) requireWarehouse(ctx context.Context, field, id string) (*entity.Warehouse, error) {
	w, err := c.warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	if w == nil {
		return nil, &domain.FieldError{Field: field, Message: "bodega no encontrada", Err: domain.ErrNotFound}
	}
	return w, nil
}

// ProductIndex productos del catálogo por ID.
func (c *Catalog) ProductIndex(ctx context.Context) (map[string]*entity.Product, error) {
	list, err := c.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	idx := make(map[string]*entity.Product, len(list))
	for _, p := range list {
		idx[p.ID] = p
	}
	return idx, nil
}

// WarehouseIndex bodegas del catálogo por ID.
func (c *Catalog) WarehouseIndex(ctx context.Context) (map[string]*entity.Warehouse, error) {
	list, err := c.warehouses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	idx := make(map[string]*entity.Warehouse, len(list))
	for _, w := range list {
		idx[w.ID] = w
	}
	return idx, nil
}

// Products catálogo completo de productos.
func (c *Catalog) Products(ctx context.Context) ([]*entity.Product, error) {
	return c.products.List(ctx)
}

// Warehouses catálogo completo de bodegas.
func (c *Catalog) Warehouses(ctx context.Context) ([]*entity.Warehouse, error) {
	return c.warehouses.List(ctx)
}

// Product devuelve el producto o ErrNotFound.
func (c *Catalog) Product(ctx context.Context, id string) (*entity.Product, error) {
	return c.requireProduct(ctx, id)
}

// Warehouse devuelve la bodega o ErrNotFound.
func (c *Catalog) Warehouse(ctx context.Context, id string) (*entity.Warehouse, error) {
	return c.requireWarehouse(ctx, "warehouse_id", id)
}
