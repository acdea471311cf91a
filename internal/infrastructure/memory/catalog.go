package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
)

// AddProduct registra o reemplaza un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// AddWarehouse registra o reemplaza una bodega del catálogo.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = &w
}

// Seed catálogo inicial en JSON para el modo memoria.
type Seed struct {
	Products []struct {
		ID                         string           `json:"id"`
		SKU                        string           `json:"sku"`
		Name                       string           `json:"name"`
		CategoryID                 string           `json:"category_id"`
		StockNotification          bool             `json:"stock_notification"`
		StockNotificationThreshold *decimal.Decimal `json:"stock_notification_threshold"`
	} `json:"products"`
	Warehouses []struct {
		ID              string           `json:"id"`
		Code            string           `json:"code"`
		Name            string           `json:"name"`
		StorageCapacity *decimal.Decimal `json:"storage_capacity"`
	} `json:"warehouses"`
}

// LoadSeedFile carga productos y bodegas desde un archivo JSON.
func (s *Store) LoadSeedFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("leer seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	for _, p := range seed.Products {
		s.AddProduct(entity.Product{
			ID:                         p.ID,
			SKU:                        p.SKU,
			Name:                       p.Name,
			CategoryID:                 p.CategoryID,
			StockNotification:          p.StockNotification,
			StockNotificationThreshold: p.StockNotificationThreshold,
		})
	}
	for _, w := range seed.Warehouses {
		s.AddWarehouse(entity.Warehouse{ID: w.ID, Code: w.Code, Name: w.Name, StorageCapacity: w.StorageCapacity})
	}
	return nil
}

// ProductRepo catálogo de productos en memoria.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.products[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r *ProductRepo) List(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.RLock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		c := *p
		out = append(out, &c)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WarehouseRepo catálogo de bodegas en memoria.
type WarehouseRepo struct{ s *Store }

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if w, ok := r.s.warehouses[id]; ok {
		c := *w
		return &c, nil
	}
	return nil, nil
}

func (r *WarehouseRepo) List(_ context.Context) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	out := make([]*entity.Warehouse, 0, len(r.s.warehouses))
	for _, w := range r.s.warehouses {
		c := *w
		out = append(out, &c)
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
