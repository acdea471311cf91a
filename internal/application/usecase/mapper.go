package usecase

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// toStockLevelDTO incluye el disponible calculado; UpdatedAt se omite en niveles sin historial.
func toStockLevelDTO(l entity.StockLevel) dto.StockLevelDTO {
	out := dto.StockLevelDTO{
		ProductID:         l.ProductID,
		WarehouseID:       l.WarehouseID,
		BatchNumber:       l.BatchNumber,
		CurrentQuantity:   l.CurrentQuantity,
		ReservedQuantity:  l.ReservedQuantity,
		AvailableQuantity: l.AvailableQuantity(),
	}
	if !l.UpdatedAt.IsZero() {
		t := l.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func toStockLevelDTOs(levels []entity.StockLevel) []dto.StockLevelDTO {
	out := make([]dto.StockLevelDTO, 0, len(levels))
	for _, l := range levels {
		out = append(out, toStockLevelDTO(l))
	}
	return out
}

func toMovementDTO(m entity.StockMovement) dto.MovementDTO {
	return dto.MovementDTO{
		ID:                     m.ID,
		Seq:                    m.Seq,
		ProductID:              m.ProductID,
		WarehouseID:            m.WarehouseID,
		MovementType:           string(m.Type),
		Quantity:               m.Quantity,
		DestinationWarehouseID: m.DestinationWarehouseID,
		BatchNumber:            m.BatchNumber,
		UnitCost:               m.UnitCost,
		ReferenceType:          m.ReferenceType,
		ReferenceID:            m.ReferenceID,
		Notes:                  m.Notes,
		CreatedBy:              m.CreatedBy,
		CreatedAt:              m.CreatedAt,
	}
}

func toProductDTO(p *entity.Product) *dto.ProductDTO {
	if p == nil {
		return nil
	}
	return &dto.ProductDTO{
		ID:                         p.ID,
		SKU:                        p.SKU,
		Name:                       p.Name,
		CategoryID:                 p.CategoryID,
		StockNotification:          p.StockNotification,
		StockNotificationThreshold: p.StockNotificationThreshold,
	}
}

func toWarehouseDTO(w *entity.Warehouse) *dto.WarehouseDTO {
	if w == nil {
		return nil
	}
	return &dto.WarehouseDTO{ID: w.ID, Code: w.Code, Name: w.Name, StorageCapacity: w.StorageCapacity}
}

func toReservationDTO(r entity.Reservation) dto.ReservationDTO {
	return dto.ReservationDTO{
		ID:            r.ID,
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		BatchNumber:   r.BatchNumber,
		Quantity:      r.Quantity,
		Status:        string(r.Status),
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		ExpiresAt:     r.ExpiresAt,
		MovementID:    r.MovementID,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		SettledAt:     r.SettledAt,
	}
}

func toAlertDTO(a entity.LowStockAlert) dto.LowStockAlertDTO {
	return dto.LowStockAlertDTO{
		ProductID:         a.ProductID,
		SKU:               a.SKU,
		ProductName:       a.ProductName,
		WarehouseID:       a.WarehouseID,
		WarehouseCode:     a.WarehouseCode,
		AvailableQuantity: a.AvailableQuantity,
		Threshold:         a.Threshold,
		Severity:          string(a.Severity),
	}
}
