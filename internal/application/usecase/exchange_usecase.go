package usecase

import (
	"context"
	"io"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ExchangeUseCase importación y exportación CSV.
type ExchangeUseCase struct {
	exchange *inventory.CSVExchange
}

// NewExchangeUseCase construye el caso de uso.
func NewExchangeUseCase(exchange *inventory.CSVExchange) *ExchangeUseCase {
	return &ExchangeUseCase{exchange: exchange}
}

// ExportInventory exporta niveles por lote.
func (uc *ExchangeUseCase) ExportInventory(ctx context.Context, productID, warehouseID string) (*dto.ExportResponse, error) {
	f, err := uc.exchange.ExportInventory(ctx, repository.LevelFilter{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return nil, err
	}
	return &dto.ExportResponse{CSVContent: f.Content, Filename: f.Filename}, nil
}

// ExportMovements exporta el historial con los mismos filtros del listado.
func (uc *ExchangeUseCase) ExportMovements(ctx context.Context, q dto.MovementListQuery) (*dto.ExportResponse, error) {
	filter, err := movementFilterOf(q)
	if err != nil {
		return nil, err
	}
	f, err := uc.exchange.ExportMovements(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.ExportResponse{CSVContent: f.Content, Filename: f.Filename}, nil
}

// Import procesa el CSV fila por fila; los errores por fila no abortan el resto.
func (uc *ExchangeUseCase) Import(ctx context.Context, userID string, r io.Reader) (*dto.ImportResponse, error) {
	res, err := uc.exchange.Import(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ImportResponse{
		ImportedCount: res.ImportedCount,
		Errors:        toIssueDTOs(res.Errors),
		Warnings:      toIssueDTOs(res.Warnings),
	}, nil
}

func toIssueDTOs(issues []inventory.RowIssue) []dto.ImportIssueDTO {
	out := make([]dto.ImportIssueDTO, 0, len(issues))
	for _, i := range issues {
		out = append(out, dto.ImportIssueDTO{Row: i.Row, Field: i.Field, Message: i.Message})
	}
	return out
}
