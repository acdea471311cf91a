package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// errorCodes orden de precedencia: el primer sentinel presente en la cadena define el código.
var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInvalidQuantity, "INVALID_QUANTITY"},
	{domain.ErrInvalidTransferTarget, "INVALID_TRANSFER_TARGET"},
	{domain.ErrInvalidInput, "VALIDATION"},
	{domain.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{domain.ErrInsufficientAvailable, "INSUFFICIENT_AVAILABLE"},
	{domain.ErrAlreadySettled, "ALREADY_SETTLED"},
	{domain.ErrImmutableLedger, "IMMUTABLE_LEDGER"},
	{domain.ErrConflict, "CONFLICT"},
	{domain.ErrNotFound, "NOT_FOUND"},
}

func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "INTERNAL"
}

// ErrorResponseOf traduce un error de dominio a status HTTP y cuerpo.
// validation 400, not_found 404, invariant/immutable 409, conflict 409 reintentable, resto 500.
func ErrorResponseOf(err error) (int, dto.ErrorResponse) {
	kind := domain.KindOf(err)
	resp := dto.ErrorResponse{
		Code:    errorCode(err),
		Message: err.Error(),
		Kind:    string(kind),
		Fields:  domain.FieldsOf(err),
	}
	var se *domain.StockError
	if errors.As(err, &se) {
		resp.Details = map[string]string{
			"product_id":   se.ProductID,
			"warehouse_id": se.WarehouseID,
			"batch_number": se.BatchNumber,
			"requested":    se.Requested.String(),
			"current":      se.Current.String(),
			"available":    se.Available.String(),
		}
	}
	switch kind {
	case domain.KindValidation:
		return fiber.StatusBadRequest, resp
	case domain.KindNotFound:
		return fiber.StatusNotFound, resp
	case domain.KindInvariant, domain.KindImmutable:
		return fiber.StatusConflict, resp
	case domain.KindConflict:
		resp.Retryable = true
		return fiber.StatusConflict, resp
	default:
		return fiber.StatusInternalServerError, resp
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, resp := ErrorResponseOf(err)
	return c.Status(status).JSON(resp)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code: "INVALID_BODY", Message: "cuerpo inválido", Kind: string(domain.KindValidation),
	})
}
