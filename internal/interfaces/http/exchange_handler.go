package http

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// ExchangeHandler importación y exportación CSV.
type ExchangeHandler struct {
	uc *usecase.ExchangeUseCase
}

// NewExchangeHandler construye el handler.
func NewExchangeHandler(uc *usecase.ExchangeUseCase) *ExchangeHandler {
	return &ExchangeHandler{uc: uc}
}

// ExportInventory godoc
// @Summary      Exportar niveles de stock
// @Description  Responde {csv_content, filename}; download=true devuelve el archivo como adjunto.
// @Tags         inventory
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        download      query  bool    false  "Descargar como archivo"
// @Success      200  {object}  dto.ExportResponse
// @Router       /api/inventory/export/inventory [get]
func (h *ExchangeHandler) ExportInventory(c *fiber.Ctx) error {
	out, err := h.uc.ExportInventory(c.UserContext(), c.Query("product_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendExport(c, out)
}

// ExportMovements godoc
// @Summary      Exportar historial de movimientos
// @Tags         inventory
// @Produce      json
// @Param        product_id     query  string  false  "Producto"
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        movement_type  query  string  false  "Tipo"
// @Param        from           query  string  false  "Desde"
// @Param        to             query  string  false  "Hasta"
// @Param        download       query  bool    false  "Descargar como archivo"
// @Success      200  {object}  dto.ExportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/export/movements [get]
func (h *ExchangeHandler) ExportMovements(c *fiber.Ctx) error {
	out, err := h.uc.ExportMovements(c.UserContext(), movementListQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return sendExport(c, out)
}

func sendExport(c *fiber.Ctx, out *dto.ExportResponse) error {
	if c.QueryBool("download", false) {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Attachment(out.Filename)
		return c.SendString(out.CSVContent)
	}
	return c.JSON(out)
}

// Import godoc
// @Summary      Importar movimientos desde CSV
// @Description  JSON {csv_content} o multipart con campo "file". Cada fila se confirma por separado.
// @Tags         inventory
// @Accept       json,mpfd
// @Produce      json
// @Param        X-User-ID  header    string             false  "Usuario"
// @Param        body       body      dto.ImportRequest  false  "CSV en línea"
// @Param        file       formData  file               false  "Archivo CSV"
// @Success      200  {object}  dto.ImportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/import/inventory [post]
func (h *ExchangeHandler) Import(c *fiber.Ctx) error {
	var r io.Reader
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, &domain.FieldError{Field: "file", Message: "archivo requerido", Err: domain.ErrInvalidInput})
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, err)
		}
		defer f.Close()
		r = f
	} else {
		var in dto.ImportRequest
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		if strings.TrimSpace(in.CSVContent) == "" {
			return writeError(c, &domain.FieldError{Field: "csv_content", Message: "csv_content es requerido", Err: domain.ErrInvalidInput})
		}
		r = strings.NewReader(in.CSVContent)
	}
	out, err := h.uc.Import(c.UserContext(), GetUserID(c), r)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
