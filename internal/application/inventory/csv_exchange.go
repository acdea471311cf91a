package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// RowIssue error o advertencia atada a una fila del archivo (1 = primera fila de datos).
type RowIssue struct {
	Row     int
	Field   string
	Message string
}

// ImportResult resultado de una importación. Las filas se procesan de forma independiente.
type ImportResult struct {
	ImportedCount int
	Errors        []RowIssue
	Warnings      []RowIssue
}

// ExportFile contenido CSV listo para descargar.
type ExportFile struct {
	Content  string
	Filename string
}

// Columnas reconocidas en la importación.
const (
	colProductID   = "product_id"
	colWarehouseID = "warehouse_id"
	colQuantity    = "quantity"
	colType        = "movement_type"
	colBatch       = "batch_number"
	colUnitCost    = "unit_cost"
	colNotes       = "notes"
	colDestination = "destination_warehouse_id"
	colReference   = "reference_id"
)

var knownColumns = map[string]bool{
	colProductID: true, colWarehouseID: true, colQuantity: true, colType: true, colBatch: true,
	colUnitCost: true, colNotes: true, colDestination: true, colReference: true,
}

// ReferenceCSVImport tipo de referencia de los movimientos creados por importación.
const ReferenceCSVImport = "csv_import"

// CSVExchange cliente por lotes del ledger: importa filas como movimientos y exporta niveles e historial.
type CSVExchange struct {
	ledger  *StockLedger
	catalog *Catalog
	log     *logger.Logger
	now     func() time.Time
}

// NewCSVExchange construye el importador/exportador.
func NewCSVExchange(ledger *StockLedger, catalog *Catalog, log *logger.Logger) *CSVExchange {
	return &CSVExchange{
		ledger:  ledger,
		catalog: catalog,
		log:     log.Component("csv_exchange"),
		now:     time.Now,
	}
}

func normalizeHeader(fold cases.Caser, h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	h = fold.String(h)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// Import confirma cada fila con CommitMovement. Una fila inválida queda en Errors y no aborta
// las demás. Solo un encabezado inválido o ilegible devuelve error.
func (x *CSVExchange) Import(ctx context.Context, r io.Reader, createdBy string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.FieldError{Field: "file", Message: "el archivo está vacío", Err: domain.ErrInvalidInput}
	}
	if err != nil {
		return nil, &domain.FieldError{Field: "file", Message: "CSV inválido: " + err.Error(), Err: domain.ErrInvalidInput}
	}

	res := &ImportResult{Errors: []RowIssue{}, Warnings: []RowIssue{}}
	// Caser no es seguro entre goroutines: uno por importación.
	fold := cases.Fold()
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(fold, h)
		if !knownColumns[name] {
			res.Warnings = append(res.Warnings, RowIssue{Row: 0, Field: h, Message: "columna desconocida, se ignora"})
			continue
		}
		cols[name] = i
	}
	var missing []string
	for _, c := range []string{colProductID, colWarehouseID, colQuantity} {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.FieldError{Field: "file", Message: "faltan columnas: " + strings.Join(missing, ", "), Err: domain.ErrInvalidInput}
	}

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, RowIssue{Row: row, Message: err.Error()})
			continue
		}
		get := func(col string) string {
			if i, ok := cols[col]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		if isBlank(record) {
			res.Warnings = append(res.Warnings, RowIssue{Row: row, Message: "fila vacía, se omite"})
			continue
		}
		cmd, issues := x.rowCommand(get, createdBy)
		if len(issues) > 0 {
			for _, is := range issues {
				is.Row = row
				res.Errors = append(res.Errors, is)
			}
			continue
		}
		if _, err := x.ledger.CommitMovement(ctx, cmd); err != nil {
			res.Errors = append(res.Errors, issuesOf(row, err)...)
			continue
		}
		res.ImportedCount++
	}
	x.log.Info().Int("imported", res.ImportedCount).Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).Msg("importación CSV terminada")
	return res, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (x *CSVExchange) rowCommand(get func(string) string, createdBy string) (MovementCommand, []RowIssue) {
	var issues []RowIssue
	qty, err := decimal.NewFromString(get(colQuantity))
	if err != nil {
		issues = append(issues, RowIssue{Field: colQuantity, Message: "cantidad no numérica"})
	}
	var unitCost *decimal.Decimal
	if raw := get(colUnitCost); raw != "" {
		c, err := decimal.NewFromString(raw)
		if err != nil {
			issues = append(issues, RowIssue{Field: colUnitCost, Message: "costo no numérico"})
		} else {
			unitCost = &c
		}
	}
	mt := get(colType)
	if mt == "" {
		mt = string(entity.MovementTypeIN)
	}
	kind, err := NewMovementKind(mt, qty, get(colDestination))
	if err != nil {
		issues = append(issues, RowIssue{Field: colType, Message: err.Error()})
	}
	if len(issues) > 0 {
		return MovementCommand{}, issues
	}
	return MovementCommand{
		ProductID:     get(colProductID),
		WarehouseID:   get(colWarehouseID),
		BatchNumber:   get(colBatch),
		Kind:          kind,
		UnitCost:      unitCost,
		ReferenceType: ReferenceCSVImport,
		ReferenceID:   get(colReference),
		Notes:         get(colNotes),
		CreatedBy:     createdBy,
	}, nil
}

func issuesOf(row int, err error) []RowIssue {
	fields := domain.FieldsOf(err)
	if len(fields) == 0 {
		return []RowIssue{{Row: row, Message: err.Error()}}
	}
	out := make([]RowIssue, 0, len(fields))
	for _, name := range domain.FieldNames(err) {
		for _, msg := range fields[name] {
			out = append(out, RowIssue{Row: row, Field: name, Message: msg})
		}
	}
	return out
}

// ExportInventory exporta los niveles por lote con datos de catálogo.
func (x *CSVExchange) ExportInventory(ctx context.Context, filter repository.LevelFilter) (*ExportFile, error) {
	levels, err := x.ledger.ListLevels(ctx, filter)
	if err != nil {
		return nil, err
	}
	products, err := x.catalog.ProductIndex(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := x.catalog.WarehouseIndex(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"product_id", "sku", "product_name", "warehouse_id", "warehouse_code", "batch_number",
		"current_quantity", "reserved_quantity", "available_quantity", "updated_at"})
	for _, l := range levels {
		var sku, name, code string
		if p := products[l.ProductID]; p != nil {
			sku, name = p.SKU, p.Name
		}
		if wh := warehouses[l.WarehouseID]; wh != nil {
			code = wh.Code
		}
		_ = w.Write([]string{l.ProductID, sku, name, l.WarehouseID, code, l.BatchNumber,
			l.CurrentQuantity.String(), l.ReservedQuantity.String(), l.AvailableQuantity().String(),
			formatTime(l.UpdatedAt)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return &ExportFile{Content: buf.String(), Filename: x.filename("inventory")}, nil
}

// ExportMovements exporta el historial filtrado en orden de confirmación.
func (x *CSVExchange) ExportMovements(ctx context.Context, filter repository.MovementFilter) (*ExportFile, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "seq", "created_at", "movement_type", "product_id", "warehouse_id",
		"destination_warehouse_id", "batch_number", "quantity", "unit_cost", "reference_type", "reference_id",
		"notes", "created_by"})
	for m, err := range x.ledger.ListMovements(ctx, filter) {
		if err != nil {
			return nil, err
		}
		cost := ""
		if m.UnitCost != nil {
			cost = m.UnitCost.String()
		}
		_ = w.Write([]string{m.ID, strconv.FormatInt(m.Seq, 10), formatTime(m.CreatedAt), string(m.Type),
			m.ProductID, m.WarehouseID, m.DestinationWarehouseID, m.BatchNumber, m.Quantity.String(), cost,
			m.ReferenceType, m.ReferenceID, m.Notes, m.CreatedBy})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return &ExportFile{Content: buf.String(), Filename: x.filename("movements")}, nil
}

func (x *CSVExchange) filename(kind string) string {
	return kind + "_" + x.now().UTC().Format("20060102_150405") + ".csv"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
