package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio del ledger de inventario.
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInvalidQuantity       = errors.New("la cantidad debe ser mayor que cero")
	ErrInvalidTransferTarget = errors.New("bodega destino inválida para el traslado")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInsufficientAvailable = errors.New("cantidad disponible insuficiente")
	ErrAlreadySettled        = errors.New("la reserva ya fue liquidada")
	ErrImmutableLedger       = errors.New("el movimiento es inmutable")
	ErrConflict              = errors.New("conflicto con el estado actual")
)

// ErrorKind clasifica un error para que el cliente decida entre "corregir datos" y "reintentar".
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindInvariant  ErrorKind = "invariant"
	KindConflict   ErrorKind = "conflict"
	KindImmutable  ErrorKind = "immutable"
	KindNotFound   ErrorKind = "not_found"
	KindInternal   ErrorKind = "internal"
)

// KindOf devuelve la categoría del error (recorre la cadena de Unwrap).
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidTransferTarget),
		errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientAvailable),
		errors.Is(err, ErrAlreadySettled):
		return KindInvariant
	case errors.Is(err, ErrImmutableLedger):
		return KindImmutable
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// FieldError error asociado a un campo de entrada.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidationBag acumula errores por campo, al estilo del ValidationBag del front-end.
// errors.Is funciona contra cualquiera de los errores acumulados.
type ValidationBag []*FieldError

// Add agrega un error para el campo indicado. Si msg es vacío se usa el texto de err.
func (b *ValidationBag) Add(field string, err error, msg string) {
	if msg == "" {
		msg = err.Error()
	}
	*b = append(*b, &FieldError{Field: field, Message: msg, Err: err})
}

func (b ValidationBag) Error() string {
	parts := make([]string, 0, len(b))
	for _, fe := range b {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

func (b ValidationBag) Unwrap() []error {
	errs := make([]error, 0, len(b))
	for _, fe := range b {
		errs = append(errs, fe)
	}
	return errs
}

// OrNil devuelve nil si la bolsa está vacía.
func (b ValidationBag) OrNil() error {
	if len(b) == 0 {
		return nil
	}
	return b
}

// FieldsOf extrae los mensajes por campo de un error (FieldError o ValidationBag).
// Devuelve nil si el error no trae información de campos.
func FieldsOf(err error) map[string][]string {
	var bag ValidationBag
	if errors.As(err, &bag) {
		out := make(map[string][]string, len(bag))
		for _, fe := range bag {
			out[fe.Field] = append(out[fe.Field], fe.Message)
		}
		return out
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return map[string][]string{fe.Field: {fe.Message}}
	}
	return nil
}

// FieldNames devuelve los campos con error ordenados (útil para logs).
func FieldNames(err error) []string {
	fields := FieldsOf(err)
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// StockError detalle de una violación de invariante de cantidades sobre una llave de stock.
type StockError struct {
	ProductID   string
	WarehouseID string
	BatchNumber string
	Requested   decimal.Decimal
	Current     decimal.Decimal
	Available   decimal.Decimal
	Err         error // ErrInsufficientStock o ErrInsufficientAvailable
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: producto %s bodega %s lote %s (solicitado %s, actual %s, disponible %s)",
		e.Err.Error(), e.ProductID, e.WarehouseID, e.BatchNumber,
		e.Requested.String(), e.Current.String(), e.Available.String())
}

func (e *StockError) Unwrap() error { return e.Err }
