package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad del ledger: o se confirman todos los efectos o ninguno.
// Los bloqueos tomados con GetForUpdate se liberan al terminar Run.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		levelRepo repository.StockLevelRepository,
		resRepo repository.ReservationRepository,
	) error) error
}
