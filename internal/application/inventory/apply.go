package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// CommitResult movimiento confirmado y niveles resultantes (uno, o dos para TRANSFER).
type CommitResult struct {
	Movement entity.StockMovement
	Levels   []entity.StockLevel
}

// lockLevels bloquea las llaves (SELECT FOR UPDATE o equivalente) siempre en el mismo orden total,
// así dos traslados cruzados W1->W2 y W2->W1 no se interbloquean.
func lockLevels(ctx context.Context, levelRepo repository.StockLevelRepository, keys ...entity.LevelKey) (map[entity.LevelKey]*entity.StockLevel, error) {
	uniq := make([]entity.LevelKey, 0, len(keys))
	seen := make(map[entity.LevelKey]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Less(uniq[j]) })

	locked := make(map[entity.LevelKey]*entity.StockLevel, len(uniq))
	for _, k := range uniq {
		lvl, err := levelRepo.GetForUpdate(ctx, k)
		if err != nil {
			return nil, err
		}
		locked[k] = lvl
	}
	return locked, nil
}

// applyMovement valida los efectos del movimiento contra el último estado confirmado (ya bloqueado),
// actualiza los niveles y registra el movimiento. Si alguna llave viola un invariante no escribe nada.
func applyMovement(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	levelRepo repository.StockLevelRepository,
	locked map[entity.LevelKey]*entity.StockLevel,
	m *entity.StockMovement,
	now time.Time,
) ([]entity.StockLevel, error) {
	effects := m.Effects()
	next := make([]entity.StockLevel, 0, len(effects))
	for _, e := range effects {
		lvl, ok := locked[e.Key]
		if !ok {
			return nil, fmt.Errorf("nivel %s no bloqueado", e.Key)
		}
		current := lvl.CurrentQuantity.Add(e.Delta)
		if e.Delta.IsNegative() {
			if current.IsNegative() {
				return nil, stockError(lvl, e, domain.ErrInsufficientStock)
			}
			if current.LessThan(lvl.ReservedQuantity) {
				return nil, stockError(lvl, e, domain.ErrInsufficientAvailable)
			}
		}
		updated := *lvl
		updated.CurrentQuantity = current
		updated.UpdatedAt = now
		next = append(next, updated)
	}

	for i := range next {
		if err := levelRepo.Upsert(ctx, &next[i]); err != nil {
			return nil, err
		}
		*locked[next[i].LevelKey] = next[i]
	}
	if err := movRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return next, nil
}

func stockError(lvl *entity.StockLevel, e entity.LevelEffect, sentinel error) error {
	return &domain.StockError{
		ProductID:   lvl.ProductID,
		WarehouseID: lvl.WarehouseID,
		BatchNumber: lvl.BatchNumber,
		Requested:   e.Delta.Abs(),
		Current:     lvl.CurrentQuantity,
		Available:   lvl.AvailableQuantity(),
		Err:         sentinel,
	}
}
