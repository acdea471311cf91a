package postgres

import (
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/stretchr/testify/assert"
)

func TestBuildMovementQuery_FiltrosYCursor(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q, args := buildMovementQuery(repository.MovementFilter{
		ProductID:   "p1",
		WarehouseID: "w1",
		Type:        entity.MovementTypeIN,
		From:        &from,
	}, 42, true, 100)

	assert.Contains(t, q, "product_id = $1")
	assert.Contains(t, q, "(warehouse_id = $2 OR destination_warehouse_id = $2)")
	assert.Contains(t, q, "movement_type = $3")
	assert.Contains(t, q, "created_at >= $4")
	assert.Contains(t, q, "seq > $5")
	assert.Contains(t, q, "ORDER BY seq ASC LIMIT $6")
	assert.Equal(t, []any{"p1", "w1", "IN", from, int64(42), 100}, args)
}

func TestBuildMovementQuery_DescendenteSinFiltros(t *testing.T) {
	q, args := buildMovementQuery(repository.MovementFilter{Descending: true}, 0, false, 50)
	assert.NotContains(t, q, "WHERE")
	assert.Contains(t, q, "ORDER BY seq DESC LIMIT $1")
	assert.Equal(t, []any{50}, args)

	q, _ = buildMovementQuery(repository.MovementFilter{Descending: true}, 10, true, 50)
	assert.Contains(t, q, "seq < $1")
}
