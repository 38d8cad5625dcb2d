package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

func testProduct(name string, stock int) *models.Product {
	return &models.Product{
		ID:       gocql.TimeUUID(),
		Name:     name,
		Price:    100,
		Stock:    stock,
		IsActive: true,
	}
}

func TestReserveDecrementsStock(t *testing.T) {
	p := testProduct("Lampe", 5)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)

	err := ledger.Reserve(context.Background(), p.ID, 2, "VLR-TEST")

	require.NoError(t, err)
	assert.Equal(t, 3, catalog.stockOf(p.ID))
	require.Len(t, catalog.movements, 1)
	assert.Equal(t, "reserved", catalog.movements[0].Type)
	assert.Equal(t, 5, catalog.movements[0].PrevStock)
	assert.Equal(t, 3, catalog.movements[0].NewStock)
}

func TestReserveInsufficientStock(t *testing.T) {
	p := testProduct("Tapis", 2)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)

	err := ledger.Reserve(context.Background(), p.ID, 3, "VLR-TEST")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Tapis", insufficient.ProductName)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, 2, catalog.stockOf(p.ID), "le stock n'a pas bougé")
}

func TestReserveUnknownProduct(t *testing.T) {
	catalog := newMemCatalog()
	ledger := NewLedger(catalog)

	err := ledger.Reserve(context.Background(), gocql.TimeUUID(), 1, "VLR-TEST")

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRestoreIncrementsStock(t *testing.T) {
	p := testProduct("Chaise", 0)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)

	err := ledger.Restore(context.Background(), p.ID, 4, "VLR-TEST")

	require.NoError(t, err)
	assert.Equal(t, 4, catalog.stockOf(p.ID))
	require.Len(t, catalog.movements, 1)
	assert.Equal(t, "return", catalog.movements[0].Type)
}

func TestReserveExhaustedRetriesReturnsConflict(t *testing.T) {
	// Le CAS échoue toujours : après maxRetries tentatives on abandonne
	ledger := NewLedger(&conflictStockStore{stock: 10, name: "Bureau"})

	err := ledger.Reserve(context.Background(), gocql.TimeUUID(), 1, "VLR-TEST")

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
}

// Propriété de concurrence : M > N réservations simultanées d'une unité sur un
// stock de N donnent exactement N succès et M−N échecs InsufficientStock
func TestConcurrentReservesNeverOversell(t *testing.T) {
	const stock, attempts = 5, 20

	p := testProduct("Montre", stock)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)
	// Assez de marge pour que la contention ne consomme jamais le budget CAS
	ledger.maxRetries = 50

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve(context.Background(), p.ID, 1, "VLR-CONC")
		}()
	}
	wg.Wait()
	close(results)

	var successes, insufficient int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var ins *InsufficientStockError
			require.ErrorAs(t, err, &ins)
			insufficient++
		}
	}

	assert.Equal(t, stock, successes)
	assert.Equal(t, attempts-stock, insufficient)
	assert.Equal(t, 0, catalog.stockOf(p.ID), "jamais de stock négatif")
}

func TestAdjustRecordsRestockMovement(t *testing.T) {
	p := testProduct("Miroir", 2)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)

	prev, err := ledger.Adjust(context.Background(), p.ID, 10, "réassort fournisseur", "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 2, prev)
	assert.Equal(t, 10, catalog.stockOf(p.ID))
	require.Len(t, catalog.movements, 1)
	assert.Equal(t, "restock", catalog.movements[0].Type)
	assert.Equal(t, 8, catalog.movements[0].Quantity)
	assert.Equal(t, "réassort fournisseur", catalog.movements[0].Reason)
	assert.Equal(t, "admin-1", catalog.movements[0].UserID)
}

func TestAdjustDownwardIsAnAdjustment(t *testing.T) {
	p := testProduct("Cadre", 6)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)

	prev, err := ledger.Adjust(context.Background(), p.ID, 4, "casse en entrepôt", "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 6, prev)
	assert.Equal(t, 4, catalog.stockOf(p.ID))
	require.Len(t, catalog.movements, 1)
	assert.Equal(t, "adjustment", catalog.movements[0].Type)
	assert.Equal(t, 2, catalog.movements[0].Quantity)
}

func TestAdjustNoopWhenStockUnchanged(t *testing.T) {
	p := testProduct("Étagère", 7)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)

	prev, err := ledger.Adjust(context.Background(), p.ID, 7, "inventaire", "admin-1")

	require.NoError(t, err)
	assert.Equal(t, 7, prev)
	assert.Empty(t, catalog.movements, "aucun mouvement si rien ne change")
}

// Le stock ne devient jamais négatif, quelle que soit la séquence reserve/restore
func TestReserveRestoreSequenceKeepsStockNonNegative(t *testing.T) {
	p := testProduct("Vase", 3)
	catalog := newMemCatalog(p)
	ledger := NewLedger(catalog)
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, p.ID, 3, "VLR-A"))
	assert.Equal(t, 0, catalog.stockOf(p.ID))

	err := ledger.Reserve(ctx, p.ID, 1, "VLR-B")
	var ins *InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 0, catalog.stockOf(p.ID))

	require.NoError(t, ledger.Restore(ctx, p.ID, 3, "VLR-A"))
	assert.Equal(t, 3, catalog.stockOf(p.ID))

	require.NoError(t, ledger.Reserve(ctx, p.ID, 2, "VLR-C"))
	assert.Equal(t, 1, catalog.stockOf(p.ID))
}
