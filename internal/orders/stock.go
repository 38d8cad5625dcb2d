package orders

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/models"
)

// StockStore est la surface minimale dont le ledger a besoin.
// L'implémentation ScyllaDB s'appuie sur les LWT (UPDATE ... IF stock = ?),
// les tests utilisent une version en mémoire.
type StockStore interface {
	// GetStock retourne le stock courant et le nom du produit,
	// ou ErrProductNotFound
	GetStock(ctx context.Context, productID gocql.UUID) (stock int, name string, err error)

	// CompareAndSwapStock passe le stock de expected à next de façon atomique.
	// applied=false avec current = valeur observée si un autre appel est passé avant.
	CompareAndSwapStock(ctx context.Context, productID gocql.UUID, expected, next int) (applied bool, current int, err error)

	// RecordMovement trace l'opération dans le ledger append-only
	RecordMovement(ctx context.Context, mv models.StockMovement) error
}

// Ledger est le seul chemin autorisé pour faire varier le stock d'un produit.
// Chaque opération est un CAS avec un nombre borné de tentatives : deux
// réservations simultanées sur un stock de 1 donnent exactement un succès
// et un échec InsufficientStock, jamais deux succès.
type Ledger struct {
	store      StockStore
	maxRetries int
	now        func() time.Time
}

const defaultMaxRetries = 5

func NewLedger(store StockStore) *Ledger {
	return &Ledger{store: store, maxRetries: defaultMaxRetries, now: time.Now}
}

// Reserve décrémente le stock de qty en vue d'une commande.
// Échoue avec InsufficientStockError si le stock observé est insuffisant,
// avec ErrConcurrencyConflict si les tentatives CAS sont épuisées.
func (l *Ledger) Reserve(ctx context.Context, productID gocql.UUID, qty int, orderRef string) error {
	for attempt := 0; attempt < l.maxRetries; attempt++ {
		stock, name, err := l.store.GetStock(ctx, productID)
		if err != nil {
			return err
		}

		if stock < qty {
			return &InsufficientStockError{ProductName: name, Available: stock, Requested: qty}
		}

		applied, _, err := l.store.CompareAndSwapStock(ctx, productID, stock, stock-qty)
		if err != nil {
			return err
		}
		if applied {
			l.record(ctx, productID, "reserved", qty, stock, stock-qty, orderRef)
			return nil
		}
		// Un autre appel a modifié le stock entre-temps, on relit et on retente
	}
	return ErrConcurrencyConflict
}

// Restore ré-incrémente le stock de qty (annulation ou rollback de création)
func (l *Ledger) Restore(ctx context.Context, productID gocql.UUID, qty int, orderRef string) error {
	for attempt := 0; attempt < l.maxRetries; attempt++ {
		stock, _, err := l.store.GetStock(ctx, productID)
		if err != nil {
			return err
		}

		applied, _, err := l.store.CompareAndSwapStock(ctx, productID, stock, stock+qty)
		if err != nil {
			return err
		}
		if applied {
			l.record(ctx, productID, "return", qty, stock, stock+qty, orderRef)
			return nil
		}
	}
	return ErrConcurrencyConflict
}

// Adjust fixe le stock à une valeur absolue (réassort ou correction admin).
// Retourne le stock précédent. Le type de mouvement est "restock" si le stock
// monte, "adjustment" sinon.
func (l *Ledger) Adjust(ctx context.Context, productID gocql.UUID, newStock int, reason, userID string) (int, error) {
	if newStock < 0 {
		newStock = 0
	}

	for attempt := 0; attempt < l.maxRetries; attempt++ {
		stock, _, err := l.store.GetStock(ctx, productID)
		if err != nil {
			return 0, err
		}
		if stock == newStock {
			return stock, nil
		}

		applied, _, err := l.store.CompareAndSwapStock(ctx, productID, stock, newStock)
		if err != nil {
			return 0, err
		}
		if applied {
			movementType := "adjustment"
			qty := stock - newStock
			if newStock > stock {
				movementType = "restock"
				qty = newStock - stock
			}
			mv := models.StockMovement{
				ID:        gocql.TimeUUID(),
				ProductID: productID,
				Type:      movementType,
				Quantity:  qty,
				PrevStock: stock,
				NewStock:  newStock,
				Reason:    reason,
				UserID:    userID,
				CreatedAt: l.now(),
			}
			if err := l.store.RecordMovement(ctx, mv); err != nil {
				log.Printf("⚠️ Erreur enregistrement mouvement stock (%s %d sur %s): %v",
					movementType, qty, productID, err)
			}
			return stock, nil
		}
	}
	return 0, ErrConcurrencyConflict
}

// record trace le mouvement ; un échec d'écriture du ledger ne bloque jamais
// l'opération de stock déjà appliquée
func (l *Ledger) record(ctx context.Context, productID gocql.UUID, movementType string, qty, prev, next int, orderRef string) {
	mv := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      movementType,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  next,
		OrderRef:  orderRef,
		CreatedAt: l.now(),
	}
	if err := l.store.RecordMovement(ctx, mv); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock (%s %d sur %s): %v",
			movementType, qty, productID, err)
	}
}
