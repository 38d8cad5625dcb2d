package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

type testEnv struct {
	catalog  *memCatalog
	ledger   *Ledger
	carts    *fakeCarts
	orders   *fakeOrders
	notifier *fakeNotifier
	svc      *Service
}

func newTestEnv(products ...*models.Product) *testEnv {
	catalog := newMemCatalog(products...)
	ledger := NewLedger(catalog)
	carts := newFakeCarts()
	orderStore := newFakeOrders()
	notifier := newFakeNotifier()
	svc := NewService(catalog, ledger, carts, orderStore, fakeUsers{}, notifier, testPricingConfig())
	return &testEnv{
		catalog:  catalog,
		ledger:   ledger,
		carts:    carts,
		orders:   orderStore,
		notifier: notifier,
		svc:      svc,
	}
}

func (e *testEnv) setCart(userID string, items ...models.CartItem) {
	e.carts.mu.Lock()
	defer e.carts.mu.Unlock()
	e.carts.items[userID] = items
}

func (e *testEnv) cartLen(userID string) int {
	e.carts.mu.Lock()
	defer e.carts.mu.Unlock()
	return len(e.carts.items[userID])
}

func (e *testEnv) orderCount() int {
	e.orders.mu.Lock()
	defer e.orders.mu.Unlock()
	return len(e.orders.byRef)
}

func (e *testEnv) seedOrder(o *models.Order) {
	_ = e.orders.Insert(context.Background(), o)
}

// Scénario de référence : panier [P1 × 2 à 100€], stock 5, seuil 500€, TVA 5%
func TestCreateOrderScenarioA(t *testing.T) {
	p1 := testProduct("Lampe design", 5)
	env := newTestEnv(p1)
	env.setCart("user-1", models.CartItem{ProductID: p1.ID.String(), Quantity: 2})

	order, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          "user-1",
		ShippingAddress: models.Address{City: "Lyon", Country: "France"},
		PaymentMethod:   "card",
	})

	require.NoError(t, err)
	assert.Equal(t, 200.0, order.Subtotal)
	assert.Equal(t, 50.0, order.ShippingFee, "sous le seuil de livraison offerte")
	assert.Equal(t, 10.0, order.Tax)
	assert.Equal(t, 260.0, order.TotalPrice)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.Payment.Status)
	assert.True(t, ValidOrderRef(order.OrderRef), order.OrderRef)

	// Lignes figées au moment de la commande
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Lampe design", order.Items[0].Name)
	assert.Equal(t, 100.0, order.Items[0].Price)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 3, env.catalog.stockOf(p1.ID), "stock réservé")
	assert.Equal(t, 0, env.cartLen("user-1"), "panier vidé")

	persisted, err := env.orders.GetByRef(context.Background(), order.OrderRef)
	require.NoError(t, err)
	assert.Equal(t, "user-1", persisted.UserID)
	require.Len(t, persisted.Tracking, 1)
	assert.Equal(t, models.OrderPending, persisted.Tracking[0].Status)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, env.orderCount())
}

// Scénario B : stock insuffisant → rien ne bouge
func TestCreateOrderScenarioBInsufficientStock(t *testing.T) {
	p2 := testProduct("Fauteuil", 2)
	env := newTestEnv(p2)
	env.setCart("user-1", models.CartItem{ProductID: p2.ID.String(), Quantity: 3})

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Fauteuil", insufficient.ProductName)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 3, insufficient.Requested)

	assert.Equal(t, 2, env.catalog.stockOf(p2.ID), "stock inchangé")
	assert.Equal(t, 0, env.orderCount(), "aucune commande créée")
	assert.Equal(t, 1, env.cartLen("user-1"), "panier inchangé")
}

func TestCreateOrderProductNotFound(t *testing.T) {
	env := newTestEnv()
	env.setCart("user-1", models.CartItem{ProductID: "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", Quantity: 1})

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 0, env.orderCount())
}

// Atomicité : si la deuxième ligne échoue, la réservation de la première est rendue
func TestCreateOrderRollsBackEarlierReservations(t *testing.T) {
	ok := testProduct("Lampe", 10)
	short := testProduct("Tapis", 1)
	env := newTestEnv(ok, short)
	env.setCart("user-1",
		models.CartItem{ProductID: ok.ID.String(), Quantity: 4},
		models.CartItem{ProductID: short.ID.String(), Quantity: 2},
	)

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, env.catalog.stockOf(ok.ID), "réservation compensée")
	assert.Equal(t, 1, env.catalog.stockOf(short.ID))
	assert.Equal(t, 0, env.orderCount())
	assert.Equal(t, 2, env.cartLen("user-1"))
}

func TestCreateOrderRollsBackOnPersistenceFailure(t *testing.T) {
	p := testProduct("Lampe", 5)
	env := newTestEnv(p)
	env.setCart("user-1", models.CartItem{ProductID: p.ID.String(), Quantity: 2})
	env.orders.insertErr = errors.New("keyspace indisponible")

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	require.Error(t, err)
	assert.Equal(t, 5, env.catalog.stockOf(p.ID), "réservations rendues")
	assert.Equal(t, 1, env.cartLen("user-1"))
}

func TestCreateOrderRollsBackOnCartClearFailure(t *testing.T) {
	p := testProduct("Lampe", 5)
	env := newTestEnv(p)
	env.setCart("user-1", models.CartItem{ProductID: p.ID.String(), Quantity: 2})
	env.carts.clearErr = errors.New("redis indisponible")

	_, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	require.Error(t, err)
	assert.Equal(t, 0, env.orderCount(), "commande supprimée au rollback")
	assert.Equal(t, 5, env.catalog.stockOf(p.ID))
}

func TestCreateOrderAppliesCouponDiscount(t *testing.T) {
	p := testProduct("Lampe", 5)
	env := newTestEnv(p)
	env.setCart("user-1", models.CartItem{ProductID: p.ID.String(), Quantity: 2})
	env.svc.WithCouponResolver(func(_ context.Context, code string, subtotal float64) (float64, error) {
		assert.Equal(t, "BIENVENUE30", code)
		assert.Equal(t, 200.0, subtotal)
		return 30, nil
	})

	order, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:     "user-1",
		CouponCode: "BIENVENUE30",
	})

	require.NoError(t, err)
	assert.Equal(t, 30.0, order.Discount)
	assert.Equal(t, 230.0, order.TotalPrice)
	assert.InDelta(t, order.Subtotal+order.ShippingFee+order.Tax-order.Discount, order.TotalPrice, 0.01)
}

// Un SMTP en panne ne doit jamais faire échouer une création de commande
func TestCreateOrderSurvivesNotificationFailure(t *testing.T) {
	p := testProduct("Lampe", 5)
	env := newTestEnv(p)
	env.setCart("user-1", models.CartItem{ProductID: p.ID.String(), Quantity: 1})
	env.notifier.sendErr = errors.New("SMTP injoignable")

	order, err := env.svc.CreateOrder(context.Background(), CreateOrderInput{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)

	select {
	case <-env.notifier.done:
		// la notification a bien été tentée, son échec est resté interne
	case <-time.After(2 * time.Second):
		t.Fatal("notification jamais tentée")
	}

	_, err = env.orders.GetByRef(context.Background(), order.OrderRef)
	assert.NoError(t, err)
}

func seedConfirmedOrder(env *testEnv, ref, userID string, items ...models.OrderItem) *models.Order {
	o := &models.Order{
		OrderRef:  ref,
		UserID:    userID,
		Items:     items,
		Status:    models.OrderConfirmed,
		CreatedAt: time.Now(),
		Tracking: []models.TrackingEntry{
			{Status: models.OrderPending, CreatedAt: time.Now().Add(-time.Hour)},
			{Status: models.OrderConfirmed, CreatedAt: time.Now().Add(-30 * time.Minute)},
		},
	}
	env.seedOrder(o)
	return o
}

// Scénario D : annulation d'une commande confirmée à deux lignes
func TestCancelScenarioD(t *testing.T) {
	p1 := testProduct("Lampe", 3)
	p2 := testProduct("Tapis", 4)
	env := newTestEnv(p1, p2)
	seedConfirmedOrder(env, "VLR-260901120000-AAAA", "user-1",
		models.OrderItem{ProductID: p1.ID, Name: "Lampe", Price: 50, Quantity: 2},
		models.OrderItem{ProductID: p2.ID, Name: "Tapis", Price: 80, Quantity: 1},
	)

	order, err := env.svc.Cancel(context.Background(), "VLR-260901120000-AAAA", "user-1", "changement d'avis")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, "changement d'avis", order.CancelReason)
	require.NotNil(t, order.CancelledAt)

	assert.Equal(t, 5, env.catalog.stockOf(p1.ID))
	assert.Equal(t, 5, env.catalog.stockOf(p2.ID))

	// L'historique gagne exactement une ligne, avec la raison
	require.Len(t, order.Tracking, 3)
	last := order.Tracking[2]
	assert.Equal(t, models.OrderCancelled, last.Status)
	assert.Contains(t, last.Message, "changement d'avis")
}

// Scénario C : une commande expédiée n'est pas annulable par le client
func TestCancelScenarioCShippedNotCancellable(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	o := seedConfirmedOrder(env, "VLR-260901120000-BBBB", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})
	o.Status = models.OrderShipped
	_ = env.orders.Update(context.Background(), o)

	_, err := env.svc.Cancel(context.Background(), "VLR-260901120000-BBBB", "user-1", "trop tard")

	var notCancellable *NotCancellableError
	require.ErrorAs(t, err, &notCancellable)
	assert.Equal(t, models.OrderShipped, notCancellable.Status)

	fresh, _ := env.orders.GetByRef(context.Background(), "VLR-260901120000-BBBB")
	assert.Equal(t, models.OrderShipped, fresh.Status, "statut intact")
	assert.Equal(t, 3, env.catalog.stockOf(p.ID), "stock intact")
}

func TestCancelUnknownOrForeignOrder(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Cancel(context.Background(), "VLR-260901120000-CCCC", "user-1", "test")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	p := testProduct("Lampe", 3)
	env = newTestEnv(p)
	seedConfirmedOrder(env, "VLR-260901120000-DDDD", "user-2",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})

	// La commande d'un autre utilisateur est invisible, pas "interdite"
	_, err = env.svc.Cancel(context.Background(), "VLR-260901120000-DDDD", "user-1", "test")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// Deux annulations concurrentes : une seule restitution de stock
func TestCancelIsIdempotentUnderRace(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	seedConfirmedOrder(env, "VLR-260901120000-EEEE", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 2})

	_, err := env.svc.Cancel(context.Background(), "VLR-260901120000-EEEE", "user-1", "premier")
	require.NoError(t, err)
	assert.Equal(t, 5, env.catalog.stockOf(p.ID))

	// Seconde annulation : le statut est déjà cancelled, le stock ne bouge plus
	order, err := env.svc.Cancel(context.Background(), "VLR-260901120000-EEEE", "user-1", "second")
	if err == nil {
		assert.Equal(t, models.OrderCancelled, order.Status)
	} else {
		var notCancellable *NotCancellableError
		assert.ErrorAs(t, err, &notCancellable)
	}
	assert.Equal(t, 5, env.catalog.stockOf(p.ID), "jamais restitué deux fois")
}

// Scénario E : shipped → delivered pose delivered_at à l'heure de l'appel
func TestTransitionStatusDelivered(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	o := seedConfirmedOrder(env, "VLR-260901120000-FFFF", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})
	o.Status = models.OrderShipped
	_ = env.orders.Update(context.Background(), o)

	at := time.Date(2026, 9, 1, 16, 45, 0, 0, time.UTC)
	env.svc.now = func() time.Time { return at }

	order, err := env.svc.TransitionStatus(context.Background(), "VLR-260901120000-FFFF",
		models.OrderDelivered, "Remis en main propre")

	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, order.Status)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, at, *order.DeliveredAt)

	last := order.Tracking[len(order.Tracking)-1]
	assert.Equal(t, models.OrderDelivered, last.Status)
	assert.Equal(t, "Remis en main propre", last.Message)
	assert.Equal(t, at, last.CreatedAt)
}

func TestTransitionStatusIllegalLeavesOrderUntouched(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	seedConfirmedOrder(env, "VLR-260901120000-GGGG", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})

	_, err := env.svc.TransitionStatus(context.Background(), "VLR-260901120000-GGGG",
		models.OrderDelivered, "")

	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, models.OrderConfirmed, illegal.From)

	fresh, _ := env.orders.GetByRef(context.Background(), "VLR-260901120000-GGGG")
	assert.Equal(t, models.OrderConfirmed, fresh.Status)
	assert.Len(t, fresh.Tracking, 2)
}

// L'admin peut annuler après expédition, et le stock revient quand même
func TestAdminCancelFromShippedRestoresStock(t *testing.T) {
	p := testProduct("Lampe", 1)
	env := newTestEnv(p)
	o := seedConfirmedOrder(env, "VLR-260901120000-HHHH", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 2})
	o.Status = models.OrderShipped
	_ = env.orders.Update(context.Background(), o)

	order, err := env.svc.TransitionStatus(context.Background(), "VLR-260901120000-HHHH",
		models.OrderCancelled, "Colis perdu par le transporteur")

	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)
	assert.Equal(t, 3, env.catalog.stockOf(p.ID))
	require.NotNil(t, order.CancelledAt)
}

func TestMarkPaidConfirmsOrder(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	o := seedConfirmedOrder(env, "VLR-260901120000-IIII", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})
	o.Status = models.OrderPending
	o.Tracking = o.Tracking[:1]
	_ = env.orders.Update(context.Background(), o)

	order, err := env.svc.MarkPaid(context.Background(), "VLR-260901120000-IIII", "pi_123")

	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, order.Status)
	assert.Equal(t, models.PaymentPaid, order.Payment.Status)
	assert.Equal(t, "pi_123", order.Payment.IntentID)
	require.NotNil(t, order.Payment.PaidAt)
}

// Relivraison du webhook Stripe : le deuxième MarkPaid est un no-op
func TestMarkPaidIsIdempotent(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	o := seedConfirmedOrder(env, "VLR-260901120000-KKKK", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})
	o.Status = models.OrderPending
	o.Tracking = o.Tracking[:1]
	_ = env.orders.Update(context.Background(), o)

	first, err := env.svc.MarkPaid(context.Background(), "VLR-260901120000-KKKK", "pi_123")
	require.NoError(t, err)

	second, err := env.svc.MarkPaid(context.Background(), "VLR-260901120000-KKKK", "pi_123")

	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, second.Status)
	assert.Equal(t, first.Payment.IntentID, second.Payment.IntentID)
	assert.Len(t, second.Tracking, len(first.Tracking), "pas de doublon de suivi")
}

func TestRefundFromDelivered(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	o := seedConfirmedOrder(env, "VLR-260901120000-JJJJ", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})
	o.Status = models.OrderDelivered
	o.TotalPrice = 102.5
	_ = env.orders.Update(context.Background(), o)

	order, err := env.svc.Refund(context.Background(), "VLR-260901120000-JJJJ", 0, "")

	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, order.Status)
	assert.Equal(t, 102.5, order.RefundAmount, "montant par défaut = total")
	assert.Equal(t, models.PaymentRefunded, order.Payment.Status)
}

func TestListOrdersPagination(t *testing.T) {
	env := newTestEnv()
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		env.seedOrder(&models.Order{
			OrderRef:  NewOrderRef(base.Add(time.Duration(i) * time.Minute)),
			UserID:    "user-1",
			Status:    models.OrderPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	env.seedOrder(&models.Order{
		OrderRef:  NewOrderRef(base.Add(time.Hour)),
		UserID:    "user-2",
		Status:    models.OrderPending,
		CreatedAt: base.Add(time.Hour),
	})

	page, pagination, err := env.svc.ListOrders(context.Background(), "user-1", 2, 2)

	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 5, pagination.Total, "les commandes des autres sont exclues")
	assert.Equal(t, 3, pagination.TotalPages)
	// Tri antichronologique : la page 2 porte les 3e et 4e plus récentes
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))
}

func TestGetOrderScopedToOwner(t *testing.T) {
	p := testProduct("Lampe", 3)
	env := newTestEnv(p)
	seedConfirmedOrder(env, "VLR-260901120000-KKKK", "user-1",
		models.OrderItem{ProductID: p.ID, Name: "Lampe", Price: 50, Quantity: 1})

	_, err := env.svc.GetOrder(context.Background(), "VLR-260901120000-KKKK", "user-2")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Accès admin : pas de filtre propriétaire
	order, err := env.svc.GetOrder(context.Background(), "VLR-260901120000-KKKK", "")
	require.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
}
