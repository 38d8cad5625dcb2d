package orders

import (
	"context"
	"sync"

	"github.com/gocql/gocql"

	"velora_back_end/internal/models"
)

// memCatalog implémente ProductStore et StockStore en mémoire, avec un vrai
// CAS sous mutex pour exercer les boucles du ledger sous concurrence
type memCatalog struct {
	mu        sync.Mutex
	products  map[gocql.UUID]*models.Product
	movements []models.StockMovement
}

func newMemCatalog(products ...*models.Product) *memCatalog {
	c := &memCatalog{products: make(map[gocql.UUID]*models.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (c *memCatalog) GetStock(_ context.Context, id gocql.UUID) (int, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return 0, "", ErrProductNotFound
	}
	return p.Stock, p.Name, nil
}

func (c *memCatalog) CompareAndSwapStock(_ context.Context, id gocql.UUID, expected, next int) (bool, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return false, 0, ErrProductNotFound
	}
	if p.Stock != expected {
		return false, p.Stock, nil
	}
	p.Stock = next
	return true, next, nil
}

func (c *memCatalog) RecordMovement(_ context.Context, mv models.StockMovement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movements = append(c.movements, mv)
	return nil
}

func (c *memCatalog) stockOf(id gocql.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[id].Stock
}

// conflictStockStore refuse systématiquement le CAS, pour tester l'épuisement
// des tentatives
type conflictStockStore struct {
	stock int
	name  string
}

func (c *conflictStockStore) GetStock(context.Context, gocql.UUID) (int, string, error) {
	return c.stock, c.name, nil
}

func (c *conflictStockStore) CompareAndSwapStock(context.Context, gocql.UUID, int, int) (bool, int, error) {
	return false, c.stock, nil
}

func (c *conflictStockStore) RecordMovement(context.Context, models.StockMovement) error {
	return nil
}

// fakeCarts simule le panier Redis
type fakeCarts struct {
	mu       sync.Mutex
	items    map[string][]models.CartItem
	clearErr error
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{items: make(map[string][]models.CartItem)}
}

func (f *fakeCarts) GetCart(_ context.Context, userID string) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CartItem(nil), f.items[userID]...), nil
}

func (f *fakeCarts) ClearCart(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.items, userID)
	return nil
}

// fakeOrders simule le keyspace orders, CAS d'annulation compris
type fakeOrders struct {
	mu        sync.Mutex
	byRef     map[string]*models.Order
	insertErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byRef: make(map[string]*models.Order)}
}

func (f *fakeOrders) Insert(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := cloneOrder(o)
	f.byRef[o.OrderRef] = cp
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byRef, ref)
	return nil
}

func (f *fakeOrders) GetByRef(_ context.Context, ref string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byRef[ref]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.byRef {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, nil
}

func (f *fakeOrders) Update(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byRef[o.OrderRef] = cloneOrder(o)
	return nil
}

func (f *fakeOrders) ClaimCancellation(_ context.Context, ref string, from models.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byRef[ref]
	if !ok {
		return false, ErrOrderNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = models.OrderCancelled
	return true, nil
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	cp.Tracking = append([]models.TrackingEntry(nil), o.Tracking...)
	return &cp
}

// fakeUsers retourne toujours le même email
type fakeUsers struct{}

func (fakeUsers) GetUserEmail(context.Context, string) (string, error) {
	return "client@velora-shop.com", nil
}

// fakeNotifier enregistre les envois ; sendErr simule un SMTP en panne
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
	done    chan struct{}
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{done: make(chan struct{}, 16)}
}

func (f *fakeNotifier) record(kind string) error {
	f.mu.Lock()
	f.sent = append(f.sent, kind)
	err := f.sendErr
	f.mu.Unlock()
	select {
	case f.done <- struct{}{}:
	default:
	}
	return err
}

func (f *fakeNotifier) OrderCreated(models.Order, string) error {
	return f.record("created")
}

func (f *fakeNotifier) OrderStatusChanged(models.Order, string) error {
	return f.record("status")
}

func (f *fakeNotifier) ContactMessage(models.ContactMessage) error {
	return f.record("contact")
}
