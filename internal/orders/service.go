package orders

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/config"
	"velora_back_end/internal/models"
	"velora_back_end/internal/notify"
)

// ProductStore résout les produits du catalogue ; toute lecture croisée est
// un appel explicite, pas de chargement implicite
type ProductStore interface {
	GetProduct(ctx context.Context, productID gocql.UUID) (*models.Product, error)
}

// CartStore lit et vide le panier de l'utilisateur (stocké dans Redis)
type CartStore interface {
	GetCart(ctx context.Context, userID string) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderStore persiste l'agrégat commande dans le keyspace orders
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	// Delete n'existe que pour le rollback de création ; une commande commitée
	// n'est jamais supprimée
	Delete(ctx context.Context, orderRef string) error
	GetByRef(ctx context.Context, orderRef string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	// ClaimCancellation passe le statut à cancelled par CAS si et seulement si
	// le statut courant est encore from. Garantit qu'une seule annulation
	// concurrente restitue le stock.
	ClaimCancellation(ctx context.Context, orderRef string, from models.OrderStatus) (bool, error)
}

// UserStore ne sert qu'à retrouver l'email du client pour les notifications
type UserStore interface {
	GetUserEmail(ctx context.Context, userID string) (string, error)
}

// CouponResolver est le point d'extension remise : code + sous-total → montant.
// Nil en production tant que le moteur de coupons n'est pas branché.
type CouponResolver func(ctx context.Context, code string, subtotal float64) (float64, error)

// Service orchestre la création et le cycle de vie des commandes.
// C'est le seul endroit du code qui construit un agrégat Order.
type Service struct {
	products ProductStore
	ledger   *Ledger
	carts    CartStore
	orders   OrderStore
	users    UserStore
	notifier notify.Sender
	pricing  config.PricingConfig
	coupons  CouponResolver
	now      func() time.Time
}

func NewService(products ProductStore, ledger *Ledger, carts CartStore, orders OrderStore,
	users UserStore, notifier notify.Sender, pricing config.PricingConfig) *Service {
	return &Service{
		products: products,
		ledger:   ledger,
		carts:    carts,
		orders:   orders,
		users:    users,
		notifier: notifier,
		pricing:  pricing,
		now:      time.Now,
	}
}

// WithCouponResolver branche le moteur de remise (hook optionnel)
func (s *Service) WithCouponResolver(r CouponResolver) *Service {
	s.coupons = r
	return s
}

type CreateOrderInput struct {
	UserID          string
	ShippingAddress models.Address
	PaymentMethod   string
	Notes           string
	CouponCode      string
}

// reservation garde la trace d'une réservation appliquée, pour pouvoir la
// compenser si la transaction échoue plus loin
type reservation struct {
	productID gocql.UUID
	quantity  int
}

// CreateOrder transforme le panier de l'utilisateur en commande : tout ou rien.
// Réserve le stock article par article (CAS borné), fige les lignes, calcule
// le prix, persiste la commande en pending puis vide le panier. Le moindre
// échec déclenche la restitution de toutes les réservations déjà posées.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	// 1. Panier
	cartItems, err := s.carts.GetCart(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	orderRef := NewOrderRef(now)

	// 2-3. Réservation du stock + snapshot des lignes
	var applied []reservation
	var items []models.OrderItem

	rollback := func() {
		for _, r := range applied {
			if err := s.ledger.Restore(ctx, r.productID, r.quantity, orderRef); err != nil {
				// Grave : réservation orpheline, à réconcilier via le ledger
				log.Printf("❌ Rollback réservation impossible pour %s (qty %d): %v",
					r.productID, r.quantity, err)
			}
		}
	}

	for _, line := range cartItems {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			rollback()
			return nil, ErrProductNotFound
		}
		productID := gocql.UUID(pid)

		product, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			rollback()
			return nil, err
		}

		if err := s.ledger.Reserve(ctx, productID, line.Quantity, orderRef); err != nil {
			rollback()
			return nil, err
		}
		applied = append(applied, reservation{productID: productID, quantity: line.Quantity})

		// Copie figée : les éditions ultérieures du catalogue ne changent
		// jamais une commande passée
		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
			ImageURL:  product.MainImage(),
		})
	}

	// 4. Tarification
	pricing := ComputePricing(items, in.ShippingAddress, s.pricing)
	if in.CouponCode != "" && s.coupons != nil {
		discount, err := s.coupons(ctx, in.CouponCode, pricing.Subtotal)
		if err != nil {
			rollback()
			return nil, err
		}
		pricing = pricing.ApplyDiscount(discount)
	}

	// 5-6. Agrégat + persistance en pending
	order := &models.Order{
		OrderRef:        orderRef,
		UserID:          in.UserID,
		Items:           items,
		Subtotal:        pricing.Subtotal,
		ShippingFee:     pricing.ShippingFee,
		Tax:             pricing.Tax,
		Discount:        pricing.Discount,
		TotalPrice:      pricing.Total,
		Status:          models.OrderPending,
		Payment:         models.PaymentInfo{Method: in.PaymentMethod, Status: models.PaymentPending},
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		Tracking: []models.TrackingEntry{{
			Status:    models.OrderPending,
			Message:   "Commande créée",
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		rollback()
		return nil, err
	}

	// 7. Vider le panier ; en cas d'échec la commande n'a jamais existé
	if err := s.carts.ClearCart(ctx, in.UserID); err != nil {
		if delErr := s.orders.Delete(ctx, orderRef); delErr != nil {
			log.Printf("❌ Rollback commande %s impossible: %v", orderRef, delErr)
		}
		rollback()
		return nil, err
	}

	// 8. Notification post-commit, best-effort : ne bloque jamais la réponse
	// et n'affecte jamais le sort de la commande
	go s.notifyAsync(*order, "confirmation")

	log.Printf("✅ Commande %s créée pour %s (%.2f€, %d article(s))",
		order.OrderRef, in.UserID, order.TotalPrice, len(order.Items))
	return order, nil
}

// GetOrder retourne une commande par référence. userID vide = accès admin,
// sinon la commande doit appartenir à l'utilisateur.
func (s *Service) GetOrder(ctx context.Context, orderRef, userID string) (*models.Order, error) {
	order, err := s.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if userID != "" && order.UserID != userID {
		// On ne révèle pas l'existence des commandes des autres
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Pagination décrit la tranche retournée par ListOrders
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListOrders retourne les commandes de l'utilisateur, les plus récentes en premier
func (s *Service) ListOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	all, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return all[start:end], Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}, nil
}

// Cancel est l'annulation côté client, limitée à pending/confirmed.
// Le CAS sur le statut garantit que le stock n'est restitué qu'une seule
// fois même si deux annulations partent en même temps ; si une restitution
// échoue, celles déjà faites sont re-réservées et le statut est rétabli.
func (s *Service) Cancel(ctx context.Context, orderRef, userID, reason string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderRef, userID)
	if err != nil {
		return nil, err
	}

	if !CustomerCancellable(order.Status) {
		return nil, &NotCancellableError{Status: order.Status}
	}

	previous := order.Status
	claimed, err := s.orders.ClaimCancellation(ctx, orderRef, previous)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Le statut a bougé sous nos pieds (paiement, admin, autre annulation)
		fresh, err := s.orders.GetByRef(ctx, orderRef)
		if err != nil {
			return nil, err
		}
		if fresh.Status == models.OrderCancelled {
			return fresh, nil
		}
		return nil, &NotCancellableError{Status: fresh.Status}
	}

	// Restitution du stock, tout ou rien
	var restored []reservation
	for _, item := range order.Items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity, orderRef); err != nil {
			// Compensation : on reprend ce qu'on vient de rendre et on
			// relâche la réclamation d'annulation
			for _, r := range restored {
				if rerr := s.ledger.Reserve(ctx, r.productID, r.quantity, orderRef); rerr != nil {
					log.Printf("❌ Compensation annulation %s: re-réservation %s impossible: %v",
						orderRef, r.productID, rerr)
				}
			}
			if uerr := s.orders.Update(ctx, order); uerr != nil {
				log.Printf("❌ Restauration statut %s après annulation ratée impossible: %v", orderRef, uerr)
			}
			return nil, err
		}
		restored = append(restored, reservation{productID: item.ProductID, quantity: item.Quantity})
	}

	now := s.now()
	order.Status = previous // ApplyTransition repart du statut réclamé
	if err := ApplyTransition(order, models.OrderCancelled, "Annulée par le client: "+reason, now); err != nil {
		return nil, err
	}
	order.CancelReason = reason

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	go s.notifyAsync(*order, "statut")

	log.Printf("✅ Commande %s annulée (%s), stock restitué", orderRef, reason)
	return order, nil
}

// TransitionStatus fait avancer une commande dans le graphe des statuts
// (appelant admin). Une annulation admin depuis preparing/shipped restitue
// aussi le stock.
func (s *Service) TransitionStatus(ctx context.Context, orderRef string, to models.OrderStatus, message string) (*models.Order, error) {
	order, err := s.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	if to == models.OrderCancelled {
		return s.adminCancel(ctx, order, message)
	}

	if err := ApplyTransition(order, to, message, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	go s.notifyAsync(*order, "statut")

	log.Printf("✅ Commande %s passée au statut %s", orderRef, to)
	return order, nil
}

// adminCancel suit le même protocole CAS + restitution que l'annulation client,
// mais depuis n'importe quel statut que le graphe autorise
func (s *Service) adminCancel(ctx context.Context, order *models.Order, message string) (*models.Order, error) {
	if !CanTransition(order.Status, models.OrderCancelled) {
		return nil, &IllegalTransitionError{From: order.Status, To: models.OrderCancelled}
	}

	previous := order.Status
	claimed, err := s.orders.ClaimCancellation(ctx, order.OrderRef, previous)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrConcurrencyConflict
	}

	var restored []reservation
	for _, item := range order.Items {
		if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity, order.OrderRef); err != nil {
			for _, r := range restored {
				if rerr := s.ledger.Reserve(ctx, r.productID, r.quantity, order.OrderRef); rerr != nil {
					log.Printf("❌ Compensation annulation %s: re-réservation %s impossible: %v",
						order.OrderRef, r.productID, rerr)
				}
			}
			if uerr := s.orders.Update(ctx, order); uerr != nil {
				log.Printf("❌ Restauration statut %s après annulation ratée impossible: %v", order.OrderRef, uerr)
			}
			return nil, err
		}
		restored = append(restored, reservation{productID: item.ProductID, quantity: item.Quantity})
	}

	now := s.now()
	order.Status = previous
	if message == "" {
		message = "Annulée par l'administrateur"
	}
	if err := ApplyTransition(order, models.OrderCancelled, message, now); err != nil {
		return nil, err
	}
	order.CancelReason = message

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	go s.notifyAsync(*order, "statut")
	return order, nil
}

// MarkPaid enregistre le paiement (webhook Stripe) et confirme la commande
func (s *Service) MarkPaid(ctx context.Context, orderRef, intentID string) (*models.Order, error) {
	order, err := s.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	// Relivraison de webhook : le paiement est déjà acté
	if order.Payment.Status == models.PaymentPaid {
		return order, nil
	}

	now := s.now()
	order.Payment.Status = models.PaymentPaid
	order.Payment.IntentID = intentID
	order.Payment.PaidAt = &now

	if err := ApplyTransition(order, models.OrderConfirmed, "Paiement confirmé", now); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	go s.notifyAsync(*order, "statut")
	return order, nil
}

// Refund marque une commande livrée comme remboursée
func (s *Service) Refund(ctx context.Context, orderRef string, amount float64, message string) (*models.Order, error) {
	order, err := s.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	if amount <= 0 || amount > order.TotalPrice {
		amount = order.TotalPrice
	}

	if message == "" {
		message = "Remboursement effectué"
	}
	if err := ApplyTransition(order, models.OrderRefunded, message, s.now()); err != nil {
		return nil, err
	}
	order.RefundAmount = amount
	order.Payment.Status = models.PaymentRefunded

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	go s.notifyAsync(*order, "statut")
	return order, nil
}

// SetAdminNotes pose une note interne, sans toucher au cycle de vie
func (s *Service) SetAdminNotes(ctx context.Context, orderRef, notes string) (*models.Order, error) {
	order, err := s.orders.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	order.AdminNotes = notes
	order.UpdatedAt = s.now()

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// notifyAsync envoie l'email lié à la commande ; toute erreur est loggée,
// jamais remontée
func (s *Service) notifyAsync(order models.Order, kind string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Panique dans l'envoi de notification %s: %v", order.OrderRef, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	email, err := s.users.GetUserEmail(ctx, order.UserID)
	if err != nil || email == "" {
		log.Printf("⚠️ Email introuvable pour l'utilisateur %s, notification ignorée", order.UserID)
		return
	}

	if kind == "confirmation" {
		err = s.notifier.OrderCreated(order, email)
	} else {
		err = s.notifier.OrderStatusChanged(order, email)
	}
	if err != nil {
		log.Printf("⚠️ Erreur envoi email commande %s: %v", order.OrderRef, err)
	}
}
