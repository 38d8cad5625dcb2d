package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
)

// ScyllaOrders implémente orders.OrderStore sur le keyspace orders.
// Deux tables : orders (clé = order_ref) pour l'accès direct, et
// orders_by_user (partition = user_id) pour l'historique client.
// Lignes, adresse et suivi sont sérialisés en JSON dans des colonnes text.
type ScyllaOrders struct{}

func NewScyllaOrders() *ScyllaOrders {
	return &ScyllaOrders{}
}

func (r *ScyllaOrders) Insert(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, addressJSON, trackingJSON, err := marshalOrderBlobs(order)
	if err != nil {
		return err
	}

	if err := session.Query(`INSERT INTO orders
		(order_ref, user_id, items_json, subtotal, shipping_fee, tax, discount, total_price,
		 status, payment_method, payment_status, payment_intent_id, paid_at,
		 address_json, tracking_json, notes, admin_notes, cancel_reason, refund_amount,
		 delivered_at, cancelled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderRef, order.UserID, itemsJSON, order.Subtotal, order.ShippingFee,
		order.Tax, order.Discount, order.TotalPrice, string(order.Status),
		order.Payment.Method, string(order.Payment.Status), order.Payment.IntentID,
		timeOrZero(order.Payment.PaidAt), addressJSON, trackingJSON,
		order.Notes, order.AdminNotes, order.CancelReason, order.RefundAmount,
		timeOrZero(order.DeliveredAt), timeOrZero(order.CancelledAt),
		order.CreatedAt, order.UpdatedAt).WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Table dénormalisée pour l'historique client
	return session.Query(`INSERT INTO orders_by_user
		(user_id, created_at, order_ref, status, total_price)
		VALUES (?, ?, ?, ?, ?)`,
		order.UserID, order.CreatedAt, order.OrderRef, string(order.Status),
		order.TotalPrice).WithContext(ctx).Exec()
}

func (r *ScyllaOrders) Delete(ctx context.Context, orderRef string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	// On a besoin de user_id + created_at pour supprimer la ligne dénormalisée
	var userID string
	var createdAt time.Time
	err = session.Query(`SELECT user_id, created_at FROM orders WHERE order_ref = ?`, orderRef).
		WithContext(ctx).Scan(&userID, &createdAt)
	if err != nil && !errors.Is(err, gocql.ErrNotFound) {
		return err
	}

	if err := session.Query(`DELETE FROM orders WHERE order_ref = ?`, orderRef).
		WithContext(ctx).Exec(); err != nil {
		return err
	}
	if userID != "" {
		return session.Query(`DELETE FROM orders_by_user WHERE user_id = ? AND created_at = ? AND order_ref = ?`,
			userID, createdAt, orderRef).WithContext(ctx).Exec()
	}
	return nil
}

func (r *ScyllaOrders) GetByRef(ctx context.Context, orderRef string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}
	return scanOrder(ctx, session, orderRef)
}

func (r *ScyllaOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT order_ref FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(ctx).Iter()

	var refs []string
	var ref string
	for iter.Scan(&ref) {
		refs = append(refs, ref)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	result := make([]models.Order, 0, len(refs))
	for _, ref := range refs {
		order, err := scanOrder(ctx, session, ref)
		if err != nil {
			if errors.Is(err, orders.ErrOrderNotFound) {
				// Ligne dénormalisée orpheline, on l'ignore
				log.Printf("⚠️ Commande %s présente dans orders_by_user mais absente de orders", ref)
				continue
			}
			return nil, err
		}
		result = append(result, *order)
	}
	return result, nil
}

// ListAll parcourt toutes les commandes (reporting admin). Scan complet :
// acceptable tant que le back-office reste le seul appelant.
func (r *ScyllaOrders) ListAll(ctx context.Context) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT order_ref FROM orders`).WithContext(ctx).Iter()

	var refs []string
	var ref string
	for iter.Scan(&ref) {
		refs = append(refs, ref)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	result := make([]models.Order, 0, len(refs))
	for _, ref := range refs {
		order, err := scanOrder(ctx, session, ref)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, nil
}

func (r *ScyllaOrders) Update(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, addressJSON, trackingJSON, err := marshalOrderBlobs(order)
	if err != nil {
		return err
	}

	if err := session.Query(`UPDATE orders SET
		items_json = ?, subtotal = ?, shipping_fee = ?, tax = ?, discount = ?, total_price = ?,
		status = ?, payment_method = ?, payment_status = ?, payment_intent_id = ?, paid_at = ?,
		address_json = ?, tracking_json = ?, notes = ?, admin_notes = ?, cancel_reason = ?,
		refund_amount = ?, delivered_at = ?, cancelled_at = ?, updated_at = ?
		WHERE order_ref = ?`,
		itemsJSON, order.Subtotal, order.ShippingFee, order.Tax, order.Discount,
		order.TotalPrice, string(order.Status), order.Payment.Method,
		string(order.Payment.Status), order.Payment.IntentID, timeOrZero(order.Payment.PaidAt),
		addressJSON, trackingJSON, order.Notes, order.AdminNotes, order.CancelReason,
		order.RefundAmount, timeOrZero(order.DeliveredAt), timeOrZero(order.CancelledAt),
		order.UpdatedAt, order.OrderRef).WithContext(ctx).Exec(); err != nil {
		return err
	}

	return session.Query(`UPDATE orders_by_user SET status = ?, total_price = ?
		WHERE user_id = ? AND created_at = ? AND order_ref = ?`,
		string(order.Status), order.TotalPrice, order.UserID, order.CreatedAt,
		order.OrderRef).WithContext(ctx).Exec()
}

func (r *ScyllaOrders) ClaimCancellation(ctx context.Context, orderRef string, from models.OrderStatus) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	// LWT : une seule annulation concurrente gagne la réclamation
	var current string
	applied, err := session.Query(`UPDATE orders SET status = ? WHERE order_ref = ? IF status = ?`,
		string(models.OrderCancelled), orderRef, string(from)).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func scanOrder(ctx context.Context, session *gocql.Session, orderRef string) (*models.Order, error) {
	var o models.Order
	var itemsJSON, addressJSON, trackingJSON string
	var status, paymentStatus string
	var paidAt, deliveredAt, cancelledAt time.Time

	o.OrderRef = orderRef
	err := session.Query(`SELECT user_id, items_json, subtotal, shipping_fee, tax, discount,
		total_price, status, payment_method, payment_status, payment_intent_id, paid_at,
		address_json, tracking_json, notes, admin_notes, cancel_reason, refund_amount,
		delivered_at, cancelled_at, created_at, updated_at
		FROM orders WHERE order_ref = ?`, orderRef).WithContext(ctx).Scan(
		&o.UserID, &itemsJSON, &o.Subtotal, &o.ShippingFee, &o.Tax, &o.Discount,
		&o.TotalPrice, &status, &o.Payment.Method, &paymentStatus, &o.Payment.IntentID,
		&paidAt, &addressJSON, &trackingJSON, &o.Notes, &o.AdminNotes, &o.CancelReason,
		&o.RefundAmount, &deliveredAt, &cancelledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, orders.ErrOrderNotFound
		}
		return nil, err
	}

	o.Status = models.OrderStatus(status)
	o.Payment.Status = models.PaymentStatus(paymentStatus)
	o.Payment.PaidAt = timePtr(paidAt)
	o.DeliveredAt = timePtr(deliveredAt)
	o.CancelledAt = timePtr(cancelledAt)

	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return nil, err
		}
	}
	if addressJSON != "" {
		if err := json.Unmarshal([]byte(addressJSON), &o.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if trackingJSON != "" {
		if err := json.Unmarshal([]byte(trackingJSON), &o.Tracking); err != nil {
			return nil, err
		}
	}

	return &o, nil
}

func marshalOrderBlobs(order *models.Order) (items, address, tracking string, err error) {
	itemsB, err := json.Marshal(order.Items)
	if err != nil {
		return "", "", "", err
	}
	addressB, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return "", "", "", err
	}
	trackingB, err := json.Marshal(order.Tracking)
	if err != nil {
		return "", "", "", err
	}
	return string(itemsB), string(addressB), string(trackingB), nil
}

// Scylla ne stocke pas de NULL pratique pour les timestamps : zéro = absent
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
