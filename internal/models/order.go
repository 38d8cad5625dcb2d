package models

import (
	"time"

	"github.com/gocql/gocql"
)

// OrderStatus représente le statut d'une commande dans son cycle de vie
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// PaymentStatus représente le statut du paiement d'une commande
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Order struct {
	OrderRef        string          `json:"order_ref"` // identifiant public (VLR-...)
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	ShippingFee     float64         `json:"shipping_fee"`
	Tax             float64         `json:"tax"`
	Discount        float64         `json:"discount"`
	TotalPrice      float64         `json:"total_price"`
	Status          OrderStatus     `json:"status"`
	Payment         PaymentInfo     `json:"payment"`
	ShippingAddress Address         `json:"shipping_address"`
	Tracking        []TrackingEntry `json:"tracking"`
	Notes           string          `json:"notes,omitempty"`
	AdminNotes      string          `json:"admin_notes,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	RefundAmount    float64         `json:"refund_amount,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem est une copie figée du produit au moment de la commande.
// Les modifications ultérieures du catalogue ne touchent jamais ces champs.
type OrderItem struct {
	ProductID gocql.UUID `json:"product_id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	Quantity  int        `json:"quantity"`
	ImageURL  string     `json:"image_url,omitempty"`
}

type PaymentInfo struct {
	Method   string        `json:"method"`
	Status   PaymentStatus `json:"status"`
	IntentID string        `json:"intent_id,omitempty"`
	PaidAt   *time.Time    `json:"paid_at,omitempty"`
}

// TrackingEntry est une ligne de l'historique de suivi, jamais supprimée ni réordonnée
type TrackingEntry struct {
	Status    OrderStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	Location  string      `json:"location,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
