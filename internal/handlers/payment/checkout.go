package payment

import (
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
)

var orderService *orders.Service

func InitPaymentHandlers(svc *orders.Service) {
	orderService = svc
}

// POST /api/payment/intent
// Crée le PaymentIntent Stripe d'une commande pending. La référence voyage
// dans les metadata : le webhook la retrouve pour confirmer la commande.
func CreatePaymentIntent(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		OrderRef string `json:"order_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := orderService.GetOrder(c.Request.Context(), input.OrderRef, userID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	if order.Status != models.OrderPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà payée ou annulée"})
		return
	}

	amount := int64(math.Round(order.TotalPrice * 100))
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_ref", order.OrderRef)
	params.AddMetadata("user_id", userID)

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Println("❌ Erreur création PaymentIntent:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
		return
	}

	log.Printf("✅ PaymentIntent %s créé pour la commande %s (%.2f€)",
		intent.ID, order.OrderRef, order.TotalPrice)
	c.JSON(http.StatusOK, gin.H{
		"client_secret": intent.ClientSecret,
		"intent_id":     intent.ID,
		"amount":        amount,
	})
}
