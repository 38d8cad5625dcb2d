package payment

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// POST /api/payment/webhook
// Seul Stripe appelle cet endpoint ; la signature fait office d'authentification
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body illisible"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"),
		os.Getenv("STRIPE_WEBHOOK_SECRET"))
	if err != nil {
		log.Println("❌ Signature webhook Stripe invalide:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payload invalide"})
			return
		}

		orderRef := intent.Metadata["order_ref"]
		if orderRef == "" {
			log.Printf("⚠️ PaymentIntent %s sans order_ref, ignoré", intent.ID)
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if _, err := orderService.MarkPaid(ctx, orderRef, intent.ID); err != nil {
			// 500 pour que Stripe retente la livraison du webhook
			log.Printf("❌ Confirmation paiement %s impossible: %v", orderRef, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur confirmation paiement"})
			return
		}
		log.Printf("✅ Paiement confirmé pour la commande %s", orderRef)

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err == nil {
			log.Printf("⚠️ Paiement échoué pour la commande %s (intent %s)",
				intent.Metadata["order_ref"], intent.ID)
		}

	default:
		// Événement non géré, on acquitte quand même
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
