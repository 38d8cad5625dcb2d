package user

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// GET /api/orders/:ref/invoice
// La facture n'existe qu'une fois la commande payée
func DownloadInvoice(c *gin.Context) {
	userID := c.GetString("user_id")
	orderRef := c.Param("ref")

	order, err := orderService.GetOrder(c.Request.Context(), orderRef, userID)
	if err != nil {
		orderError(c, err)
		return
	}

	if order.Payment.Status != models.PaymentPaid && order.Payment.Status != models.PaymentRefunded {
		c.JSON(http.StatusConflict, gin.H{"error": "Facture disponible après paiement"})
		return
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}
	qr, err := utils.GenerateOrderQR(frontend + "/orders/" + order.OrderRef)
	if err != nil {
		qr = "" // la facture part sans QR plutôt que pas du tout
	}

	pdf, err := utils.RenderInvoicePDF(*order, qr)
	if err != nil {
		log.Printf("❌ Erreur génération facture %s: %v", orderRef, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération facture"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="facture-`+order.OrderRef+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
