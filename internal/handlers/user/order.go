package user

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/orders"
	"velora_back_end/internal/utils"
)

var orderService *orders.Service

// InitOrderHandlers branche le service commandes construit dans main
func InitOrderHandlers(svc *orders.Service) {
	orderService = svc
}

// orderError traduit les erreurs du service commandes en réponses HTTP
func orderError(c *gin.Context, err error) {
	var insufficient *orders.InsufficientStockError
	var notCancellable *orders.NotCancellableError
	var illegal *orders.IllegalTransitionError

	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"product":   insufficient.ProductName,
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
	case errors.Is(err, orders.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.As(err, &notCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": notCancellable.Status})
	case errors.As(err, &illegal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "from": illegal.From, "to": illegal.To})
	case errors.Is(err, orders.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflit de concurrence, réessayez"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}

// POST /api/orders
func CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		AddressID     string `json:"address_id" binding:"required"`
		PaymentMethod string `json:"payment_method" binding:"required"`
		Notes         string `json:"notes"`
		CouponCode    string `json:"coupon_code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	addressID, err := uuid.Parse(input.AddressID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID adresse invalide"})
		return
	}

	address, ok := getUserAddress(c, userID, gocql.UUID(addressID))
	if !ok {
		return
	}

	order, err := orderService.CreateOrder(c.Request.Context(), orders.CreateOrderInput{
		UserID:          userID,
		ShippingAddress: *address,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		CouponCode:      input.CouponCode,
	})
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GET /api/orders?page=1&limit=20
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	list, pagination, err := orderService.ListOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list, "pagination": pagination})
}

// GET /api/orders/:ref
func GetOrderByRef(c *gin.Context) {
	userID := c.GetString("user_id")
	orderRef := c.Param("ref")

	order, err := orderService.GetOrder(c.Request.Context(), orderRef, userID)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// POST /api/orders/:ref/cancel
func CancelOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	orderRef := c.Param("ref")

	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)
	if input.Reason == "" {
		input.Reason = "Annulation à la demande du client"
	}

	order, err := orderService.Cancel(c.Request.Context(), orderRef, userID, input.Reason)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GET /api/orders/:ref/qrcode
// QR pointant vers la page de suivi publique de la commande
func OrderQRCode(c *gin.Context) {
	userID := c.GetString("user_id")
	orderRef := c.Param("ref")

	// Vérifie que la commande existe et appartient bien à l'appelant
	if _, err := orderService.GetOrder(c.Request.Context(), orderRef, userID); err != nil {
		orderError(c, err)
		return
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	png, err := utils.GenerateOrderQRPNG(frontend + "/orders/" + orderRef)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
