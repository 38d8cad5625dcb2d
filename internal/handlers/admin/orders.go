package admin

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
	"velora_back_end/internal/repository"
)

var (
	orderService *orders.Service
	orderRepo    *repository.ScyllaOrders
)

func InitOrderHandlers(svc *orders.Service, repo *repository.ScyllaOrders) {
	orderService = svc
	orderRepo = repo
}

func orderError(c *gin.Context, err error) {
	var notCancellable *orders.NotCancellableError
	var illegal *orders.IllegalTransitionError

	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	case errors.As(err, &notCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &illegal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "from": illegal.From, "to": illegal.To})
	case errors.Is(err, orders.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflit de concurrence, réessayez"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}

// GET /api/admin/orders?status=pending&page=1&limit=20
func ListOrders(c *gin.Context) {
	all, err := orderRepo.ListAll(c.Request.Context())
	if err != nil {
		orderError(c, err)
		return
	}

	if status := c.Query("status"); status != "" {
		filtered := all[:0]
		for _, o := range all {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		all = filtered
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": all[start:end],
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
		},
	})
}

// GET /api/admin/orders/:ref
func GetOrder(c *gin.Context) {
	// userID vide = accès admin, pas de contrôle de propriété
	order, err := orderService.GetOrder(c.Request.Context(), c.Param("ref"), "")
	if err != nil {
		orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PUT /api/admin/orders/:ref/status
func UpdateOrderStatus(c *gin.Context) {
	var input struct {
		Status  string `json:"status" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := orderService.TransitionStatus(c.Request.Context(), c.Param("ref"),
		models.OrderStatus(input.Status), input.Message)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// PUT /api/admin/orders/:ref/notes
func SetOrderNotes(c *gin.Context) {
	var input struct {
		Notes string `json:"notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := orderService.SetAdminNotes(c.Request.Context(), c.Param("ref"), input.Notes)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// POST /api/admin/orders/:ref/refund
func RefundOrder(c *gin.Context) {
	var input struct {
		Amount  float64 `json:"amount"`
		Message string  `json:"message"`
	}
	_ = c.ShouldBindJSON(&input)

	order, err := orderService.Refund(c.Request.Context(), c.Param("ref"), input.Amount, input.Message)
	if err != nil {
		orderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GET /api/admin/orders/stats
// Agrégats simples pour le tableau de bord : volumes par statut, chiffre
// d'affaires encaissé, panier moyen
func OrderStats(c *gin.Context) {
	all, err := orderRepo.ListAll(c.Request.Context())
	if err != nil {
		orderError(c, err)
		return
	}

	byStatus := map[string]int{}
	var revenue, refunded float64
	var paidCount int
	for _, o := range all {
		byStatus[string(o.Status)]++
		if o.Payment.Status == models.PaymentPaid {
			revenue += o.TotalPrice
			paidCount++
		}
		if o.Status == models.OrderRefunded {
			refunded += o.RefundAmount
		}
	}

	avgOrder := 0.0
	if paidCount > 0 {
		avgOrder = revenue / float64(paidCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_orders":    len(all),
		"by_status":       byStatus,
		"revenue":         revenue,
		"refunded_amount": refunded,
		"average_order":   avgOrder,
	})
}
