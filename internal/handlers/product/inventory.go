package product

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
)

// stockLedger est le seul chemin autorisé pour modifier un stock,
// y compris pour les opérations d'inventaire admin
var stockLedger *orders.Ledger

func InitInventoryHandlers(ledger *orders.Ledger) {
	stockLedger = ledger
}

// PUT /api/admin/products/:id/stock
func AdjustStock(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var input struct {
		Stock  int    `json:"stock" binding:"gte=0"`
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	prev, err := stockLedger.Adjust(c.Request.Context(), productID, input.Stock,
		input.Reason, c.GetString("user_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if err == orders.ErrProductNotFound {
			status = http.StatusNotFound
		} else if err == orders.ErrConcurrencyConflict {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ Stock ajusté pour %s: %d → %d (%s)", productID, prev, input.Stock, input.Reason)
	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"prev_stock": prev,
		"new_stock":  input.Stock,
	})
}

// GET /api/admin/inventory/movements?product_id=...
func GetStockMovements(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	q := `SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_ref, user_id, created_at
		FROM stock_movements`
	var iter *gocql.Iter
	if pid := c.Query("product_id"); pid != "" {
		parsed, err := uuid.Parse(pid)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
			return
		}
		iter = session.Query(q+` WHERE product_id = ?`, gocql.UUID(parsed)).Iter()
	} else {
		iter = session.Query(q).Iter()
	}

	var movements []models.StockMovement
	var mv models.StockMovement
	for iter.Scan(&mv.ID, &mv.ProductID, &mv.Type, &mv.Quantity, &mv.PrevStock,
		&mv.NewStock, &mv.Reason, &mv.OrderRef, &mv.UserID, &mv.CreatedAt) {
		movements = append(movements, mv)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture mouvements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// GET /api/admin/inventory/alerts
// Les alertes sont dérivées du stock courant, pas stockées : un produit sorti
// du rouge sort de la liste sans étape de résolution
func GetStockAlerts(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, stock, low_stock_threshold, is_active FROM products`).Iter()

	now := time.Now()
	var alerts []models.StockAlert
	var (
		pid       gocql.UUID
		name      string
		stock     int
		threshold int
		isActive  bool
	)
	for iter.Scan(&pid, &name, &stock, &threshold, &isActive) {
		if !isActive {
			continue
		}
		alertType := ""
		switch {
		case stock <= 0:
			alertType = "out_of_stock"
		case threshold > 0 && stock <= threshold:
			alertType = "low_stock"
		default:
			continue
		}
		alerts = append(alerts, models.StockAlert{
			ID:             gocql.TimeUUID(),
			ProductID:      pid,
			ProductName:    name,
			CurrentStock:   stock,
			ThresholdStock: threshold,
			AlertType:      alertType,
			CreatedAt:      now,
		})
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}
