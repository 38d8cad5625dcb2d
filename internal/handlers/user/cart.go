package user

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/repository"
)

var (
	cartStore    = repository.NewRedisCarts()
	productStore = repository.NewScyllaProducts()
)

func cartTotals(items []models.CartItem) (float64, int) {
	total := 0.0
	count := 0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
		count += item.Quantity
	}
	return total, count
}

// notifyCartChange prévient les WebSockets panier connectés
func notifyCartChange(userID, event string) {
	database.Redis.Publish(context.Background(), "cart:"+userID, event)
}

// GET /api/cart
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")

	items, err := cartStore.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	total, count := cartTotals(items)
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "count": count})
}

// POST /api/cart/add
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	product, err := productStore.GetProduct(c.Request.Context(), gocql.UUID(productID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if !product.Available() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Produit indisponible"})
		return
	}

	items, err := cartStore.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	found := false
	for i := range items {
		if items[i].ProductID == input.ProductID {
			items[i].Quantity += input.Quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{
			ProductID: input.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  input.Quantity,
			ImageURL:  product.MainImage(),
		})
	}

	if err := cartStore.SaveCart(c.Request.Context(), userID, items); err != nil {
		log.Println("❌ Erreur sauvegarde panier:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	notifyCartChange(userID, "updated")

	total, count := cartTotals(items)
	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"items":   items,
		"total":   total,
		"count":   count,
	})
}

// PUT /api/cart/:productId
func UpdateCartItem(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("productId")

	var input struct {
		Quantity int `json:"quantity" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	items, err := cartStore.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	updated := items[:0]
	found := false
	for _, item := range items {
		if item.ProductID == productID {
			found = true
			if input.Quantity == 0 {
				continue // quantité zéro = retrait
			}
			item.Quantity = input.Quantity
		}
		updated = append(updated, item)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit absent du panier"})
		return
	}

	if err := cartStore.SaveCart(c.Request.Context(), userID, updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	notifyCartChange(userID, "updated")

	total, count := cartTotals(updated)
	c.JSON(http.StatusOK, gin.H{"items": updated, "total": total, "count": count})
}

// DELETE /api/cart/:productId
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("productId")

	items, err := cartStore.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	remaining := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			remaining = append(remaining, item)
		}
	}

	if err := cartStore.SaveCart(c.Request.Context(), userID, remaining); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	notifyCartChange(userID, "updated")

	total, count := cartTotals(remaining)
	c.JSON(http.StatusOK, gin.H{
		"message": "Produit supprimé du panier",
		"items":   remaining,
		"total":   total,
		"count":   count,
	})
}

// DELETE /api/cart
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := cartStore.ClearCart(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}

	notifyCartChange(userID, "cleared")

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
}
