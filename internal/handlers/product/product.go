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
	"velora_back_end/internal/services"
)

func parseProductID(c *gin.Context) (gocql.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return gocql.UUID{}, false
	}
	return gocql.UUID(id), true
}

func scanProduct(session *gocql.Session, productID gocql.UUID) (*models.Product, error) {
	var p models.Product
	p.ID = productID
	err := session.Query(`SELECT name, description, price, stock, low_stock_threshold, sku,
		category_id, image_urls, tags, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, productID).Scan(
		&p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold, &p.SKU,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// productView ajoute le statut de stock dérivé à la réponse
func productView(p models.Product) gin.H {
	return gin.H{
		"id":                  p.ID,
		"name":                p.Name,
		"description":         p.Description,
		"price":               p.Price,
		"stock":               p.Stock,
		"low_stock_threshold": p.LowStockThreshold,
		"sku":                 p.SKU,
		"category_id":         p.CategoryID,
		"image_urls":          p.ImageURLs,
		"tags":                p.Tags,
		"is_active":           p.IsActive,
		"stock_status":        p.StockStatus(),
		"available":           p.Available(),
		"created_at":          p.CreatedAt,
		"updated_at":          p.UpdatedAt,
	}
}

// GET /api/products
func GetProducts(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, description, price, stock, low_stock_threshold,
		sku, category_id, image_urls, tags, is_active, created_at, updated_at FROM products`).Iter()

	var products []gin.H
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold,
		&p.SKU, &p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt) {
		if !p.IsActive {
			continue // le catalogue public ne montre que les produits actifs
		}
		products = append(products, productView(p))
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		log.Println("❌ Erreur lecture produits:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GET /api/products/:id
func GetProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	p, err := scanProduct(session, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, productView(*p))
}

// POST /api/admin/products
func CreateProduct(c *gin.Context) {
	var input struct {
		Name              string   `json:"name" binding:"required"`
		Description       string   `json:"description"`
		Price             float64  `json:"price" binding:"required,gt=0"`
		Stock             int      `json:"stock" binding:"gte=0"`
		LowStockThreshold int      `json:"low_stock_threshold"`
		SKU               string   `json:"sku"`
		CategoryID        string   `json:"category_id"`
		ImageURLs         []string `json:"image_urls"`
		Tags              []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	var categoryID gocql.UUID
	if input.CategoryID != "" {
		parsed, err := uuid.Parse(input.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID catégorie invalide"})
			return
		}
		categoryID = gocql.UUID(parsed)
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	now := time.Now()
	p := models.Product{
		ID:                gocql.TimeUUID(),
		Name:              input.Name,
		Description:       input.Description,
		Price:             input.Price,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
		SKU:               input.SKU,
		CategoryID:        categoryID,
		ImageURLs:         input.ImageURLs,
		Tags:              input.Tags,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := session.Query(`INSERT INTO products
		(product_id, name, description, price, stock, low_stock_threshold, sku,
		 category_id, image_urls, tags, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.LowStockThreshold, p.SKU,
		p.CategoryID, p.ImageURLs, p.Tags, p.IsActive, p.CreatedAt, p.UpdatedAt).Exec(); err != nil {
		log.Println("❌ Erreur création produit:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit"})
		return
	}

	// Indexation pour la recherche, best-effort
	go services.IndexProduct(p)

	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.ID)
	c.JSON(http.StatusCreated, productView(p))
}

// PUT /api/admin/products/:id
// Le stock n'est pas modifiable ici : il passe exclusivement par les
// endpoints d'inventaire
func UpdateProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var input struct {
		Name              *string  `json:"name"`
		Description       *string  `json:"description"`
		Price             *float64 `json:"price"`
		LowStockThreshold *int     `json:"low_stock_threshold"`
		SKU               *string  `json:"sku"`
		Tags              []string `json:"tags"`
		IsActive          *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	p, err := scanProduct(session, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prix invalide"})
			return
		}
		p.Price = *input.Price
	}
	if input.LowStockThreshold != nil {
		p.LowStockThreshold = *input.LowStockThreshold
	}
	if input.SKU != nil {
		p.SKU = *input.SKU
	}
	if input.Tags != nil {
		p.Tags = input.Tags
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = time.Now()

	if err := session.Query(`UPDATE products SET name = ?, description = ?, price = ?,
		low_stock_threshold = ?, sku = ?, tags = ?, is_active = ?, updated_at = ?
		WHERE product_id = ?`,
		p.Name, p.Description, p.Price, p.LowStockThreshold, p.SKU, p.Tags,
		p.IsActive, p.UpdatedAt, productID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	if p.IsActive {
		go services.IndexProduct(*p)
	} else {
		go services.RemoveProductFromIndex(p.ID.String())
	}

	c.JSON(http.StatusOK, productView(*p))
}

// DELETE /api/admin/products/:id
// Désactivation, pas de suppression : les commandes passées y font référence
func DeleteProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(`UPDATE products SET is_active = ?, updated_at = ? WHERE product_id = ?`,
		false, time.Now(), productID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression produit"})
		return
	}

	go services.RemoveProductFromIndex(productID.String())

	log.Printf("✅ Produit désactivé: %s", productID)
	c.JSON(http.StatusOK, gin.H{"message": "Produit désactivé"})
}
