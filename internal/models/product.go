package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	Stock             int        `json:"stock"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	SKU               string     `json:"sku"`
	CategoryID        gocql.UUID `json:"category_id"`
	ImageURLs         []string   `json:"image_urls"`
	Tags              []string   `json:"tags"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// StockStatus est dérivé à la lecture, jamais stocké en base
// (le stock seul fait foi, mis à jour exclusivement par le Stock Ledger)
func (p Product) StockStatus() string {
	switch {
	case !p.IsActive || p.Stock <= 0:
		return "out_of_stock"
	case p.LowStockThreshold > 0 && p.Stock <= p.LowStockThreshold:
		return "low_stock"
	default:
		return "in_stock"
	}
}

// Available indique si le produit peut être ajouté à un panier
func (p Product) Available() bool {
	return p.IsActive && p.Stock > 0
}

// MainImage retourne la première image pour l'aperçu panier/commande
func (p Product) MainImage() string {
	if len(p.ImageURLs) > 0 {
		return p.ImageURLs[0]
	}
	return ""
}
