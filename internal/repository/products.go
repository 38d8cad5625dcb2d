package repository

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/orders"
)

// ScyllaProducts implémente orders.ProductStore et orders.StockStore sur le
// keyspace products. Le CAS de stock repose sur les LWT ScyllaDB
// (UPDATE ... IF stock = ?) : c'est ce qui empêche deux commandes
// simultanées de vendre la même unité.
type ScyllaProducts struct{}

func NewScyllaProducts() *ScyllaProducts {
	return &ScyllaProducts{}
}

func (r *ScyllaProducts) GetProduct(ctx context.Context, productID gocql.UUID) (*models.Product, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var p models.Product
	p.ID = productID
	err = session.Query(`SELECT name, description, price, stock, low_stock_threshold, sku,
		category_id, image_urls, tags, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, productID).WithContext(ctx).Scan(
		&p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold, &p.SKU,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, orders.ErrProductNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *ScyllaProducts) GetStock(ctx context.Context, productID gocql.UUID) (int, string, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, "", err
	}

	var stock int
	var name string
	err = session.Query(`SELECT stock, name FROM products WHERE product_id = ?`, productID).
		WithContext(ctx).Scan(&stock, &name)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return 0, "", orders.ErrProductNotFound
		}
		return 0, "", err
	}

	return stock, name, nil
}

func (r *ScyllaProducts) CompareAndSwapStock(ctx context.Context, productID gocql.UUID, expected, next int) (bool, int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return false, 0, err
	}

	// LWT : appliqué seulement si le stock vaut encore la valeur observée
	var current int
	applied, err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
		next, productID, expected).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		return false, 0, err
	}
	if applied {
		return true, next, nil
	}
	return false, current, nil
}

func (r *ScyllaProducts) RecordMovement(ctx context.Context, mv models.StockMovement) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	return session.Query(`INSERT INTO stock_movements
		(id, product_id, type, quantity, prev_stock, new_stock, reason, order_ref, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mv.ID, mv.ProductID, mv.Type, mv.Quantity, mv.PrevStock, mv.NewStock,
		mv.Reason, mv.OrderRef, mv.UserID, mv.CreatedAt).WithContext(ctx).Exec()
}
