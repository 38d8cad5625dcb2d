package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// CartTTL : un panier abandonné survit 30 jours dans Redis
const CartTTL = 30 * 24 * time.Hour

// CartKey fabrique la clé Redis du panier d'un utilisateur
func CartKey(userID string) string {
	return "cart:" + userID
}

// RedisCarts implémente orders.CartStore sur le panier Redis.
// Le panier est mono-propriétaire : aucun verrou inter-utilisateurs nécessaire.
type RedisCarts struct{}

func NewRedisCarts() *RedisCarts {
	return &RedisCarts{}
}

func (r *RedisCarts) GetCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := database.Redis.Get(ctx, CartKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.CartItem{}, nil
		}
		return nil, err
	}
	if data == "" {
		return []models.CartItem{}, nil
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *RedisCarts) ClearCart(ctx context.Context, userID string) error {
	return database.Redis.Del(ctx, CartKey(userID)).Err()
}

// SaveCart écrit le panier complet, utilisé par les handlers panier
func (r *RedisCarts) SaveCart(ctx context.Context, userID string, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return database.Redis.Set(ctx, CartKey(userID), data, CartTTL).Err()
}
