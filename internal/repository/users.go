package repository

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
)

// ScyllaUsers implémente orders.UserStore : juste l'email pour les notifications
type ScyllaUsers struct{}

func NewScyllaUsers() *ScyllaUsers {
	return &ScyllaUsers{}
}

func (r *ScyllaUsers) GetUserEmail(ctx context.Context, userID string) (string, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return "", err
	}

	var email string
	err = session.Query(`SELECT email FROM users WHERE user_id = ?`, userID).
		WithContext(ctx).Scan(&email)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return email, nil
}
