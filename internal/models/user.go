package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // "customer" ou "admin"
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
