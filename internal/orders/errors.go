package orders

import (
	"errors"
	"fmt"

	"velora_back_end/internal/models"
)

var (
	// ErrEmptyCart : création de commande refusée, le panier ne contient aucun article
	ErrEmptyCart = errors.New("panier vide")

	// ErrProductNotFound : un article du panier référence un produit disparu du catalogue
	ErrProductNotFound = errors.New("produit introuvable")

	// ErrOrderNotFound : référence de commande inconnue (ou n'appartenant pas à l'utilisateur)
	ErrOrderNotFound = errors.New("commande introuvable")

	// ErrConcurrencyConflict : les tentatives CAS sur le stock sont épuisées, l'appelant peut réessayer
	ErrConcurrencyConflict = errors.New("conflit d'accès concurrent sur le stock")
)

// InsufficientStockError nomme le produit en cause et les quantités pour que
// le client puisse corriger son panier
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %q: %d disponible(s), %d demandé(s)",
		e.ProductName, e.Available, e.Requested)
}

// IllegalTransitionError : la transition demandée n'existe pas dans le graphe des statuts
type IllegalTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("transition de statut interdite: %s → %s", e.From, e.To)
}

// NotCancellableError : annulation client refusée en dehors de pending/confirmed
type NotCancellableError struct {
	Status models.OrderStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("commande non annulable au statut %q", e.Status)
}
