package orders

import (
	"time"

	"velora_back_end/internal/models"
)

// transitions est le graphe des statuts autorisés.
// cancelled et refunded sont terminaux : les commandes ne sont jamais
// supprimées, elles restent consultables pour l'audit.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:   {models.OrderDelivered, models.OrderCancelled},
	models.OrderDelivered: {models.OrderRefunded},
	models.OrderCancelled: {},
	models.OrderRefunded:  {},
}

// CanTransition indique si le passage from → to existe dans le graphe
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CustomerCancellable restreint l'annulation côté client à pending/confirmed.
// Le graphe général autorise aussi cancelled depuis preparing/shipped, mais
// c'est une capacité réservée aux admins — la dissymétrie est volontaire.
func CustomerCancellable(status models.OrderStatus) bool {
	return status == models.OrderPending || status == models.OrderConfirmed
}

// ApplyTransition fait passer la commande au statut demandé, ajoute la ligne
// de suivi et pose les horodatages dérivés. En cas de transition interdite la
// commande n'est pas touchée.
func ApplyTransition(o *models.Order, to models.OrderStatus, message string, at time.Time) error {
	if !CanTransition(o.Status, to) {
		return &IllegalTransitionError{From: o.Status, To: to}
	}

	o.Status = to
	o.Tracking = append(o.Tracking, models.TrackingEntry{
		Status:    to,
		Message:   message,
		CreatedAt: at,
	})

	switch to {
	case models.OrderDelivered:
		t := at
		o.DeliveredAt = &t
	case models.OrderCancelled:
		t := at
		o.CancelledAt = &t
	}

	o.UpdatedAt = at
	return nil
}
