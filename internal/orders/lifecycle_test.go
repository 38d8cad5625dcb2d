package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

var allStatuses = []models.OrderStatus{
	models.OrderPending, models.OrderConfirmed, models.OrderPreparing,
	models.OrderShipped, models.OrderDelivered, models.OrderCancelled,
	models.OrderRefunded,
}

func TestCanTransitionTable(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
		models.OrderConfirmed: {models.OrderPreparing, models.OrderCancelled},
		models.OrderPreparing: {models.OrderShipped, models.OrderCancelled},
		models.OrderShipped:   {models.OrderDelivered, models.OrderCancelled},
		models.OrderDelivered: {models.OrderRefunded},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s → %s", from, to)
		}
	}
}

// Toute paire hors table échoue avec IllegalTransition et laisse la commande intacte
func TestApplyTransitionRejectsIllegalPairsUnchanged(t *testing.T) {
	at := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				continue
			}

			o := &models.Order{
				Status: from,
				Tracking: []models.TrackingEntry{
					{Status: from, CreatedAt: at.Add(-time.Hour)},
				},
			}

			err := ApplyTransition(o, to, "test", at)

			var illegal *IllegalTransitionError
			require.ErrorAs(t, err, &illegal, "%s → %s", from, to)
			assert.Equal(t, from, illegal.From)
			assert.Equal(t, to, illegal.To)
			assert.Equal(t, from, o.Status, "statut intact après refus")
			assert.Len(t, o.Tracking, 1, "historique intact après refus")
		}
	}
}

func TestApplyTransitionAppendsTracking(t *testing.T) {
	at := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	o := &models.Order{Status: models.OrderPending}

	err := ApplyTransition(o, models.OrderConfirmed, "Paiement confirmé", at)

	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, o.Status)
	require.Len(t, o.Tracking, 1)
	assert.Equal(t, models.OrderConfirmed, o.Tracking[0].Status)
	assert.Equal(t, "Paiement confirmé", o.Tracking[0].Message)
	assert.Equal(t, at, o.Tracking[0].CreatedAt)
	assert.Nil(t, o.DeliveredAt)
	assert.Nil(t, o.CancelledAt)
}

// Scénario E : shipped → delivered pose delivered_at à l'heure de l'appel
func TestApplyTransitionDeliveredSetsTimestamp(t *testing.T) {
	at := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	o := &models.Order{Status: models.OrderShipped}

	err := ApplyTransition(o, models.OrderDelivered, "", at)

	require.NoError(t, err)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, at, *o.DeliveredAt)
	require.Len(t, o.Tracking, 1)
	assert.Equal(t, models.OrderDelivered, o.Tracking[0].Status)
}

func TestApplyTransitionCancelledSetsTimestamp(t *testing.T) {
	at := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	o := &models.Order{Status: models.OrderPending}

	err := ApplyTransition(o, models.OrderCancelled, "changement d'avis", at)

	require.NoError(t, err)
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, at, *o.CancelledAt)
}

func TestCustomerCancellable(t *testing.T) {
	assert.True(t, CustomerCancellable(models.OrderPending))
	assert.True(t, CustomerCancellable(models.OrderConfirmed))
	// L'annulation depuis preparing/shipped reste réservée aux admins
	assert.False(t, CustomerCancellable(models.OrderPreparing))
	assert.False(t, CustomerCancellable(models.OrderShipped))
	assert.False(t, CustomerCancellable(models.OrderDelivered))
	assert.False(t, CustomerCancellable(models.OrderCancelled))
	assert.False(t, CustomerCancellable(models.OrderRefunded))
}
