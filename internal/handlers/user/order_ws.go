package user

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// TrackOrderWS pousse le statut de la commande en temps réel.
// Le client reçoit l'état courant à la connexion puis à chaque changement.
func TrackOrderWS(c *gin.Context) {
	userID := c.GetString("user_id")
	orderRef := c.Param("ref")

	order, err := orderService.GetOrder(c.Request.Context(), orderRef, userID)
	if err != nil {
		orderError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	send := func(kind string) bool {
		err := conn.WriteJSON(map[string]interface{}{
			"type":      kind,
			"order_ref": order.OrderRef,
			"status":    order.Status,
			"tracking":  order.Tracking,
		})
		return err == nil
	}

	if !send("connected") {
		return
	}

	lastStatus := order.Status
	lastTracking := len(order.Tracking)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	// Les lectures ne servent qu'à détecter la fermeture côté client
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			fresh, err := orderService.GetOrder(c.Request.Context(), orderRef, userID)
			if err != nil {
				log.Printf("⚠️ Suivi %s interrompu: %v", orderRef, err)
				return
			}
			if fresh.Status != lastStatus || len(fresh.Tracking) != lastTracking {
				order = fresh
				lastStatus = fresh.Status
				lastTracking = len(fresh.Tracking)
				if !send("status_updated") {
					return
				}
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
