package handlers

import (
	"log"
	"net/http"
	"time"

	"cmcafe_back_end/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// CartWebSocket gère la synchronisation temps réel du panier : chaque
// mutation publiée sur Redis est repoussée à tous les onglets ouverts.
func (h *Handlers) CartWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}
	if database.Redis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Synchronisation indisponible"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	pubsub := database.Redis.Subscribe(ctx, "cart:"+userID)
	defer pubsub.Close()
	ch := pubsub.Channel()

	conn.WriteJSON(gin.H{
		"type":    "connected",
		"message": "Synchronisation panier activée",
	})

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Payload != "updated" && msg.Payload != "cleared" {
				continue
			}

			// On renvoie toujours le panier recalculé, jamais le payload brut.
			cart, breakdown, err := h.Carts.Get(ctx, userID, "")
			if err != nil {
				log.Printf("❌ Erreur relecture panier: %v", err)
				continue
			}
			if err := conn.WriteJSON(gin.H{
				"type":      "cart_updated",
				"cart":      cart,
				"breakdown": breakdown,
				"count":     len(cart.Lines),
			}); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}

		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
