package models

import "time"

// OrderTrackingEvent est un événement de suivi, append-only. L'historique
// ne se réécrit jamais : chaque avancement de statut en ajoute un.
type OrderTrackingEvent struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	Location  string      `json:"location,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
