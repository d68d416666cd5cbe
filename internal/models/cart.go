package models

import "time"

// CartLine est une ligne de panier. UnitPrice et TotalPrice sont
// recalculés depuis le catalogue + la table de suppléments à chaque
// lecture — jamais de cache périmé entre deux mutations.
type CartLine struct {
	ID             string         `json:"id"`
	ProductID      string         `json:"product_id"`
	Name           string         `json:"name"`
	Quantity       int            `json:"quantity"`
	Customizations Customizations `json:"customizations"`
	UnitPrice      int64          `json:"unit_price"`  // base + suppléments, en paise
	TotalPrice     int64          `json:"total_price"` // unit_price × quantity
	CreatedAt      time.Time      `json:"created_at"`
}

type Cart struct {
	UserID string     `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

// Subtotal fait foi : la somme des totaux de ligne, rien d'autre.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.TotalPrice
	}
	return total
}
