package models

import "time"

// Statuts de livraison d'une commande. La table des transitions autorisées
// vit dans internal/lifecycle — un seul endroit, partagé par tous les
// appelants.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// Statuts de paiement.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// OrderItem est une copie figée d'une ligne de panier au moment du commit.
// Aucune référence vers CartLine : un changement de prix catalogue
// ultérieur ne doit jamais réécrire l'historique.
type OrderItem struct {
	ID             string         `json:"id"`
	OrderID        string         `json:"order_id"`
	ProductID      string         `json:"product_id"`
	Name           string         `json:"name"`
	Quantity       int            `json:"quantity"`
	UnitPrice      int64          `json:"unit_price"` // en paise
	Customizations Customizations `json:"customizations"`
	TotalPrice     int64          `json:"total_price"`
}

type Order struct {
	ID              string      `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          string      `json:"user_id"`
	Items           []OrderItem `json:"items"`
	Subtotal        int64       `json:"subtotal"`
	Discount        int64       `json:"discount"`
	DeliveryFee     int64       `json:"delivery_fee"`
	TotalAmount     int64       `json:"total_amount"`
	PromoCode       string      `json:"promo_code,omitempty"`
	PaymentID       string      `json:"payment_id"`
	PaymentStatus   string      `json:"payment_status"`
	Status          OrderStatus `json:"status"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
