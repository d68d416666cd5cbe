package models

import "time"

// Kinds de promotion supportés par le moteur de tarification.
const (
	PromoPercentage  = "percentage"
	PromoFixedAmount = "fixed"
	PromoBuyNGetM    = "buy_n_get_m"
)

type Promotion struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	Kind           string    `json:"kind"` // percentage | fixed | buy_n_get_m
	Value          int64     `json:"value"`
	MinOrderAmount int64     `json:"min_order_amount"` // en paise
	MaxDiscount    *int64    `json:"max_discount,omitempty"`
	BuyN           int       `json:"buy_n,omitempty"`
	GetM           int       `json:"get_m,omitempty"`
	MaxUses        int       `json:"max_uses"`
	UsedCount      int       `json:"used_count"`
	MaxUsesPerUser int       `json:"max_uses_per_user"`
	StartsAt       time.Time `json:"starts_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsActive       bool      `json:"is_active"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Value est un pourcentage (1–100) pour PromoPercentage, un montant en
// paise pour PromoFixedAmount, ignoré pour PromoBuyNGetM.

type PromotionUsage struct {
	ID      string    `json:"id"`
	PromoID string    `json:"promo_id"`
	UserID  string    `json:"user_id"`
	OrderID string    `json:"order_id"`
	UsedAt  time.Time `json:"used_at"`
}
