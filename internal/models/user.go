package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Provider  string    `json:"provider"` // local, google, apple
	Role      string    `json:"role"`     // customer, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Seuil de dépense cumulée (en paise) pour le statut Golden 7-Star.
const GoldenTierThreshold int64 = 1000000 // ₹10 000

type Membership struct {
	UserID        string `json:"user_id"`
	Tier          string `json:"tier"` // standard, golden7star
	TotalSpent    int64  `json:"total_spent"` // en paise
	PointsBalance int64  `json:"points_balance"`
}
