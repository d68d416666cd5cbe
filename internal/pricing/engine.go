package pricing

import (
	"fmt"
	"sort"
	"time"

	"cmcafe_back_end/internal/config"
	"cmcafe_back_end/internal/models"
)

// Breakdown est un instantané dérivé, jamais persisté ni muté en place.
// Chaque lecture de panier en recalcule un frais.
type Breakdown struct {
	Subtotal      int64  `json:"subtotal"`
	Discount      int64  `json:"discount"`
	DeliveryFee   int64  `json:"delivery_fee"`
	Total         int64  `json:"total"`
	PromoCode     string `json:"promo_code,omitempty"`
	PromoRejected string `json:"promo_rejected,omitempty"` // raison du refus, jamais silencieux
}

// UnitPrice calcule le prix unitaire : base catalogue + suppléments.
func UnitPrice(product models.Product, c models.Customizations, table models.SurchargeTable) int64 {
	return product.Price + c.Surcharge(table)
}

// ComputeBreakdown est une fonction pure : mêmes entrées ⇒ même sortie.
// L'horloge est un paramètre explicite, uniquement pour la fenêtre de
// validité de la promotion. usedByUser est le nombre d'utilisations déjà
// faites par cet utilisateur (lu en amont par l'appelant).
func ComputeBreakdown(lines []models.CartLine, promo *models.Promotion, usedByUser int, cfg config.PricingConfig, now time.Time) Breakdown {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.TotalPrice
	}

	b := Breakdown{Subtotal: subtotal}

	if promo != nil {
		if reason := rejectReason(promo, subtotal, usedByUser, now); reason != "" {
			b.PromoRejected = reason
		} else {
			b.PromoCode = promo.Code
			b.Discount = discount(promo, lines, subtotal)
		}
	}

	// La remise ne dépasse jamais le sous-total : pas de total négatif.
	if b.Discount > subtotal {
		b.Discount = subtotal
	}

	if subtotal < cfg.FreeDeliveryThreshold && subtotal > 0 {
		b.DeliveryFee = cfg.DeliveryFee
	}

	b.Total = subtotal - b.Discount + b.DeliveryFee
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}

func rejectReason(promo *models.Promotion, subtotal int64, usedByUser int, now time.Time) string {
	switch {
	case !promo.IsActive:
		return "ce code promo n'est plus actif"
	case !promo.StartsAt.IsZero() && now.Before(promo.StartsAt):
		return "ce code promo n'est pas encore valide"
	case !promo.ExpiresAt.IsZero() && now.After(promo.ExpiresAt):
		return "ce code promo a expiré"
	case promo.MaxUses > 0 && promo.UsedCount >= promo.MaxUses:
		return "ce code promo a atteint sa limite d'utilisation"
	case promo.MaxUsesPerUser > 0 && usedByUser >= promo.MaxUsesPerUser:
		return "vous avez déjà utilisé ce code promo le nombre maximum de fois"
	case subtotal < promo.MinOrderAmount:
		return fmt.Sprintf("montant minimum requis: ₹%.2f", float64(promo.MinOrderAmount)/100)
	}
	return ""
}

func discount(promo *models.Promotion, lines []models.CartLine, subtotal int64) int64 {
	var d int64
	switch promo.Kind {
	case models.PromoPercentage:
		d = subtotal * promo.Value / 100
		if promo.MaxDiscount != nil && d > *promo.MaxDiscount {
			d = *promo.MaxDiscount
		}
	case models.PromoFixedAmount:
		d = promo.Value
	case models.PromoBuyNGetM:
		d = buyNGetMDiscount(promo, lines)
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}

// buyNGetMDiscount : pour chaque groupe complet de N+M unités, les M
// moins chères sont offertes.
func buyNGetMDiscount(promo *models.Promotion, lines []models.CartLine) int64 {
	if promo.BuyN <= 0 || promo.GetM <= 0 {
		return 0
	}

	var units []int64
	for _, line := range lines {
		for i := 0; i < line.Quantity; i++ {
			units = append(units, line.UnitPrice)
		}
	}

	groupSize := promo.BuyN + promo.GetM
	freeCount := len(units) / groupSize * promo.GetM
	if freeCount == 0 {
		return 0
	}

	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })

	var d int64
	for i := 0; i < freeCount; i++ {
		d += units[i]
	}
	return d
}
