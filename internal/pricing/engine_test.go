package pricing

import (
	"testing"
	"time"

	"cmcafe_back_end/internal/config"
	"cmcafe_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = config.PricingConfig{
	Currency:              "inr",
	FreeDeliveryThreshold: 50000,
	DeliveryFee:           4000,
}

func line(unitPrice int64, qty int) models.CartLine {
	return models.CartLine{
		ID:         "line-1",
		ProductID:  "prod-1",
		Quantity:   qty,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice * int64(qty),
	}
}

func percentPromo(value int64, minAmount int64) *models.Promotion {
	return &models.Promotion{
		ID:             "promo-1",
		Code:           "WELCOME10",
		Kind:           models.PromoPercentage,
		Value:          value,
		MinOrderAmount: minAmount,
		IsActive:       true,
		StartsAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt:      time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestComputeBreakdown_Subtotal(t *testing.T) {
	lines := []models.CartLine{line(12000, 2), line(8000, 1)}

	b := ComputeBreakdown(lines, nil, 0, testCfg, now)

	assert.Equal(t, int64(32000), b.Subtotal)
	assert.Equal(t, int64(0), b.Discount)
	assert.Equal(t, int64(4000), b.DeliveryFee)
	assert.Equal(t, int64(36000), b.Total)
}

func TestComputeBreakdown_EmptyCart(t *testing.T) {
	b := ComputeBreakdown(nil, nil, 0, testCfg, now)

	assert.Equal(t, int64(0), b.Subtotal)
	assert.Equal(t, int64(0), b.DeliveryFee, "pas de frais de livraison sur un panier vide")
	assert.Equal(t, int64(0), b.Total)
}

func TestComputeBreakdown_FreeDeliveryThreshold(t *testing.T) {
	// juste sous le seuil
	b := ComputeBreakdown([]models.CartLine{line(49999, 1)}, nil, 0, testCfg, now)
	assert.Equal(t, int64(4000), b.DeliveryFee)

	// au seuil
	b = ComputeBreakdown([]models.CartLine{line(50000, 1)}, nil, 0, testCfg, now)
	assert.Equal(t, int64(0), b.DeliveryFee)
}

func TestComputeBreakdown_Deterministic(t *testing.T) {
	lines := []models.CartLine{line(14000, 2)}
	promo := percentPromo(10, 20000)

	first := ComputeBreakdown(lines, promo, 0, testCfg, now)
	second := ComputeBreakdown(lines, promo, 0, testCfg, now)

	assert.Equal(t, first, second)
}

func TestComputeBreakdown_PromoBelowMinimum(t *testing.T) {
	promo := percentPromo(10, 50000)
	b := ComputeBreakdown([]models.CartLine{line(49900, 1)}, promo, 0, testCfg, now)

	assert.Equal(t, int64(0), b.Discount)
	assert.Empty(t, b.PromoCode)
	assert.NotEmpty(t, b.PromoRejected, "un promo refusé doit être signalé, pas ignoré")
}

func TestComputeBreakdown_PromoAtMinimum(t *testing.T) {
	promo := percentPromo(10, 50000)
	b := ComputeBreakdown([]models.CartLine{line(50000, 1)}, promo, 0, testCfg, now)

	assert.Equal(t, int64(5000), b.Discount)
	assert.Equal(t, "WELCOME10", b.PromoCode)
	assert.Empty(t, b.PromoRejected)
}

func TestComputeBreakdown_PromoExpired(t *testing.T) {
	promo := percentPromo(10, 0)
	promo.ExpiresAt = now.Add(-time.Hour)

	b := ComputeBreakdown([]models.CartLine{line(50000, 1)}, promo, 0, testCfg, now)

	assert.Equal(t, int64(0), b.Discount)
	assert.Contains(t, b.PromoRejected, "expiré")
}

func TestComputeBreakdown_PromoNotStarted(t *testing.T) {
	promo := percentPromo(10, 0)
	promo.StartsAt = now.Add(time.Hour)

	b := ComputeBreakdown([]models.CartLine{line(50000, 1)}, promo, 0, testCfg, now)

	assert.Contains(t, b.PromoRejected, "pas encore")
}

func TestComputeBreakdown_PromoUserCapReached(t *testing.T) {
	promo := percentPromo(10, 0)
	promo.MaxUsesPerUser = 2

	b := ComputeBreakdown([]models.CartLine{line(50000, 1)}, promo, 2, testCfg, now)

	assert.Equal(t, int64(0), b.Discount)
	assert.NotEmpty(t, b.PromoRejected)
}

func TestComputeBreakdown_FixedDiscountCappedAtSubtotal(t *testing.T) {
	promo := &models.Promotion{
		ID:        "promo-2",
		Code:      "FLAT500",
		Kind:      models.PromoFixedAmount,
		Value:     50000,
		IsActive:  true,
		StartsAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	}

	b := ComputeBreakdown([]models.CartLine{line(10000, 1)}, promo, 0, testCfg, now)

	assert.Equal(t, int64(10000), b.Discount, "la remise ne dépasse jamais le sous-total")
	require.GreaterOrEqual(t, b.Total, int64(0), "le total ne doit jamais être négatif")
}

func TestComputeBreakdown_PercentageMaxDiscount(t *testing.T) {
	cap := int64(3000)
	promo := percentPromo(50, 0)
	promo.MaxDiscount = &cap

	b := ComputeBreakdown([]models.CartLine{line(50000, 1)}, promo, 0, testCfg, now)

	assert.Equal(t, cap, b.Discount)
}

func TestComputeBreakdown_BuyTwoGetOne(t *testing.T) {
	promo := &models.Promotion{
		ID:        "promo-3",
		Code:      "B2G1",
		Kind:      models.PromoBuyNGetM,
		BuyN:      2,
		GetM:      1,
		IsActive:  true,
		StartsAt:  now.Add(-time.Hour),
		ExpiresAt: now.Add(time.Hour),
	}

	// 3 unités à ₹120 + 1 unité à ₹80 → 1 groupe complet, l'unité la
	// moins chère (₹80) est offerte
	lines := []models.CartLine{line(12000, 3), {
		ID: "line-2", ProductID: "prod-2", Quantity: 1, UnitPrice: 8000, TotalPrice: 8000,
	}}

	b := ComputeBreakdown(lines, promo, 0, testCfg, now)

	assert.Equal(t, int64(8000), b.Discount)
}

// Scénario complet du ticket type : 2 × ₹140 avec WELCOME10 (seuil ₹200)
// → sous-total ₹280, remise ₹28, livraison offerte, total ₹252.
func TestComputeBreakdown_EndToEndScenario(t *testing.T) {
	cfg := config.PricingConfig{
		Currency:              "inr",
		FreeDeliveryThreshold: 25000,
		DeliveryFee:           4000,
	}
	promo := percentPromo(10, 20000)

	b := ComputeBreakdown([]models.CartLine{line(14000, 2)}, promo, 0, cfg, now)

	assert.Equal(t, int64(28000), b.Subtotal)
	assert.Equal(t, int64(2800), b.Discount)
	assert.Equal(t, int64(0), b.DeliveryFee)
	assert.Equal(t, int64(25200), b.Total)
}

func TestUnitPrice_Surcharges(t *testing.T) {
	table := models.DefaultSurcharges()
	product := models.Product{ID: "p1", Price: 12000, Available: true}

	price := UnitPrice(product, models.Customizations{
		Size:   models.SizeLarge,
		Milk:   models.MilkOat,
		Extras: []string{"extra-shot", "whipped-cream"},
	}, table)

	// 120 + 30 (large) + 20 (avoine) + 25 + 20 = ₹215
	assert.Equal(t, int64(21500), price)
}

func TestCustomizations_ValidateRejectsUnknown(t *testing.T) {
	table := models.DefaultSurcharges()

	err := models.Customizations{Size: "venti"}.Validate(table)
	assert.Error(t, err)

	err = models.Customizations{Extras: []string{"gold-flakes"}}.Validate(table)
	assert.Error(t, err)

	err = models.Customizations{Size: models.SizeMedium, Milk: models.MilkAlmond}.Validate(table)
	assert.NoError(t, err)
}

func TestCustomizations_KeyCanonical(t *testing.T) {
	a := models.Customizations{Size: models.SizeLarge, Extras: []string{"vanilla", "extra-shot"}}
	b := models.Customizations{Size: models.SizeLarge, Extras: []string{"extra-shot", "vanilla"}}

	assert.Equal(t, a.Key(), b.Key(), "l'ordre des extras ne doit pas changer la clé de fusion")
}
