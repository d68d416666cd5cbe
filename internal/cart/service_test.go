package cart

import (
	"context"
	"testing"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/config"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = config.PricingConfig{
	Currency:              "inr",
	FreeDeliveryThreshold: 50000,
	DeliveryFee:           4000,
}

func newTestService(t *testing.T) (*Service, *store.MemoryProductRepository, *store.MemoryPromotionRepository) {
	t.Helper()
	products := store.NewMemoryProductRepository()
	promos := store.NewMemoryPromotionRepository()
	svc := NewService(products, store.NewMemoryCartRepository(), promos,
		store.NewMemoryCartLocker(), models.DefaultSurcharges(), testCfg)
	return svc, products, promos
}

func seedProduct(t *testing.T, products *store.MemoryProductRepository, price int64, available bool) models.Product {
	t.Helper()
	p := models.Product{
		ID:        uuid.NewString(),
		Name:      "Filter Coffee",
		Price:     price,
		Available: available,
	}
	require.NoError(t, products.Create(context.Background(), p))
	return p
}

func TestAdd_InvalidQuantity(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)

	_, err := svc.Add(context.Background(), "user-1", p.ID, 0, models.Customizations{})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	_, err = svc.Add(context.Background(), "user-1", p.ID, -2, models.Customizations{})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
}

func TestAdd_ProductUnavailable(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, false)

	_, err := svc.Add(context.Background(), "user-1", p.ID, 1, models.Customizations{})
	assert.ErrorIs(t, err, apperr.ErrProductUnavailable)
}

func TestAdd_ProductNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Add(context.Background(), "user-1", uuid.NewString(), 1, models.Customizations{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdd_UnknownCustomizationRejected(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)

	_, err := svc.Add(context.Background(), "user-1", p.ID, 1,
		models.Customizations{Extras: []string{"gold-flakes"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAdd_MergesEquivalentLines(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)
	ctx := context.Background()

	// Mêmes personnalisations, ordre des extras différent : une seule ligne.
	_, err := svc.Add(ctx, "user-1", p.ID, 1, models.Customizations{
		Size: models.SizeLarge, Extras: []string{"vanilla", "extra-shot"},
	})
	require.NoError(t, err)

	line, err := svc.Add(ctx, "user-1", p.ID, 2, models.Customizations{
		Size: models.SizeLarge, Extras: []string{"extra-shot", "vanilla"},
	})
	require.NoError(t, err)

	cart, _, err := svc.Get(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, line.UnitPrice*3, line.TotalPrice)
}

func TestAdd_DistinctCustomizationsStaySeparate(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", p.ID, 1, models.Customizations{Size: models.SizeSmall})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "user-1", p.ID, 1, models.Customizations{Size: models.SizeLarge})
	require.NoError(t, err)

	cart, _, err := svc.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2)
}

func TestSubtotal_NeverDrifts(t *testing.T) {
	svc, products, _ := newTestService(t)
	p1 := seedProduct(t, products, 12000, true)
	p2 := seedProduct(t, products, 8000, true)
	ctx := context.Background()

	check := func() {
		cart, breakdown, err := svc.Get(ctx, "user-1", "")
		require.NoError(t, err)
		var sum int64
		for _, l := range cart.Lines {
			sum += l.TotalPrice
		}
		assert.Equal(t, sum, breakdown.Subtotal, "le sous-total doit rester la somme des lignes")
	}

	_, err := svc.Add(ctx, "user-1", p1.ID, 2, models.Customizations{})
	require.NoError(t, err)
	check()

	line, err := svc.Add(ctx, "user-1", p2.ID, 1, models.Customizations{Milk: models.MilkOat})
	require.NoError(t, err)
	check()

	_, err = svc.UpdateQuantity(ctx, "user-1", line.ID, 5)
	require.NoError(t, err)
	check()

	require.NoError(t, svc.Remove(ctx, "user-1", line.ID))
	check()
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)
	ctx := context.Background()

	line, err := svc.Add(ctx, "user-1", p.ID, 2, models.Customizations{})
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "user-1", line.ID, 0)
	require.NoError(t, err)

	cart, _, err := svc.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestUpdateQuantity_LineNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.UpdateQuantity(context.Background(), "user-1", uuid.NewString(), 3)
	assert.ErrorIs(t, err, apperr.ErrLineNotFound)
}

func TestRemove_Idempotent(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)
	ctx := context.Background()

	line, err := svc.Add(ctx, "user-1", p.ID, 1, models.Customizations{})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "user-1", line.ID))
	// Deuxième clic : pas une erreur.
	require.NoError(t, svc.Remove(ctx, "user-1", line.ID))
}

func TestClear_EmptiesCart(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", p.ID, 2, models.Customizations{})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "user-1"))

	cart, breakdown, err := svc.Get(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Equal(t, int64(0), breakdown.Subtotal)
}

func TestGet_UnknownPromoReported(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)
	ctx := context.Background()

	_, err := svc.Add(ctx, "user-1", p.ID, 1, models.Customizations{})
	require.NoError(t, err)

	_, breakdown, err := svc.Get(ctx, "user-1", "NOPE")
	require.NoError(t, err)
	assert.Equal(t, int64(0), breakdown.Discount)
	assert.Equal(t, "code promo invalide", breakdown.PromoRejected)
}

func TestAdd_SurchargedUnitPrice(t *testing.T) {
	svc, products, _ := newTestService(t)
	p := seedProduct(t, products, 12000, true)

	line, err := svc.Add(context.Background(), "user-1", p.ID, 2, models.Customizations{
		Size:   models.SizeMedium,
		Milk:   models.MilkAlmond,
		Extras: []string{"caramel"},
	})
	require.NoError(t, err)

	// 120 + 15 + 15 + 15 = ₹165
	assert.Equal(t, int64(16500), line.UnitPrice)
	assert.Equal(t, int64(33000), line.TotalPrice)
}
