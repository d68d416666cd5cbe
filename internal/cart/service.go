package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/config"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/pricing"
	"cmcafe_back_end/internal/store"

	"github.com/google/uuid"
)

// Service est l'unique propriétaire logique du panier d'un utilisateur.
// Toute mutation passe par le verrou par utilisateur : deux onglets qui
// cliquent en même temps se sérialisent au lieu de s'écraser.
type Service struct {
	products   store.ProductRepository
	carts      store.CartRepository
	promos     store.PromotionRepository
	locker     store.CartLocker
	surcharges models.SurchargeTable
	pricing    config.PricingConfig
	now        func() time.Time
}

func NewService(products store.ProductRepository, carts store.CartRepository,
	promos store.PromotionRepository, locker store.CartLocker,
	surcharges models.SurchargeTable, pricingCfg config.PricingConfig) *Service {
	return &Service{
		products:   products,
		carts:      carts,
		promos:     promos,
		locker:     locker,
		surcharges: surcharges,
		pricing:    pricingCfg,
		now:        time.Now,
	}
}

// Get retourne le panier et un PriceBreakdown frais. Le détail des prix
// est recalculé à chaque appel — jamais de cache entre deux mutations.
func (s *Service) Get(ctx context.Context, userID, promoCode string) (models.Cart, pricing.Breakdown, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.Cart{}, pricing.Breakdown{}, err
	}

	breakdown, err := s.breakdown(ctx, userID, cart.Lines, promoCode)
	if err != nil {
		return models.Cart{}, pricing.Breakdown{}, err
	}
	return cart, breakdown, nil
}

// Add ajoute un produit au panier. Une ligne équivalente (même produit +
// mêmes personnalisations) est fusionnée par incrément de quantité, on ne
// crée jamais de doublon.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int, customizations models.Customizations) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantité %d: %w", quantity, apperr.ErrInvalidQuantity)
	}
	if err := customizations.Validate(s.surcharges); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrValidation)
	}

	product, err := s.products.ByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, fmt.Errorf("produit %s: %w", product.Name, apperr.ErrProductUnavailable)
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Fusion avec une ligne équivalente si elle existe déjà.
	key := customizations.Key()
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID && cart.Lines[i].Customizations.Key() == key {
			cart.Lines[i].Quantity += quantity
			cart.Lines[i].TotalPrice = cart.Lines[i].UnitPrice * int64(cart.Lines[i].Quantity)
			if err := s.carts.Save(ctx, userID, cart.Lines); err != nil {
				return nil, err
			}
			line := cart.Lines[i]
			return &line, nil
		}
	}

	unitPrice := pricing.UnitPrice(*product, customizations, s.surcharges)
	line := models.CartLine{
		ID:             uuid.NewString(),
		ProductID:      productID,
		Name:           product.Name,
		Quantity:       quantity,
		Customizations: customizations,
		UnitPrice:      unitPrice,
		TotalPrice:     unitPrice * int64(quantity),
		CreatedAt:      s.now(),
	}
	cart.Lines = append(cart.Lines, line)

	if err := s.carts.Save(ctx, userID, cart.Lines); err != nil {
		return nil, err
	}
	log.Printf("🛒 Ajout panier: %s ×%d pour %s", product.Name, quantity, userID)
	return &line, nil
}

// UpdateQuantity change la quantité d'une ligne. Quantité 0 = suppression.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*models.CartLine, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantité %d: %w", quantity, apperr.ErrInvalidQuantity)
	}
	if quantity == 0 {
		return nil, s.Remove(ctx, userID, lineID)
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			cart.Lines[i].Quantity = quantity
			cart.Lines[i].TotalPrice = cart.Lines[i].UnitPrice * int64(quantity)
			if err := s.carts.Save(ctx, userID, cart.Lines); err != nil {
				return nil, err
			}
			line := cart.Lines[i]
			return &line, nil
		}
	}
	return nil, fmt.Errorf("ligne %s: %w", lineID, apperr.ErrLineNotFound)
}

// Remove est idempotent : supprimer une ligne absente n'est pas une
// erreur (l'UI envoie parfois le clic deux fois).
func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return err
	}

	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.ID != lineID {
			kept = append(kept, line)
		}
	}
	return s.carts.Save(ctx, userID, kept)
}

// Clear vide le panier (après un commit de commande ou sur demande).
func (s *Service) Clear(ctx context.Context, userID string) error {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.carts.Clear(ctx, userID)
}

// breakdown recalcule le détail des prix, promo comprise. Un code inconnu
// est signalé dans le breakdown, pas une erreur HTTP.
func (s *Service) breakdown(ctx context.Context, userID string, lines []models.CartLine, promoCode string) (pricing.Breakdown, error) {
	var promo *models.Promotion
	usedByUser := 0

	if promoCode != "" {
		p, err := s.promos.ByCode(ctx, promoCode)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			b := pricing.ComputeBreakdown(lines, nil, 0, s.pricing, s.now())
			b.PromoRejected = "code promo invalide"
			return b, nil
		case err != nil:
			return pricing.Breakdown{}, err
		}

		usedByUser, err = s.promos.UsageCountByUser(ctx, p.ID, userID)
		if err != nil {
			return pricing.Breakdown{}, err
		}
		promo = p
	}

	return pricing.ComputeBreakdown(lines, promo, usedByUser, s.pricing, s.now()), nil
}
