package handlers

import (
	"cmcafe_back_end/internal/cart"
	"cmcafe_back_end/internal/checkout"
	"cmcafe_back_end/internal/lifecycle"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"
)

// Handlers regroupe les dépendances de la couche HTTP. Les handlers ne
// contiennent aucune règle métier : ils parsent, délèguent, répondent.
type Handlers struct {
	Carts      *cart.Service
	Checkout   *checkout.Orchestrator
	Lifecycle  *lifecycle.Manager
	Products   store.ProductRepository
	Categories store.CategoryRepository
	Promos     store.PromotionRepository
	Orders     store.OrderRepository
	Users      store.UserRepository
	Wishlist   store.WishlistRepository
	Surcharges models.SurchargeTable
}
