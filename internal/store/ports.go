package store

import (
	"context"

	"cmcafe_back_end/internal/models"
)

// Les composants du cœur ne dépendent que de ces interfaces, jamais d'une
// base concrète. Les implémentations : ScyllaDB pour le catalogue, les
// commandes, les promos et les comptes ; Redis pour le panier ; mémoire
// pour les tests et le mode développement.

type ProductRepository interface {
	ByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, categoryID string) ([]models.Product, error)
	Create(ctx context.Context, p models.Product) error
	Update(ctx context.Context, p models.Product) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c models.Category) error
}

type CartRepository interface {
	Get(ctx context.Context, userID string) (models.Cart, error)
	Save(ctx context.Context, userID string, lines []models.CartLine) error
	Clear(ctx context.Context, userID string) error
}

type PromotionRepository interface {
	ByCode(ctx context.Context, code string) (*models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
	Create(ctx context.Context, p models.Promotion) error
	Update(ctx context.Context, p models.Promotion) error
	Delete(ctx context.Context, id string) error
	UsageCountByUser(ctx context.Context, promoID, userID string) (int, error)
	RecordUsage(ctx context.Context, usage models.PromotionUsage) error
}

type OrderRepository interface {
	// Create échoue avec apperr.ErrDuplicateCommit si une commande existe
	// déjà pour la même référence de paiement — vérifié atomiquement avec
	// l'insertion, c'est la garantie at-most-once du commit.
	Create(ctx context.Context, order models.Order) error
	ByID(ctx context.Context, id string) (*models.Order, error)
	ByPaymentRef(ctx context.Context, paymentID string) (*models.Order, error)
	ByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, paymentStatus string) error
	TotalSpent(ctx context.Context, userID string) (int64, error)
}

type TrackingRepository interface {
	Append(ctx context.Context, event models.OrderTrackingEvent) error
	ByOrder(ctx context.Context, orderID string) ([]models.OrderTrackingEvent, error)
}

type UserRepository interface {
	ByID(ctx context.Context, id string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u models.User) error
}

type WishlistRepository interface {
	ByUser(ctx context.Context, userID string) ([]models.WishlistItem, error)
	Add(ctx context.Context, item models.WishlistItem) error
	Remove(ctx context.Context, userID, itemID string) error
}

// CartLocker sérialise les mutations du panier d'un même utilisateur
// (plusieurs onglets/appareils). Unlock doit toujours être appelé.
type CartLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}
