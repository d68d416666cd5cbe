package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"
)

// Implémentations en mémoire des ports. Utilisées par les tests et par le
// mode STORE_BACKEND=memory (développement sans ScyllaDB/Redis).

// --- Produits ---

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[string]models.Product)}
}

func (r *MemoryProductRepository) ByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("produit %s: %w", id, apperr.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryProductRepository) List(_ context.Context, categoryID string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Product
	for _, p := range r.products {
		if categoryID == "" || p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryProductRepository) Create(_ context.Context, p models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

func (r *MemoryProductRepository) Update(_ context.Context, p models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return fmt.Errorf("produit %s: %w", p.ID, apperr.ErrNotFound)
	}
	r.products[p.ID] = p
	return nil
}

// --- Catégories ---

type MemoryCategoryRepository struct {
	mu         sync.RWMutex
	categories []models.Category
}

func NewMemoryCategoryRepository() *MemoryCategoryRepository {
	return &MemoryCategoryRepository{}
}

func (r *MemoryCategoryRepository) List(_ context.Context) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]models.Category(nil), r.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *MemoryCategoryRepository) Create(_ context.Context, c models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, c)
	return nil
}

// --- Panier ---

type MemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string][]models.CartLine
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{carts: make(map[string][]models.CartLine)}
}

func (r *MemoryCartRepository) Get(_ context.Context, userID string) (models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lines := append([]models.CartLine(nil), r.carts[userID]...)
	return models.Cart{UserID: userID, Lines: lines}, nil
}

func (r *MemoryCartRepository) Save(_ context.Context, userID string, lines []models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[userID] = append([]models.CartLine(nil), lines...)
	return nil
}

func (r *MemoryCartRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

// --- Promotions ---

type MemoryPromotionRepository struct {
	mu     sync.RWMutex
	promos map[string]models.Promotion        // code → promo
	usages map[string][]models.PromotionUsage // promoID → usages
}

func NewMemoryPromotionRepository() *MemoryPromotionRepository {
	return &MemoryPromotionRepository{
		promos: make(map[string]models.Promotion),
		usages: make(map[string][]models.PromotionUsage),
	}
}

func (r *MemoryPromotionRepository) ByCode(_ context.Context, code string) (*models.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.promos[code]
	if !ok {
		return nil, fmt.Errorf("promo %s: %w", code, apperr.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryPromotionRepository) List(_ context.Context) ([]models.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Promotion
	for _, p := range r.promos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryPromotionRepository) Create(_ context.Context, p models.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.promos[p.Code]; exists {
		return fmt.Errorf("promo %s: %w", p.Code, apperr.ErrConflict)
	}
	r.promos[p.Code] = p
	return nil
}

func (r *MemoryPromotionRepository) Update(_ context.Context, p models.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.promos[p.Code]; !ok {
		return fmt.Errorf("promo %s: %w", p.Code, apperr.ErrNotFound)
	}
	r.promos[p.Code] = p
	return nil
}

func (r *MemoryPromotionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, p := range r.promos {
		if p.ID == id {
			delete(r.promos, code)
			return nil
		}
	}
	return fmt.Errorf("promo %s: %w", id, apperr.ErrNotFound)
}

func (r *MemoryPromotionRepository) UsageCountByUser(_ context.Context, promoID, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, u := range r.usages[promoID] {
		if u.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryPromotionRepository) RecordUsage(_ context.Context, usage models.PromotionUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages[usage.PromoID] = append(r.usages[usage.PromoID], usage)
	for code, p := range r.promos {
		if p.ID == usage.PromoID {
			p.UsedCount++
			r.promos[code] = p
		}
	}
	return nil
}

// --- Commandes ---

type MemoryOrderRepository struct {
	mu          sync.Mutex
	orders      map[string]models.Order
	paymentRefs map[string]string // paymentID → orderID, la contrainte d'unicité
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:      make(map[string]models.Order),
		paymentRefs: make(map[string]string),
	}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.paymentRefs[order.PaymentID]; seen {
		return fmt.Errorf("paiement %s: %w", order.PaymentID, apperr.ErrDuplicateCommit)
	}
	r.paymentRefs[order.PaymentID] = order.ID
	r.orders[order.ID] = order
	return nil
}

func (r *MemoryOrderRepository) ByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("commande %s: %w", id, apperr.ErrNotFound)
	}
	return &o, nil
}

func (r *MemoryOrderRepository) ByPaymentRef(_ context.Context, paymentID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orderID, ok := r.paymentRefs[paymentID]
	if !ok {
		return nil, fmt.Errorf("paiement %s: %w", paymentID, apperr.ErrNotFound)
	}
	o := r.orders[orderID]
	return &o, nil
}

func (r *MemoryOrderRepository) ByUser(_ context.Context, userID string) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("commande %s: %w", id, apperr.ErrNotFound)
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *MemoryOrderRepository) UpdatePaymentStatus(_ context.Context, id string, paymentStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("commande %s: %w", id, apperr.ErrNotFound)
	}
	o.PaymentStatus = paymentStatus
	r.orders[id] = o
	return nil
}

func (r *MemoryOrderRepository) TotalSpent(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, o := range r.orders {
		if o.UserID == userID && o.PaymentStatus == models.PaymentCompleted {
			total += o.TotalAmount
		}
	}
	return total, nil
}

// --- Suivi ---

type MemoryTrackingRepository struct {
	mu     sync.RWMutex
	events map[string][]models.OrderTrackingEvent
}

func NewMemoryTrackingRepository() *MemoryTrackingRepository {
	return &MemoryTrackingRepository{events: make(map[string][]models.OrderTrackingEvent)}
}

func (r *MemoryTrackingRepository) Append(_ context.Context, event models.OrderTrackingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.OrderID] = append(r.events[event.OrderID], event)
	return nil
}

func (r *MemoryTrackingRepository) ByOrder(_ context.Context, orderID string) ([]models.OrderTrackingEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.OrderTrackingEvent(nil), r.events[orderID]...), nil
}

// --- Comptes ---

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) ByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("utilisateur %s: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUserRepository) ByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("email %s: %w", email, apperr.ErrNotFound)
}

func (r *MemoryUserRepository) Create(_ context.Context, u models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email && existing.Provider == u.Provider {
			return fmt.Errorf("email %s: %w", u.Email, apperr.ErrConflict)
		}
	}
	r.users[u.ID] = u
	return nil
}

// --- Wishlist ---

type MemoryWishlistRepository struct {
	mu    sync.RWMutex
	items map[string][]models.WishlistItem
}

func NewMemoryWishlistRepository() *MemoryWishlistRepository {
	return &MemoryWishlistRepository{items: make(map[string][]models.WishlistItem)}
}

func (r *MemoryWishlistRepository) ByUser(_ context.Context, userID string) ([]models.WishlistItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.WishlistItem(nil), r.items[userID]...), nil
}

func (r *MemoryWishlistRepository) Add(_ context.Context, item models.WishlistItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items[item.UserID] {
		if existing.ProductID == item.ProductID {
			return nil // déjà présent, pas une erreur
		}
	}
	r.items[item.UserID] = append(r.items[item.UserID], item)
	return nil
}

func (r *MemoryWishlistRepository) Remove(_ context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[userID][:0]
	for _, item := range r.items[userID] {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	r.items[userID] = kept
	return nil
}

// --- Verrou panier ---

// MemoryCartLocker sérialise les mutations avec un mutex par utilisateur.
type MemoryCartLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemoryCartLocker() *MemoryCartLocker {
	return &MemoryCartLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MemoryCartLocker) Lock(_ context.Context, userID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
