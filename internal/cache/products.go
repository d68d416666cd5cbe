package cache

import (
	"context"
	"encoding/json"
	"time"

	"cmcafe_back_end/internal/database"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/store"
)

const ProductCacheTTL = 10 * time.Minute

// ProductCache décore un ProductRepository avec un cache Redis en lecture.
// La carte change rarement, les lectures sont massives.
type ProductCache struct {
	inner store.ProductRepository
}

func NewProductCache(inner store.ProductRepository) *ProductCache {
	return &ProductCache{inner: inner}
}

func productKey(id string) string {
	return "product:" + id
}

func (c *ProductCache) ByID(ctx context.Context, id string) (*models.Product, error) {
	if database.Redis != nil {
		if data, err := database.Redis.Get(ctx, productKey(id)).Result(); err == nil {
			var p models.Product
			if json.Unmarshal([]byte(data), &p) == nil {
				return &p, nil
			}
		}
	}

	p, err := c.inner.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if database.Redis != nil {
		if data, err := json.Marshal(p); err == nil {
			database.Redis.Set(ctx, productKey(id), data, ProductCacheTTL)
		}
	}
	return p, nil
}

// List passe toujours par la base : le filtrage par catégorie ne se
// cache pas par clé simple.
func (c *ProductCache) List(ctx context.Context, categoryID string) ([]models.Product, error) {
	return c.inner.List(ctx, categoryID)
}

func (c *ProductCache) Create(ctx context.Context, p models.Product) error {
	return c.inner.Create(ctx, p)
}

func (c *ProductCache) Update(ctx context.Context, p models.Product) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	Invalidate(ctx, p.ID)
	return nil
}

// Invalidate purge le cache d'un produit après une écriture admin.
func Invalidate(ctx context.Context, productID string) {
	if database.Redis != nil {
		database.Redis.Del(ctx, productKey(productID))
	}
}
