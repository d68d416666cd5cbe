package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"

	"github.com/gocql/gocql"
)

// SessionFn fournit une session ScyllaDB à la demande (voir
// database.GetCatalogSession et consorts). Injectée plutôt qu'importée
// pour garder les repositories testables.
type SessionFn func() (*gocql.Session, error)

// --- Produits ---

type ScyllaProductRepository struct {
	session SessionFn
}

func NewScyllaProductRepository(session SessionFn) *ScyllaProductRepository {
	return &ScyllaProductRepository{session: session}
}

func (r *ScyllaProductRepository) ByID(_ context.Context, id string) (*models.Product, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	productID, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("id produit invalide: %w", apperr.ErrValidation)
	}

	var p models.Product
	var categoryID gocql.UUID
	err = session.Query(`SELECT product_id, name, description, price, image_url, category_id,
		available, is_special, tags, created_at, updated_at
		FROM products WHERE product_id = ?`, productID).Scan(
		&productID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &categoryID,
		&p.Available, &p.IsSpecial, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("produit %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture produit: %w", err)
	}

	p.ID = productID.String()
	p.CategoryID = categoryString(categoryID)
	return &p, nil
}

func (r *ScyllaProductRepository) List(_ context.Context, categoryID string) ([]models.Product, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT product_id, name, description, price, image_url, category_id,
		available, is_special, tags, created_at, updated_at FROM products`).Iter()
	defer iter.Close()

	var products []models.Product
	var p models.Product
	var pid, cid gocql.UUID

	for iter.Scan(&pid, &p.Name, &p.Description, &p.Price, &p.ImageURL, &cid,
		&p.Available, &p.IsSpecial, &p.Tags, &p.CreatedAt, &p.UpdatedAt) {
		p.ID = pid.String()
		p.CategoryID = categoryString(cid)
		// Le filtrage par catégorie se fait côté application : la table
		// est partitionnée par produit et la carte reste petite.
		if categoryID == "" || p.CategoryID == categoryID {
			products = append(products, p)
		}
		p = models.Product{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *ScyllaProductRepository) Create(_ context.Context, p models.Product) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	pid, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return fmt.Errorf("id produit invalide: %w", apperr.ErrValidation)
	}
	cid, err := categoryBinding(p.CategoryID)
	if err != nil {
		return err
	}

	return session.Query(`INSERT INTO products (product_id, name, description, price, image_url,
		category_id, available, is_special, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, p.Name, p.Description, p.Price, p.ImageURL, cid,
		p.Available, p.IsSpecial, p.Tags, p.CreatedAt, p.UpdatedAt).Exec()
}

// categoryBinding traduit la catégorie en valeur liable : la catégorie est
// optionnelle (un produit hors carte, un daily special), donc une chaîne
// vide devient NULL au lieu d'être rejetée.
func categoryBinding(categoryID string) (interface{}, error) {
	if categoryID == "" {
		return nil, nil
	}
	cid, err := gocql.ParseUUID(categoryID)
	if err != nil {
		return nil, fmt.Errorf("id catégorie invalide: %w", apperr.ErrValidation)
	}
	return cid, nil
}

// categoryString fait le chemin inverse : un uuid NULL (lu comme zéro)
// redevient une chaîne vide.
func categoryString(cid gocql.UUID) string {
	if cid == (gocql.UUID{}) {
		return ""
	}
	return cid.String()
}

func (r *ScyllaProductRepository) Update(_ context.Context, p models.Product) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	pid, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return fmt.Errorf("id produit invalide: %w", apperr.ErrValidation)
	}

	return session.Query(`UPDATE products SET name = ?, description = ?, price = ?, image_url = ?,
		available = ?, is_special = ?, tags = ?, updated_at = ? WHERE product_id = ?`,
		p.Name, p.Description, p.Price, p.ImageURL, p.Available, p.IsSpecial,
		p.Tags, time.Now(), pid).Exec()
}

// --- Catégories ---

type ScyllaCategoryRepository struct {
	session SessionFn
}

func NewScyllaCategoryRepository(session SessionFn) *ScyllaCategoryRepository {
	return &ScyllaCategoryRepository{session: session}
}

func (r *ScyllaCategoryRepository) List(_ context.Context) ([]models.Category, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT category_id, name, description, display_order FROM categories`).Iter()
	defer iter.Close()

	var categories []models.Category
	var c models.Category
	var cid gocql.UUID

	for iter.Scan(&cid, &c.Name, &c.Description, &c.DisplayOrder) {
		c.ID = cid.String()
		categories = append(categories, c)
		c = models.Category{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].DisplayOrder < categories[j].DisplayOrder
	})
	return categories, nil
}

func (r *ScyllaCategoryRepository) Create(_ context.Context, c models.Category) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	cid, err := gocql.ParseUUID(c.ID)
	if err != nil {
		return fmt.Errorf("id catégorie invalide: %w", apperr.ErrValidation)
	}

	return session.Query(`INSERT INTO categories (category_id, name, description, display_order)
		VALUES (?, ?, ?, ?)`, cid, c.Name, c.Description, c.DisplayOrder).Exec()
}
