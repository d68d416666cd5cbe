package store

import (
	"context"
	"errors"
	"fmt"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"

	"github.com/gocql/gocql"
)

type ScyllaUserRepository struct {
	session SessionFn
}

func NewScyllaUserRepository(session SessionFn) *ScyllaUserRepository {
	return &ScyllaUserRepository{session: session}
}

func (r *ScyllaUserRepository) ByID(_ context.Context, id string) (*models.User, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	userID, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("id utilisateur invalide: %w", apperr.ErrValidation)
	}

	var u models.User
	err = session.Query(`SELECT user_id, email, password, full_name, phone, address,
		provider, role, created_at, updated_at FROM users WHERE user_id = ?`, userID).Scan(
		&userID, &u.Email, &u.Password, &u.FullName, &u.Phone, &u.Address,
		&u.Provider, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("utilisateur %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur: %w", err)
	}

	u.ID = userID.String()
	return &u, nil
}

func (r *ScyllaUserRepository) ByEmail(_ context.Context, email string) (*models.User, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	var u models.User
	var userID gocql.UUID
	err = session.Query(`SELECT user_id, email, password, full_name, phone, address,
		provider, role, created_at, updated_at FROM users_by_email WHERE email = ?`, email).Scan(
		&userID, &u.Email, &u.Password, &u.FullName, &u.Phone, &u.Address,
		&u.Provider, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("email %s: %w", email, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture utilisateur: %w", err)
	}

	u.ID = userID.String()
	return &u, nil
}

func (r *ScyllaUserRepository) Create(_ context.Context, u models.User) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	userID, err := gocql.ParseUUID(u.ID)
	if err != nil {
		return fmt.Errorf("id utilisateur invalide: %w", apperr.ErrValidation)
	}

	// L'unicité de l'email passe par un LWT sur la table index.
	var existingID gocql.UUID
	applied, err := session.Query(`INSERT INTO users_by_email (email, user_id, password, full_name,
		phone, address, provider, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		u.Email, userID, u.Password, u.FullName, u.Phone, u.Address,
		u.Provider, u.Role, u.CreatedAt, u.UpdatedAt).ScanCAS(&existingID)
	if err != nil {
		return fmt.Errorf("réservation email: %w", err)
	}
	if !applied {
		return fmt.Errorf("email %s: %w", u.Email, apperr.ErrConflict)
	}

	return session.Query(`INSERT INTO users (user_id, email, password, full_name, phone, address,
		provider, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, u.Email, u.Password, u.FullName, u.Phone, u.Address,
		u.Provider, u.Role, u.CreatedAt, u.UpdatedAt).Exec()
}

// --- Wishlist ---

type ScyllaWishlistRepository struct {
	session SessionFn
}

func NewScyllaWishlistRepository(session SessionFn) *ScyllaWishlistRepository {
	return &ScyllaWishlistRepository{session: session}
}

func (r *ScyllaWishlistRepository) ByUser(_ context.Context, userID string) ([]models.WishlistItem, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT item_id, product_id, created_at FROM wishlist WHERE user_id = ?`,
		userID).Iter()
	defer iter.Close()

	var items []models.WishlistItem
	var item models.WishlistItem
	var itemID, productID gocql.UUID

	for iter.Scan(&itemID, &productID, &item.CreatedAt) {
		item.ID = itemID.String()
		item.UserID = userID
		item.ProductID = productID.String()
		items = append(items, item)
		item = models.WishlistItem{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture wishlist: %w", err)
	}
	return items, nil
}

func (r *ScyllaWishlistRepository) Add(_ context.Context, item models.WishlistItem) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	itemID, err := gocql.ParseUUID(item.ID)
	if err != nil {
		return fmt.Errorf("id invalide: %w", apperr.ErrValidation)
	}
	productID, err := gocql.ParseUUID(item.ProductID)
	if err != nil {
		return fmt.Errorf("id produit invalide: %w", apperr.ErrValidation)
	}

	return session.Query(`INSERT INTO wishlist (user_id, item_id, product_id, created_at)
		VALUES (?, ?, ?, ?)`, item.UserID, itemID, productID, item.CreatedAt).Exec()
}

func (r *ScyllaWishlistRepository) Remove(_ context.Context, userID, itemID string) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	id, err := gocql.ParseUUID(itemID)
	if err != nil {
		return fmt.Errorf("id invalide: %w", apperr.ErrValidation)
	}

	return session.Query(`DELETE FROM wishlist WHERE user_id = ? AND item_id = ?`,
		userID, id).Exec()
}
