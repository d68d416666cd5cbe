package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"

	"github.com/gocql/gocql"
)

type ScyllaPromotionRepository struct {
	session SessionFn
}

func NewScyllaPromotionRepository(session SessionFn) *ScyllaPromotionRepository {
	return &ScyllaPromotionRepository{session: session}
}

const promoColumns = `promo_id, code, kind, value, min_order_amount, max_discount,
	buy_n, get_m, max_uses, used_count, max_uses_per_user, starts_at, expires_at,
	is_active, created_by, created_at, updated_at`

func (r *ScyllaPromotionRepository) ByCode(_ context.Context, code string) (*models.Promotion, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	var p models.Promotion
	var promoID gocql.UUID
	var maxDiscount int64

	err = session.Query(`SELECT `+promoColumns+` FROM promotions WHERE code = ? LIMIT 1`,
		strings.ToUpper(code)).Scan(
		&promoID, &p.Code, &p.Kind, &p.Value, &p.MinOrderAmount, &maxDiscount,
		&p.BuyN, &p.GetM, &p.MaxUses, &p.UsedCount, &p.MaxUsesPerUser,
		&p.StartsAt, &p.ExpiresAt, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("promo %s: %w", code, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lecture promo: %w", err)
	}

	p.ID = promoID.String()
	if maxDiscount > 0 {
		p.MaxDiscount = &maxDiscount
	}
	return &p, nil
}

func (r *ScyllaPromotionRepository) List(_ context.Context) ([]models.Promotion, error) {
	session, err := r.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT ` + promoColumns + ` FROM promotions`).Iter()
	defer iter.Close()

	var promos []models.Promotion
	var p models.Promotion
	var promoID gocql.UUID
	var maxDiscount int64

	for iter.Scan(&promoID, &p.Code, &p.Kind, &p.Value, &p.MinOrderAmount, &maxDiscount,
		&p.BuyN, &p.GetM, &p.MaxUses, &p.UsedCount, &p.MaxUsesPerUser,
		&p.StartsAt, &p.ExpiresAt, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt) {
		p.ID = promoID.String()
		if maxDiscount > 0 {
			d := maxDiscount
			p.MaxDiscount = &d
		}
		promos = append(promos, p)
		p = models.Promotion{}
		maxDiscount = 0
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture promos: %w", err)
	}
	return promos, nil
}

func (r *ScyllaPromotionRepository) Create(_ context.Context, p models.Promotion) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	promoID, err := gocql.ParseUUID(p.ID)
	if err != nil {
		return fmt.Errorf("id promo invalide: %w", apperr.ErrValidation)
	}

	// Le code est la clé — un doublon se détecte avant l'insertion.
	var existing string
	if err := session.Query(`SELECT code FROM promotions WHERE code = ? LIMIT 1`,
		p.Code).Scan(&existing); err == nil {
		return fmt.Errorf("promo %s: %w", p.Code, apperr.ErrConflict)
	}

	var maxDiscount int64
	if p.MaxDiscount != nil {
		maxDiscount = *p.MaxDiscount
	}

	return session.Query(`INSERT INTO promotions (`+promoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		promoID, p.Code, p.Kind, p.Value, p.MinOrderAmount, maxDiscount,
		p.BuyN, p.GetM, p.MaxUses, p.UsedCount, p.MaxUsesPerUser,
		p.StartsAt, p.ExpiresAt, p.IsActive, p.CreatedBy, p.CreatedAt, p.UpdatedAt).Exec()
}

func (r *ScyllaPromotionRepository) Update(_ context.Context, p models.Promotion) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	var maxDiscount int64
	if p.MaxDiscount != nil {
		maxDiscount = *p.MaxDiscount
	}

	return session.Query(`UPDATE promotions SET kind = ?, value = ?, min_order_amount = ?,
		max_discount = ?, buy_n = ?, get_m = ?, max_uses = ?, max_uses_per_user = ?,
		starts_at = ?, expires_at = ?, is_active = ?, updated_at = ? WHERE code = ?`,
		p.Kind, p.Value, p.MinOrderAmount, maxDiscount, p.BuyN, p.GetM,
		p.MaxUses, p.MaxUsesPerUser, p.StartsAt, p.ExpiresAt, p.IsActive,
		p.UpdatedAt, p.Code).Exec()
}

func (r *ScyllaPromotionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	// La table est indexée par code ; on retrouve le code depuis la liste.
	promos, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range promos {
		if p.ID == id {
			return session.Query(`DELETE FROM promotions WHERE code = ?`, p.Code).Exec()
		}
	}
	return fmt.Errorf("promo %s: %w", id, apperr.ErrNotFound)
}

func (r *ScyllaPromotionRepository) UsageCountByUser(_ context.Context, promoID, userID string) (int, error) {
	session, err := r.session()
	if err != nil {
		return 0, err
	}

	pid, err := gocql.ParseUUID(promoID)
	if err != nil {
		return 0, fmt.Errorf("id promo invalide: %w", apperr.ErrValidation)
	}

	var count int
	err = session.Query(`SELECT COUNT(*) FROM promotion_usage WHERE promo_id = ? AND user_id = ?`,
		pid, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("lecture utilisations promo: %w", err)
	}
	return count, nil
}

func (r *ScyllaPromotionRepository) RecordUsage(_ context.Context, usage models.PromotionUsage) error {
	session, err := r.session()
	if err != nil {
		return err
	}

	pid, err := gocql.ParseUUID(usage.PromoID)
	if err != nil {
		return fmt.Errorf("id promo invalide: %w", apperr.ErrValidation)
	}
	uid, err := gocql.ParseUUID(usage.ID)
	if err != nil {
		return fmt.Errorf("id utilisation invalide: %w", apperr.ErrValidation)
	}
	oid, err := gocql.ParseUUID(usage.OrderID)
	if err != nil {
		return fmt.Errorf("id commande invalide: %w", apperr.ErrValidation)
	}

	if err := session.Query(`INSERT INTO promotion_usage (promo_id, user_id, usage_id, order_id, used_at)
		VALUES (?, ?, ?, ?, ?)`, pid, usage.UserID, uid, oid, usage.UsedAt).Exec(); err != nil {
		return fmt.Errorf("enregistrement utilisation promo: %w", err)
	}

	// Compteur global : lecture puis réécriture. Un léger décalage sous
	// forte concurrence est acceptable, la limite dure par utilisateur
	// passe par promotion_usage.
	var code, c string
	var usedCount, u int
	var scannedID gocql.UUID

	iter := session.Query(`SELECT promo_id, code, used_count FROM promotions`).Iter()
	for iter.Scan(&scannedID, &c, &u) {
		if scannedID == pid {
			code, usedCount = c, u
		}
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("lecture compteur promo: %w", err)
	}
	if code == "" {
		return nil
	}
	return session.Query(`UPDATE promotions SET used_count = ? WHERE code = ?`,
		usedCount+1, code).Exec()
}
