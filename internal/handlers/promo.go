package handlers

import (
	"net/http"
	"time"

	"cmcafe_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/offers — promos actives visibles par tous les clients
func (h *Handlers) ListOffers(c *gin.Context) {
	promos, err := h.Promos.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	offers := make([]models.Promotion, 0, len(promos))
	for _, p := range promos {
		if !p.IsActive {
			continue
		}
		if !p.StartsAt.IsZero() && now.Before(p.StartsAt) {
			continue
		}
		if !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt) {
			continue
		}
		offers = append(offers, p)
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// POST /api/promos/validate — prévisualise la remise sur le panier courant
func (h *Handlers) ValidatePromo(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	_, breakdown, err := h.Carts.Get(c.Request.Context(), userID, input.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	if breakdown.PromoRejected != "" {
		c.JSON(http.StatusOK, gin.H{
			"valid":  false,
			"reason": breakdown.PromoRejected,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"breakdown": breakdown,
	})
}

// ================== ADMIN ==================

type promoInput struct {
	Code           string     `json:"code" binding:"required"`
	Kind           string     `json:"kind" binding:"required"`
	Value          int64      `json:"value"`
	MinOrderAmount int64      `json:"min_order_amount"`
	MaxDiscount    *int64     `json:"max_discount"`
	BuyN           int        `json:"buy_n"`
	GetM           int        `json:"get_m"`
	MaxUses        int        `json:"max_uses"`
	MaxUsesPerUser int        `json:"max_uses_per_user"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       bool       `json:"is_active"`
}

func (in promoInput) apply(p *models.Promotion) {
	p.Code = in.Code
	p.Kind = in.Kind
	p.Value = in.Value
	p.MinOrderAmount = in.MinOrderAmount
	p.MaxDiscount = in.MaxDiscount
	p.BuyN = in.BuyN
	p.GetM = in.GetM
	p.MaxUses = in.MaxUses
	p.MaxUsesPerUser = in.MaxUsesPerUser
	if in.StartsAt != nil {
		p.StartsAt = *in.StartsAt
	}
	if in.ExpiresAt != nil {
		p.ExpiresAt = *in.ExpiresAt
	}
	p.IsActive = in.IsActive
}

// POST /api/admin/promos
func (h *Handlers) CreatePromo(c *gin.Context) {
	var input promoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if !validPromoKind(input.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de promo inconnu: " + input.Kind})
		return
	}

	now := time.Now()
	promo := models.Promotion{
		ID:        uuid.NewString(),
		CreatedBy: c.GetString("user_id"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.apply(&promo)

	if err := h.Promos.Create(c.Request.Context(), promo); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"promo": promo})
}

// PUT /api/admin/promos/:id
func (h *Handlers) UpdatePromo(c *gin.Context) {
	var input promoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if !validPromoKind(input.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de promo inconnu: " + input.Kind})
		return
	}

	promos, err := h.Promos.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	id := c.Param("id")
	for _, p := range promos {
		if p.ID != id {
			continue
		}
		input.apply(&p)
		p.UpdatedAt = time.Now()
		if err := h.Promos.Update(c.Request.Context(), p); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"promo": p})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Promo introuvable"})
}

// DELETE /api/admin/promos/:id
func (h *Handlers) DeletePromo(c *gin.Context) {
	if err := h.Promos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GET /api/admin/promos
func (h *Handlers) ListPromos(c *gin.Context) {
	promos, err := h.Promos.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promos": promos})
}

func validPromoKind(kind string) bool {
	switch kind {
	case models.PromoPercentage, models.PromoFixedAmount, models.PromoBuyNGetM:
		return true
	}
	return false
}
