package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cmcafe_back_end/internal/models"
)

// GET /api/wishlist
func (h *Handlers) GetWishlist(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	items, err := h.Wishlist.ByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// POST /api/wishlist
func (h *Handlers) AddToWishlist(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// Le produit doit exister — une wishlist de fantômes n'aide personne.
	product, err := h.Products.ByID(c.Request.Context(), input.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	item := models.WishlistItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: product.ID,
		CreatedAt: time.Now(),
	}
	if err := h.Wishlist.Add(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// DELETE /api/wishlist/:itemId
func (h *Handlers) RemoveFromWishlist(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	if err := h.Wishlist.Remove(c.Request.Context(), userID, c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}
