package handlers

import (
	"net/http"

	"cmcafe_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// 🟢 GET /api/cart?promo=
func (h *Handlers) GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	cart, breakdown, err := h.Carts.Get(c.Request.Context(), userID, c.Query("promo"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":      cart,
		"breakdown": breakdown,
	})
}

// 🟢 POST /api/cart
func (h *Handlers) AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID      string                `json:"product_id" binding:"required"`
		Quantity       int                   `json:"quantity" binding:"required"`
		Customizations models.Customizations `json:"customizations"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	line, err := h.Carts.Add(c.Request.Context(), userID, input.ProductID, input.Quantity, input.Customizations)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"line": line})
}

// 🟢 PUT /api/cart/:lineId
func (h *Handlers) UpdateCartLine(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	line, err := h.Carts.UpdateQuantity(c.Request.Context(), userID, c.Param("lineId"), input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if line == nil {
		// Quantité 0 : la ligne a été retirée.
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line})
}

// 🟢 DELETE /api/cart/:lineId
func (h *Handlers) RemoveCartLine(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	if err := h.Carts.Remove(c.Request.Context(), userID, c.Param("lineId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// 🟢 DELETE /api/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	if err := h.Carts.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
