package handlers

import (
	"net/http"

	"cmcafe_back_end/internal/apperr"
	"cmcafe_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	orders, err := h.Orders.ByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GET /api/orders/:id/tracking
func (h *Handlers) GetOrderTracking(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	events, err := h.Lifecycle.TrackingHistory(c.Request.Context(), order.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"events":       events,
	})
}

// PUT /api/orders/:id/status — réservé admin
func (h *Handlers) AdvanceOrderStatus(c *gin.Context) {
	var input struct {
		Status   string `json:"status" binding:"required"`
		Message  string `json:"message"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := h.Lifecycle.Advance(c.Request.Context(), c.Param("id"),
		models.OrderStatus(input.Status), input.Message, input.Location)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// POST /api/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	order, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	cancelled, err := h.Lifecycle.Cancel(c.Request.Context(), order.ID, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": cancelled})
}

// ownedOrder charge la commande et vérifie qu'elle appartient bien à
// l'utilisateur courant. Un admin voit toutes les commandes.
func (h *Handlers) ownedOrder(c *gin.Context) (*models.Order, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return nil, false
	}

	order, err := h.Orders.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if order.UserID != userID && c.GetString("role") != "admin" {
		respondError(c, apperr.ErrNotFound)
		return nil, false
	}
	return order, true
}
