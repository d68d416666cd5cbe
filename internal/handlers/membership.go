package handlers

import (
	"net/http"

	"cmcafe_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// GET /api/membership — progression vers le statut Golden 7-Star.
// Les points : 1 point par ₹10 dépensés (total en paise / 1000).
func (h *Handlers) GetMembership(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	spent, err := h.Orders.TotalSpent(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	tier := "standard"
	if spent >= models.GoldenTierThreshold {
		tier = "golden7star"
	}

	remaining := models.GoldenTierThreshold - spent
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"membership": models.Membership{
			UserID:        userID,
			Tier:          tier,
			TotalSpent:    spent,
			PointsBalance: spent / 1000,
		},
		"remaining_to_golden": remaining,
	})
}
