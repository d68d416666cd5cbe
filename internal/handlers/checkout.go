package handlers

import (
	"errors"
	"net/http"

	"cmcafe_back_end/internal/apperr"

	"github.com/gin-gonic/gin"
)

// 💳 POST /api/checkout/intent
func (h *Handlers) CreateCheckoutIntent(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" || email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié ou e-mail manquant"})
		return
	}

	var input struct {
		PromoCode string `json:"promo_code"`
	}
	// Corps optionnel : un checkout sans code promo est valide.
	_ = c.ShouldBindJSON(&input)

	_, intent, err := h.Checkout.Begin(c.Request.Context(), userID, email, input.PromoCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"paymentId":    intent.ID,
	})
}

// 🔔 POST /api/checkout/webhook — callback du prestataire, signature vérifiée
func (h *Handlers) CheckoutWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	_, err = h.Checkout.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		// Un doublon n'est pas une erreur pour le prestataire : on répond
		// 200 pour arrêter les retries.
		if errors.Is(err, apperr.ErrDuplicateCommit) {
			c.Status(http.StatusOK)
			return
		}
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ✅ POST /api/checkout/verify — le client annonce avoir payé ; le serveur
// revérifie chez le prestataire avant de créer quoi que ce soit.
func (h *Handlers) VerifyCheckout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		PaymentID string `json:"payment_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := h.Checkout.Verify(c.Request.Context(), userID, input.PaymentID)
	if err != nil {
		// Le webhook est peut-être passé avant : même commande, même réponse.
		if errors.Is(err, apperr.ErrDuplicateCommit) && order != nil {
			c.JSON(http.StatusOK, gin.H{"order": order})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
