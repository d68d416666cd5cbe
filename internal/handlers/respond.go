package handlers

import (
	"log"
	"net/http"

	"cmcafe_back_end/internal/apperr"

	"github.com/gin-gonic/gin"
)

// respondError traduit une erreur métier en réponse HTTP. Les erreurs
// internes ne remontent jamais leur détail au client.
func respondError(c *gin.Context, err error) {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Println("❌ Erreur interne:", err)
		c.JSON(status, gin.H{"error": "Erreur interne du serveur"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
