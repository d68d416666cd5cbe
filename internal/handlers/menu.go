package handlers

import (
	"net/http"

	"cmcafe_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

// GET /api/menu/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.Categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GET /api/menu/products?category=
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.Products.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GET /api/menu/product/:id — avec la grille des suppléments, le client
// peut afficher le prix d'une personnalisation sans round-trip.
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Products.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":    product,
		"surcharges": h.Surcharges,
	})
}

// GET /api/menu/search?q=
func (h *Handlers) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q manquant"})
		return
	}

	products, err := service.SearchProducts(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recherche indisponible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
