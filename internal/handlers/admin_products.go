package handlers

import (
	"net/http"
	"time"

	"cmcafe_back_end/internal/cache"
	"cmcafe_back_end/internal/models"
	"cmcafe_back_end/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type productInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" binding:"required"` // en paise
	CategoryID  string   `json:"category_id"`
	Available   *bool    `json:"available"`
	IsSpecial   bool     `json:"is_special"`
	Tags        []string `json:"tags"`
}

// POST /api/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix invalide"})
		return
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}

	now := time.Now()
	product := models.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Available:   available,
		IsSpecial:   input.IsSpecial,
		Tags:        input.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Products.Create(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}

	// Indexation recherche, best-effort.
	go service.IndexProduct(product)

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// PUT /api/admin/products/:id
func (h *Handlers) UpdateProduct(c *gin.Context) {
	product, err := h.Products.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	if input.Available != nil {
		product.Available = *input.Available
	}
	product.IsSpecial = input.IsSpecial
	product.Tags = input.Tags
	product.UpdatedAt = time.Now()

	if err := h.Products.Update(c.Request.Context(), *product); err != nil {
		respondError(c, err)
		return
	}

	cache.Invalidate(c.Request.Context(), product.ID)
	go service.IndexProduct(*product)

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// POST /api/admin/products/:id/image — upload vers MinIO
func (h *Handlers) UploadProductImage(c *gin.Context) {
	product, err := h.Products.ByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier image manquant"})
		return
	}

	url, err := service.UploadProductImage(c.Request.Context(), product.ID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Échec upload image"})
		return
	}

	product.ImageURL = url
	product.UpdatedAt = time.Now()
	if err := h.Products.Update(c.Request.Context(), *product); err != nil {
		respondError(c, err)
		return
	}

	cache.Invalidate(c.Request.Context(), product.ID)

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// POST /api/admin/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input struct {
		Name         string `json:"name" binding:"required"`
		Description  string `json:"description"`
		DisplayOrder int    `json:"display_order"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	category := models.Category{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Description:  input.Description,
		DisplayOrder: input.DisplayOrder,
	}
	if err := h.Categories.Create(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}
