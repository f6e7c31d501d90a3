package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/01moynul/artisansloom-golang/internal/marketplace"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

//
// --- Product Handlers ---
//

// CreateProductInput is the data of createProduct. Price is in minor units.
type CreateProductInput struct {
	ArtisanID   string   `json:"artisanId"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Price       int64    `json:"price" binding:"gt=0"`
	Stock       int      `json:"stock" binding:"gte=0"`
	Category    string   `json:"category"`
	Region      string   `json:"region"`
	Materials   []string `json:"materials"`
}

// CreateProduct handles createProduct (artisans and admins).
func (h *Handlers) CreateProduct(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	input, ok := bind[CreateProductInput](h, c, "createProduct")
	if !ok {
		return
	}

	product, err := h.Market.CreateProduct(c.Request.Context(), caller, marketplace.ProductInput{
		ArtisanID:   input.ArtisanID,
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Region:      input.Region,
		Materials:   input.Materials,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"productId": product.ID, "product": product})
}

// UpdateProductInput is the data of updateProduct; absent fields are kept.
type UpdateProductInput struct {
	ProductID   string   `json:"productId" binding:"required"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
	Price       *int64   `json:"price"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"category"`
	Region      *string  `json:"region"`
	Materials   []string `json:"materials"`
}

// UpdateProduct handles updateProduct (owning artisan or admin).
func (h *Handlers) UpdateProduct(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	input, ok := bind[UpdateProductInput](h, c, "updateProduct")
	if !ok {
		return
	}

	product, err := h.Market.UpdateProduct(c.Request.Context(), caller, input.ProductID, marketplace.ProductPatch{
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Region:      input.Region,
		Materials:   input.Materials,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"product": product})
}

// ProductIDInput carries a single product id.
type ProductIDInput struct {
	ProductID string `json:"productId" binding:"required"`
}

// GetProduct handles getProduct (public).
func (h *Handlers) GetProduct(c *gin.Context) {
	input, ok := bind[ProductIDInput](h, c, "getProduct")
	if !ok {
		return
	}
	product, err := h.Market.GetProduct(c.Request.Context(), input.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"product": product})
}

// ListProductsInput is the data of listProducts.
type ListProductsInput struct {
	ArtisanID string `json:"artisanId"`
	Category  string `json:"category"`
	Region    string `json:"region"`
}

// ListProducts handles listProducts (public).
func (h *Handlers) ListProducts(c *gin.Context) {
	input, ok := bind[ListProductsInput](h, c, "listProducts")
	if !ok {
		return
	}
	products, err := h.Market.ListProducts(c.Request.Context(), store.ProductFilter{
		ArtisanID: input.ArtisanID,
		Category:  input.Category,
		Region:    input.Region,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"products": products})
}
