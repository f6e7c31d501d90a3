package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/01moynul/artisansloom-golang/internal/ai"
	"github.com/01moynul/artisansloom-golang/internal/apperrors"
)

// GenerateListingCopy handles generateListingCopy: AI-written title,
// description and story for a piece the artisan describes.
func (h *Handlers) GenerateListingCopy(c *gin.Context) {
	const op = "generateListingCopy"

	// 1. The assistant is optional
	if h.Assistant == nil {
		h.fail(c, apperrors.New(op, apperrors.CodeUnavailable, "listing assistant is not configured"))
		return
	}

	// 2. Parse input
	input, ok := bind[ai.ListingRequest](h, c, op)
	if !ok {
		return
	}

	// 3. Ask the model
	listing, err := h.Assistant.GenerateListingCopy(c.Request.Context(), input)
	if err != nil {
		h.fail(c, apperrors.Unavailable(op, err))
		return
	}
	h.ok(c, gin.H{"listing": listing})
}
