package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/notify"
)

//
// --- Cart & Checkout Handlers ---
//

// UpdateCartInput is the data of updateCart. Quantity 0 removes the item.
type UpdateCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

// UpdateCart handles updateCart.
func (h *Handlers) UpdateCart(c *gin.Context) {
	const op = "updateCart"

	// 1. Who is asking
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	// 2. Parse input
	input, ok := bind[UpdateCartInput](h, c, op)
	if !ok {
		return
	}

	// 3. Apply
	if err := h.Market.UpdateCart(c.Request.Context(), caller.UID, input.ProductID, *input.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"success": true})
}

// GetCart handles getCart.
func (h *Handlers) GetCart(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	items, err := h.Market.GetCart(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err)
		return
	}

	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	h.ok(c, gin.H{
		"cart":      items,
		"total":     models.CartTotal(items),
		"itemCount": count,
	})
}

// CreateOrderInput is the data of createOrder.
type CreateOrderInput struct {
	ShippingInfo map[string]any `json:"shippingInfo"`
}

// CreateOrder handles createOrder: the caller's cart becomes an order.
func (h *Handlers) CreateOrder(c *gin.Context) {
	const op = "createOrder"

	// 1. Who is asking
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	// 2. Parse input
	input, ok := bind[CreateOrderInput](h, c, op)
	if !ok {
		return
	}

	// 3. Run the checkout transaction
	order, err := h.Market.CreateOrder(c.Request.Context(), caller.UID, input.ShippingInfo)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 4. Notify
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	h.publish(c.Request.Context(), notify.EventOrderCreated, notify.OrderCreated{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Email:      caller.Email,
		Total:      order.Total,
		ItemCount:  count,
		ArtisanIDs: order.ArtisanIDs,
	})

	h.ok(c, gin.H{"orderId": order.ID})
}
