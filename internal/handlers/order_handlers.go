package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/01moynul/artisansloom-golang/internal/models"
)

//
// --- Order Handlers ---
//

// GetMyOrders handles getMyOrders: the caller's purchases.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	orders, err := h.Market.MyOrders(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"orders": orders})
}

// GetArtisanOrders handles getArtisanOrders: orders containing the
// caller's products, narrowed to those products.
func (h *Handlers) GetArtisanOrders(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	orders, err := h.Market.ArtisanOrders(c.Request.Context(), caller.UID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"orders": orders})
}

// OrderIDInput carries a single order id.
type OrderIDInput struct {
	OrderID string `json:"orderId" binding:"required"`
}

// GetOrder handles getOrder.
func (h *Handlers) GetOrder(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	input, ok := bind[OrderIDInput](h, c, "getOrder")
	if !ok {
		return
	}
	order, err := h.Market.GetOrder(c.Request.Context(), caller, input.OrderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"order": order})
}

// UpdateOrderStatusInput is the data of updateOrderStatus.
type UpdateOrderStatusInput struct {
	OrderID string             `json:"orderId" binding:"required"`
	Status  models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus handles updateOrderStatus (involved artisan or admin).
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	input, ok := bind[UpdateOrderStatusInput](h, c, "updateOrderStatus")
	if !ok {
		return
	}
	order, err := h.Market.UpdateOrderStatus(c.Request.Context(), caller, input.OrderID, input.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"order": order})
}
