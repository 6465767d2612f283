package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

func (h *Handler) GetCart(c *gin.Context) {
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	items, version, err := h.Carts.Get(ctx, c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"cartItems": items, "version": version}))
}

// UpdateCart overwrites the stored cart with the client's full mapping.
func (h *Handler) UpdateCart(c *gin.Context) {
	var req models.UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	version, err := h.Carts.Update(ctx, c.GetString(userIDKey), req.CartItems, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"message": "Cart Updated", "version": version}))
}
