package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
	"greencart.dev/storefront/pkg/orders"
)

func orderInput(c *gin.Context) (orders.PlaceOrderInput, bool) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return orders.PlaceOrderInput{}, false
	}
	return orders.PlaceOrderInput{
		UserID:  c.GetString(userIDKey),
		Items:   req.Items,
		Address: req.Address,
	}, true
}

// PlaceCOD handles POST /api/order/cod
func (h *Handler) PlaceCOD(c *gin.Context) {
	in, ok := orderInput(c)
	if !ok {
		return
	}
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	if _, err := h.Orders.PlaceCOD(ctx, in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.MessageResponse("Order Placed Successfully"))
}

// PlaceOnline handles POST /api/order/stripe
func (h *Handler) PlaceOnline(c *gin.Context) {
	in, ok := orderInput(c)
	if !ok {
		return
	}
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	url, err := h.Orders.PlaceOnline(ctx, in, c.GetHeader("Origin"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"url": url}))
}

func (h *Handler) UserOrders(c *gin.Context) {
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	list, err := h.History.UserOrders(ctx, c.GetString(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"orders": list}))
}

func (h *Handler) SellerOrders(c *gin.Context) {
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	list, err := h.History.AllOrders(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"orders": list}))
}

// SellerReport handles GET /api/order/seller/report
func (h *Handler) SellerReport(c *gin.Context) {
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	list, err := h.History.AllOrders(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	report := h.Reports.DigestReport(c.Request.Context(), list, h.CurrencySymbol)
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"report": report}))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	if err := h.Health.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Database connection failed", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{"status": "OK", "database": "Connected"}))
}
