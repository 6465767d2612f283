package router

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/global"
)

const maxWebhookBody = 64 << 10

// StripeWebhook handles POST /stripe. A 500 tells Stripe to redeliver.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: unreadable body")
		return
	}

	ctx, cancel := global.RequestTimer(c.Request.Context())
	defer cancel()

	err = h.Webhooks.HandleWebhook(ctx, payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case global.IsKind(err, global.KindSignatureVerification):
		respondError(c, err)
	default:
		log.Error().Err(err).Str("requestId", c.GetString(requestIDKey)).Msg("webhook not applied, asking for redelivery")
		c.JSON(http.StatusInternalServerError, gin.H{"received": false})
	}
}
