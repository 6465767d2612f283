package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/cart"
	"greencart.dev/storefront/pkg/global"
)

// respondError maps a service error onto the storefront envelope. Everything except a bad
// webhook signature is answered with HTTP 200 and success:false.
func respondError(c *gin.Context, err error) {
	kind := global.KindOf(err)
	logger := log.With().Str("requestId", c.GetString(requestIDKey)).Str("kind", kind.String()).Logger()

	switch kind {
	case global.KindSignatureVerification:
		logger.Warn().Err(err).Msg("webhook rejected")
		c.String(http.StatusBadRequest, "Webhook Error: %s", publicMessage(err))
	case global.KindConflict:
		var conflict *cart.ConflictError
		body := gin.H{"success": false, "code": "conflict", "message": publicMessage(err)}
		if errors.As(err, &conflict) {
			body["version"] = conflict.Version
		}
		c.JSON(http.StatusOK, body)
	case global.KindValidation, global.KindNotAuthorized, global.KindNotFound:
		logger.Debug().Err(err).Msg("request rejected")
		c.JSON(http.StatusOK, global.ErrorResponse(publicMessage(err), nil))
	case global.KindGatewayTimeout:
		logger.Error().Err(err).Msg("payment provider timed out")
		c.JSON(http.StatusOK, global.ErrorResponse("Payment provider timed out, please try again", nil))
	case global.KindUpstream:
		logger.Error().Err(err).Msg("payment provider error")
		c.JSON(http.StatusOK, global.ErrorResponse("Payment provider unavailable, please try again", nil))
	default:
		logger.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusOK, global.ErrorResponse("Something went wrong, please try again", nil))
	}
}

// publicMessage is the classified message without the wrapped cause.
func publicMessage(err error) string {
	var e *global.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, global.ErrorResponse("Invalid data", []global.ValidationError{
		{Field: "body", Message: err.Error(), Code: "json_parse_error"},
	}))
}
