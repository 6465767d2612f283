package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"greencart.dev/storefront/pkg/ai"
	"greencart.dev/storefront/pkg/events"
	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
	"greencart.dev/storefront/pkg/orders"
)

type OrderPlacer interface {
	PlaceCOD(ctx context.Context, in orders.PlaceOrderInput) (*models.Order, error)
	PlaceOnline(ctx context.Context, in orders.PlaceOrderInput, origin string) (string, error)
}

type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type OrderLister interface {
	UserOrders(ctx context.Context, userID string) ([]models.OrderView, error)
	AllOrders(ctx context.Context) ([]models.OrderView, error)
}

type CartKeeper interface {
	Get(ctx context.Context, userID string) (models.CartItems, int64, error)
	Update(ctx context.Context, userID string, items models.CartItems, version *int64) (int64, error)
}

type DigestReporter interface {
	DigestReport(ctx context.Context, orders []models.OrderView, currencySymbol string) *ai.AIReportResponse
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the services the HTTP layer talks to. main builds it once.
type Handler struct {
	Orders   OrderPlacer
	Webhooks WebhookProcessor
	History  OrderLister
	Carts    CartKeeper
	Reports  DigestReporter
	Feed     events.Subscriber
	Health   Pinger

	CurrencySymbol string
	AllowedOrigins []string
}

func NewEngine(cfg global.Config, h *Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if h.AllowedOrigins == nil {
		h.AllowedOrigins = cfg.FrontendOrigins
	}
	if h.CurrencySymbol == "" {
		h.CurrencySymbol = cfg.CurrencySymbol
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendOrigins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := NewAuthenticator(cfg.JWTSecret, cfg.SellerEmail)
	limiter := NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	// Stripe needs the raw body for signature verification, so this stays outside /api.
	// It is not rate limited: deliveries arrive from a few Stripe addresses and are signed.
	router.POST("/stripe", h.StripeWebhook)

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		cart := api.Group("/cart")
		cart.Use(auth.User())
		{
			cart.GET("", h.GetCart)
			cart.POST("/update", h.UpdateCart)
		}

		order := api.Group("/order")
		{
			order.POST("/cod", auth.User(), limiter.Limit(), h.PlaceCOD)
			order.POST("/stripe", auth.User(), limiter.Limit(), h.PlaceOnline)
			order.GET("/user", auth.User(), h.UserOrders)

			seller := order.Group("/seller")
			seller.Use(auth.Seller())
			{
				seller.GET("", h.SellerOrders)
				seller.GET("/report", h.SellerReport)
				seller.GET("/feed", h.SellerFeed)
			}
		}
	}
	return router
}
