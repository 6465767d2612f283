package global

import (
	"fmt"
	"os"
	"time"
)

// WebhookRetryWindow is how long Stripe keeps redelivering an unacknowledged live-mode event.
const WebhookRetryWindow = 72 * time.Hour

type Config struct {
	Port string
	Env  string

	MongoURI      string
	MongoDatabase string

	JWTSecret   string
	SellerEmail string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	CurrencySymbol      string
	GatewayTimeout      time.Duration
	CheckoutSessionTTL  time.Duration

	FrontendOrigins []string

	RedisAddress  string
	RedisPassword string

	RabbitURL      string
	EventsExchange string

	OrphanOrderTTL      time.Duration
	OrphanSweepInterval time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	AIEndpoint   string
	AIAPIKey     string
	AIDeployment string
}

// LoadConfig reads the process environment. Call godotenv before this if a .env file is used.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                GetEnvOrDefault("PORT", "4000"),
		Env:                 GetEnvOrDefault("ENV", "development"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		MongoDatabase:       GetEnvOrDefault("MONGODB_DATABASE", "greenShop"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SellerEmail:         os.Getenv("SELLER_EMAIL"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            GetEnvOrDefault("CURRENCY", "usd"),
		CurrencySymbol:      GetEnvOrDefault("CURRENCY_SYMBOL", "$"),
		GatewayTimeout:      GetDurationOrDefault("GATEWAY_TIMEOUT", 10*time.Second),
		CheckoutSessionTTL:  GetDurationOrDefault("CHECKOUT_SESSION_TTL", 45*time.Minute),
		FrontendOrigins:     GetListOrDefault("FRONTEND_ORIGINS", []string{"http://localhost:5173"}),
		RedisAddress:        GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:       GetEnvOrDefault("REDIS_PASSWORD", ""),
		RabbitURL:           os.Getenv("RABBITMQ_URL"),
		EventsExchange:      GetEnvOrDefault("EVENTS_EXCHANGE", "greencart.events"),
		OrphanOrderTTL:      GetDurationOrDefault("ORPHAN_ORDER_TTL", 96*time.Hour),
		OrphanSweepInterval: GetDurationOrDefault("ORPHAN_SWEEP_INTERVAL", 15*time.Minute),
		RateLimitRPS:        GetFloatOrDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      GetIntOrDefault("RATE_LIMIT_BURST", 10),
		AIEndpoint:          os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AIAPIKey:            os.Getenv("AZURE_OPENAI_API_KEY"),
		AIDeployment:        GetEnvOrDefault("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-35-turbo"),
	}

	if cfg.MongoURI == "" {
		return cfg, fmt.Errorf("MONGODB_URI is not set in environment variables")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is not set in environment variables")
	}
	// An unpaid order must outlive its checkout session and every redelivery of the payment event.
	if floor := cfg.CheckoutSessionTTL + WebhookRetryWindow; cfg.OrphanOrderTTL < floor {
		return cfg, fmt.Errorf("ORPHAN_ORDER_TTL %s must be at least %s (checkout session TTL plus webhook retry window)", cfg.OrphanOrderTTL, floor)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }
