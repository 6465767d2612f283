package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/internal/router"
	"greencart.dev/storefront/pkg/ai"
	"greencart.dev/storefront/pkg/cart"
	"greencart.dev/storefront/pkg/events"
	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/mongo"
	"greencart.dev/storefront/pkg/orders"
	"greencart.dev/storefront/pkg/payment"
	"greencart.dev/storefront/pkg/redis"
)

func main() {
	envErr := godotenv.Load()
	global.InitLogger(global.GetEnvOrDefault("ENV", "development"))
	if envErr != nil {
		log.Info().Msg("No .env file loaded, using process environment")
	}

	cfg, err := global.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := global.GetDefaultTimer()
	store, err := mongo.Connect(startCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	if err := store.EnsureIndexes(startCtx); err != nil {
		log.Error().Err(err).Msg("Index creation failed")
	}
	rdb, err := redis.NewClient(startCtx, cfg.RedisAddress, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	cancel()
	log.Info().Str("address", cfg.RedisAddress).Msg("Connected to Redis successfully")

	bus := events.NewRedisBus(rdb, events.DefaultChannel)
	publishers := events.Multi{bus}
	if cfg.RabbitURL != "" {
		broker, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ unavailable, order events go to Redis only")
		} else {
			defer broker.Close()
			publishers = append(publishers, broker)
		}
	}

	if cfg.StripeSecretKey == "" || cfg.StripeWebhookSecret == "" {
		log.Warn().Msg("Stripe keys not set, online checkout and webhooks will fail")
	}
	gateway := payment.NewStripe(payment.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.Currency,
		Timeout:       cfg.GatewayTimeout,
		SessionTTL:    cfg.CheckoutSessionTTL,
	})

	products := store.Products()
	users := store.Users()
	orderRepo := store.Orders()

	sweeper := orders.NewSweeper(orderRepo, publishers, cfg.OrphanOrderTTL, cfg.OrphanSweepInterval)
	go sweeper.Run(ctx)

	engine := router.NewEngine(cfg, &router.Handler{
		Orders:   orders.NewService(products, orderRepo, gateway, publishers),
		Webhooks: orders.NewReconciler(gateway, orderRepo, users, redis.NewWebhookLedger(rdb), publishers),
		History:  orders.NewQuery(orderRepo, redis.NewProductCache(rdb, products), store.Addresses()),
		Carts:    cart.NewService(users),
		Reports:  ai.NewReporter(cfg.AIEndpoint, cfg.AIAPIKey, cfg.AIDeployment),
		Feed:     bus,
		Health:   store,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to run server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown incomplete")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Redis close failed")
	}
	if err := store.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect failed")
	}
}
