package global

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when MONGODB_URI is missing")
	}

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("ORPHAN_ORDER_TTL", "not-a-duration")
	t.Setenv("FRONTEND_ORIGINS", "https://shop.example, ,https://admin.example")
	t.Setenv("RATE_LIMIT_BURST", "20")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.GatewayTimeout != 3*time.Second {
		t.Errorf("GatewayTimeout = %v, want 3s", cfg.GatewayTimeout)
	}
	if cfg.OrphanOrderTTL != 96*time.Hour {
		t.Errorf("OrphanOrderTTL = %v, want default 96h", cfg.OrphanOrderTTL)
	}
	if cfg.CheckoutSessionTTL != 45*time.Minute {
		t.Errorf("CheckoutSessionTTL = %v, want default 45m", cfg.CheckoutSessionTTL)
	}
	if len(cfg.FrontendOrigins) != 2 || cfg.FrontendOrigins[1] != "https://admin.example" {
		t.Errorf("FrontendOrigins = %v", cfg.FrontendOrigins)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want 20", cfg.RateLimitBurst)
	}
	if cfg.MongoDatabase != "greenShop" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
}

func TestLoadConfigRejectsOrphanTTLInsideRetryWindow(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CHECKOUT_SESSION_TTL", "1h")

	t.Setenv("ORPHAN_ORDER_TTL", "24h")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when unpaid orders expire before Stripe stops retrying")
	}

	t.Setenv("ORPHAN_ORDER_TTL", "73h")
	if _, err := LoadConfig(); err != nil {
		t.Fatalf("73h should cover a 1h session plus the retry window: %v", err)
	}
}
