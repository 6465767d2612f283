package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const webhookLedgerTTL = 72 * time.Hour

// WebhookLedger remembers which gateway events were already applied.
type WebhookLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewWebhookLedger(client *redis.Client) *WebhookLedger {
	return &WebhookLedger{client: client, ttl: webhookLedgerTTL}
}

func ledgerKey(eventID string) string {
	return fmt.Sprintf("webhook:processed:%s", eventID)
}

func (l *WebhookLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("ledger lookup %s: %w", eventID, err)
	}
	return n > 0, nil
}

func (l *WebhookLedger) MarkProcessed(ctx context.Context, eventID string) error {
	if err := l.client.Set(ctx, ledgerKey(eventID), time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("ledger mark %s: %w", eventID, err)
	}
	return nil
}
