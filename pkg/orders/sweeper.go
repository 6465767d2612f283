package orders

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/events"
)

// Sweeper expires online orders whose payment never completed.
type Sweeper struct {
	orders   OrderStore
	events   events.Publisher
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(orders OrderStore, publisher events.Publisher, ttl, interval time.Duration) *Sweeper {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Sweeper{orders: orders, events: publisher, ttl: ttl, interval: interval, now: time.Now}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				log.Error().Err(err).Msg("orphan order sweep failed")
			}
		}
	}
}

// SweepOnce deletes unpaid online orders older than the TTL and reports how many were removed.
// Orders removed before a storage error still get their expiry event.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := s.now().Add(-s.ttl)
	expired, err := s.orders.DeleteStaleUnpaid(ctx, cutoff)
	for i := range expired {
		ev := events.ForOrder(events.OrderExpired, &expired[i])
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Warn().Err(err).Str("orderId", ev.OrderID).Msg("order event not delivered")
		}
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Time("cutoff", cutoff).Msg("expired unpaid online orders")
	}
	return len(expired), err
}
