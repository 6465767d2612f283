package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

// ConflictError means the server copy moved past the version the client last saw.
type ConflictError struct {
	Version int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cart version conflict, server is at %d", e.Version)
}

// Pusher writes the full cart to the server and returns the new version.
type Pusher interface {
	Push(ctx context.Context, items models.CartItems, version *int64) (int64, error)
}

var errSuperseded = errors.New("snapshot superseded")

// Syncer pushes cart snapshots from a single goroutine. Pending snapshots coalesce so only the
// latest one is sent; transient failures are retried with exponential backoff.
type Syncer struct {
	pusher     Pusher
	onError    func(error)
	newBackOff func() backoff.BackOff

	mu       sync.Mutex
	pending  models.CartItems
	queued   bool
	version  *int64
	closed   bool
	wake     chan struct{}
	closing  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

type SyncerOption func(*Syncer)

// WithErrorHandler is told about every snapshot that could not be saved, conflicts included.
func WithErrorHandler(fn func(error)) SyncerOption {
	return func(s *Syncer) { s.onError = fn }
}

func WithBackOff(fn func() backoff.BackOff) SyncerOption {
	return func(s *Syncer) { s.newBackOff = fn }
}

func NewSyncer(pusher Pusher, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		pusher: pusher,
		onError: func(err error) {
			log.Warn().Err(err).Msg("cart sync failed")
		},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the push loop until ctx ends or Close is called.
func (s *Syncer) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Enqueue replaces any pending snapshot with items.
func (s *Syncer) Enqueue(items models.CartItems) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = items.Clone()
	s.queued = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SetVersion seeds the version, typically from the cart fetched at login.
func (s *Syncer) SetVersion(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = &v
}

// Version is the last version the server acknowledged or reported.
func (s *Syncer) Version() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == nil {
		return 0, false
	}
	return *s.version, true
}

// Close pushes whatever is still pending and waits for the loop to exit.
func (s *Syncer) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.closing)
	})
	<-s.done
}

func (s *Syncer) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			s.drain(ctx)
			return
		case <-s.wake:
			s.drain(ctx)
		}
	}
}

func (s *Syncer) drain(ctx context.Context) {
	for {
		items, ok := s.take()
		if !ok {
			return
		}
		s.push(ctx, items)
	}
}

func (s *Syncer) take() (models.CartItems, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.queued {
		return nil, false
	}
	items := s.pending
	s.pending = nil
	s.queued = false
	return items, true
}

func (s *Syncer) superseded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

func (s *Syncer) currentVersion() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == nil {
		return nil
	}
	v := *s.version
	return &v
}

func (s *Syncer) push(ctx context.Context, items models.CartItems) {
	op := func() error {
		if s.superseded() {
			return backoff.Permanent(errSuperseded)
		}
		v, err := s.pusher.Push(ctx, items, s.currentVersion())
		if err == nil {
			s.SetVersion(v)
			return nil
		}
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			// Adopt the server version so the next mutation overwrites it.
			s.SetVersion(conflict.Version)
			return backoff.Permanent(err)
		}
		switch global.KindOf(err) {
		case global.KindValidation, global.KindNotAuthorized, global.KindNotFound:
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx))
	if err != nil && !errors.Is(err, errSuperseded) {
		s.onError(err)
	}
}
