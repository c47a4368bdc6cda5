package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"portfolio-be/internal/pkg/logger"
	"portfolio-be/pkg/content"
	"portfolio-be/pkg/debounce"

	"github.com/google/uuid"
)

type LiveConfig struct {
	DebounceWindow time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// LiveHandlers are the callbacks of one subscription. Refetch runs with a
// context that is cancelled when the subscription closes. Deliver is only
// called with the result of the most recently issued refetch, never from two
// goroutines at once. OnError reports a subscription that gave up.
type LiveHandlers struct {
	Refetch func(ctx context.Context) (json.RawMessage, error)
	Deliver func(seq uint64, data json.RawMessage)
	OnError func(err error)
}

type ILiveSubscriber interface {
	Subscribe(ctx context.Context, q content.QueryDescriptor, handlers LiveHandlers) (*Subscription, error)
	Active() int
	CloseAll()
}

type LiveOption func(*liveSubscriber)

// WithLiveClock replaces the clock the debounce timers run on.
func WithLiveClock(clock debounce.Clock) LiveOption {
	return func(s *liveSubscriber) { s.clock = clock }
}

type liveSubscriber struct {
	selector *content.Selector
	cfg      LiveConfig
	clock    debounce.Clock
	logger   logger.ILogger

	mu   sync.Mutex
	subs map[string]*Subscription
}

func NewLiveSubscriber(selector *content.Selector, cfg LiveConfig, log logger.ILogger, opts ...LiveOption) ILiveSubscriber {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	s := &liveSubscriber{
		selector: selector,
		cfg:      cfg,
		clock:    debounce.RealClock,
		logger:   log,
		subs:     make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe opens the change feed for q on the preview client and keeps it
// open until the returned subscription is closed or ctx is cancelled.
func (s *liveSubscriber) Subscribe(ctx context.Context, q content.QueryDescriptor, handlers LiveHandlers) (*Subscription, error) {
	client, err := s.selector.GetClient(true)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ID:       uuid.NewString(),
		client:   client,
		query:    q,
		handlers: handlers,
		cfg:      s.cfg,
		logger:   s.logger,
		ctx:      subCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	sub.debouncer = debounce.NewWithClock(s.clock, s.cfg.DebounceWindow, sub.refetch)
	sub.release = func() { s.remove(sub.ID) }

	s.mu.Lock()
	s.subs[sub.ID] = sub
	s.mu.Unlock()

	s.logger.Info("LIVE", "Subscription opened", map[string]interface{}{
		"subscription_id": sub.ID,
		"query":           q.Query,
		"params":          q.Params,
	})

	go sub.run()
	return sub, nil
}

func (s *liveSubscriber) remove(id string) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}

func (s *liveSubscriber) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// CloseAll closes every open subscription. Used on shutdown.
func (s *liveSubscriber) CloseAll() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Subscription is one live page. Close must not be called from inside a
// handler callback.
type Subscription struct {
	ID string

	client    content.Client
	query     content.QueryDescriptor
	handlers  LiveHandlers
	cfg       LiveConfig
	logger    logger.ILogger
	debouncer *debounce.Debouncer
	release   func()

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	issued   uint64
	closed   bool
	inflight sync.WaitGroup

	deliverMu sync.Mutex
	delivered uint64
}

// run keeps the listen stream open, reconnecting up to MaxRetries times in a
// row after retryable failures.
func (s *Subscription) run() {
	defer close(s.done)

	failures := 0
	for {
		err := s.listenOnce(&failures)
		if s.ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}

		if !content.IsRetryable(err) || failures >= s.cfg.MaxRetries {
			s.fail(&content.SubscriptionError{Client: s.client.Name(), Attempts: failures + 1, Err: err})
			return
		}

		delay := content.Backoff(failures, content.RetryConfig{
			BaseDelay:  s.cfg.RetryDelay,
			MaxDelay:   10 * s.cfg.RetryDelay,
			Multiplier: 2,
		})
		failures++
		s.logger.Warn("LIVE", "Listen stream failed, reconnecting", map[string]interface{}{
			"subscription_id": s.ID,
			"attempt":         failures,
			"delay":           delay.String(),
			"error":           err.Error(),
		})

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}
}

// listenOnce consumes one listen connection. A welcome event resets the
// failure count.
func (s *Subscription) listenOnce(failures *int) error {
	events, err := s.client.Listen(s.ctx, s.query, content.ListenOptions{IncludeResult: true})
	if err != nil {
		return err
	}

	for ev := range events {
		switch {
		case ev.Type == content.EventWelcome:
			*failures = 0
			s.logger.Debug("LIVE", "Listen stream connected", map[string]interface{}{"subscription_id": s.ID})
		case ev.Type == content.EventMutation && ev.Err != nil:
			s.logger.Warn("LIVE", "Skipping undecodable mutation", map[string]interface{}{
				"subscription_id": s.ID,
				"error":           ev.Err.Error(),
			})
		case ev.Err != nil:
			return ev.Err
		case ev.Type == content.EventMutation && ev.Mutation != nil:
			if !ev.Mutation.Matches() {
				continue
			}
			s.debouncer.Trigger()
		}
	}

	if s.ctx.Err() != nil {
		return nil
	}
	return errors.New("listen stream closed")
}

func (s *Subscription) fail(err error) {
	s.logger.Error("LIVE", "Subscription gave up, page keeps stale content", map[string]interface{}{
		"subscription_id": s.ID,
		"error":           err.Error(),
	})
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
}

// refetch is the debounce action. Each call gets a new sequence number; only
// the latest one may deliver.
func (s *Subscription) refetch() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.issued++
	seq := s.issued
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()

		data, err := s.handlers.Refetch(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.Warn("LIVE", "Refetch failed", map[string]interface{}{
					"subscription_id": s.ID,
					"seq":             seq,
					"error":           err.Error(),
				})
			}
			return
		}
		s.deliver(seq, data)
	}()
}

func (s *Subscription) deliver(seq uint64, data json.RawMessage) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	latest := !s.closed && seq == s.issued && seq > s.delivered
	s.mu.Unlock()
	if !latest {
		s.logger.Debug("LIVE", "Discarding superseded refetch", map[string]interface{}{
			"subscription_id": s.ID,
			"seq":             seq,
		})
		return
	}

	s.delivered = seq
	if s.handlers.Deliver != nil {
		s.handlers.Deliver(seq, data)
	}
}

// Issued returns the sequence number of the latest refetch.
func (s *Subscription) Issued() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// Close cancels the pending debounce, in-flight refetches and the listen
// stream, and waits for them to finish. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.debouncer.Stop()
		s.cancel()
		<-s.done
		s.inflight.Wait()
		s.release()

		s.logger.Info("LIVE", "Subscription closed", map[string]interface{}{"subscription_id": s.ID})
	})
}

// Done is closed when the listen loop has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
