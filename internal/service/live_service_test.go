package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"portfolio-be/internal/pkg/logger"
	"portfolio-be/pkg/content"
	"portfolio-be/pkg/debounce"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var homeDescriptor = content.QueryDescriptor{Query: `*[_type=="home"]`, Params: map[string]interface{}{}}

func relevant(id string) content.ListenEvent {
	return content.ListenEvent{Type: content.EventMutation, Mutation: &content.MutationEvent{
		EventID:    id,
		DocumentID: "drafts.home",
		Result:     json.RawMessage(`{"_id":"drafts.home"}`),
	}}
}

func irrelevant(id string) content.ListenEvent {
	return content.ListenEvent{Type: content.EventMutation, Mutation: &content.MutationEvent{EventID: id, DocumentID: "other"}}
}

// feed wires the preview client to an unbuffered channel so that a send
// returns only once the subscriber has picked the event up.
func feed(client *fakeClient) chan content.ListenEvent {
	events := make(chan content.ListenEvent)
	client.listenFn = func(ctx context.Context, call int) (<-chan content.ListenEvent, error) {
		out := make(chan content.ListenEvent)
		go func() {
			defer close(out)
			for {
				select {
				case ev := <-events:
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
	return events
}

// send delivers ev and waits until the subscriber has handled it, using an
// irrelevant event as a barrier.
func send(events chan content.ListenEvent, ev content.ListenEvent) {
	events <- ev
	events <- irrelevant("barrier")
	events <- irrelevant("barrier")
}

type recorder struct {
	mu        sync.Mutex
	delivered []uint64
	data      []string
	errs      []error
}

func (r *recorder) handlers(refetch func(ctx context.Context) (json.RawMessage, error)) LiveHandlers {
	return LiveHandlers{
		Refetch: refetch,
		Deliver: func(seq uint64, data json.RawMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.delivered = append(r.delivered, seq)
			r.data = append(r.data, string(data))
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) snapshot() ([]uint64, []string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.delivered...), append([]string(nil), r.data...), append([]error(nil), r.errs...)
}

func newTestSubscriber(preview content.Client, clock debounce.Clock, cfg LiveConfig) ILiveSubscriber {
	return NewLiveSubscriber(content.NewSelectorFromClients(newFakeClient("published"), preview), cfg, logger.NewNopLogger(), WithLiveClock(clock))
}

func TestLiveSubscriber_BurstRefetchesOnceAfterQuietWindow(t *testing.T) {
	preview := newFakeClient("preview")
	events := feed(preview)
	clock := debounce.NewManualClock(t0)
	live := newTestSubscriber(preview, clock, LiveConfig{DebounceWindow: time.Second})

	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{"heroTitle":"v"}`), nil
	}))
	require.NoError(t, err)
	defer sub.Close()

	events <- content.ListenEvent{Type: content.EventWelcome}
	send(events, relevant("e1"))
	clock.Advance(400 * time.Millisecond)
	send(events, relevant("e2"))

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, uint64(0), sub.Issued(), "no refetch before the window elapses")

	// the refetch is issued inside Advance, at the deadline
	clock.Advance(time.Millisecond)
	assert.Equal(t, uint64(1), sub.Issued())
	assert.Equal(t, t0.Add(1400*time.Millisecond), clock.Now())

	assert.Eventually(t, func() bool {
		delivered, _, _ := rec.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	clock.Advance(5 * time.Second)
	assert.Equal(t, uint64(1), sub.Issued())

	delivered, data, errs := rec.snapshot()
	assert.Equal(t, []uint64{1}, delivered)
	assert.Equal(t, []string{`{"heroTitle":"v"}`}, data)
	assert.Empty(t, errs)
	assert.Equal(t, 1, preview.listenCount())
}

func TestLiveSubscriber_SkipsEventsWithoutResult(t *testing.T) {
	preview := newFakeClient("preview")
	events := feed(preview)
	clock := debounce.NewManualClock(t0)
	live := newTestSubscriber(preview, clock, LiveConfig{DebounceWindow: time.Second})

	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	}))
	require.NoError(t, err)
	defer sub.Close()

	send(events, irrelevant("e1"))
	send(events, content.ListenEvent{Type: content.EventMutation, Mutation: &content.MutationEvent{EventID: "e2", Result: json.RawMessage("null")}})
	send(events, content.ListenEvent{Type: content.EventMutation, Err: errors.New("bad json")})

	clock.Advance(5 * time.Second)
	assert.Equal(t, uint64(0), sub.Issued())
	assert.Equal(t, 0, clock.Pending())
}

func TestLiveSubscriber_LastIssuedRefetchWins(t *testing.T) {
	preview := newFakeClient("preview")
	events := feed(preview)
	clock := debounce.NewManualClock(t0)
	live := newTestSubscriber(preview, clock, LiveConfig{DebounceWindow: time.Second})

	release := make(chan struct{})
	var calls int32
	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(func(ctx context.Context) (json.RawMessage, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// the first response is slow and arrives after the second
			<-release
			return json.RawMessage(`"stale"`), nil
		}
		return json.RawMessage(`"fresh"`), nil
	}))
	require.NoError(t, err)
	defer sub.Close()

	send(events, relevant("e1"))
	clock.Advance(time.Second)
	send(events, relevant("e2"))
	clock.Advance(time.Second)
	assert.Equal(t, uint64(2), sub.Issued())

	assert.Eventually(t, func() bool {
		delivered, _, _ := rec.snapshot()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	delivered, data, _ := rec.snapshot()
	assert.Equal(t, []uint64{2}, delivered)
	assert.Equal(t, []string{`"fresh"`}, data)
}

func TestLiveSubscriber_CloseCancelsPendingAndInflight(t *testing.T) {
	preview := newFakeClient("preview")
	events := feed(preview)
	clock := debounce.NewManualClock(t0)
	live := newTestSubscriber(preview, clock, LiveConfig{DebounceWindow: time.Second})

	started := make(chan struct{})
	var cancelled int32
	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(func(ctx context.Context) (json.RawMessage, error) {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&cancelled, 1)
		return nil, ctx.Err()
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, live.Active())

	send(events, relevant("e1"))
	clock.Advance(time.Second)
	<-started

	// a second burst is still pending when the page goes away
	send(events, relevant("e2"))
	assert.Equal(t, 1, clock.Pending())

	sub.Close()
	sub.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, 0, live.Active())

	select {
	case <-sub.Done():
	default:
		t.Fatal("listen loop still running after Close")
	}

	clock.Advance(5 * time.Second)
	assert.Equal(t, uint64(1), sub.Issued())
	delivered, _, errs := rec.snapshot()
	assert.Empty(t, delivered)
	assert.Empty(t, errs)
}

func TestLiveSubscriber_ReconnectsAfterInterruptedStream(t *testing.T) {
	preview := newFakeClient("preview")
	preview.listenFn = func(ctx context.Context, call int) (<-chan content.ListenEvent, error) {
		out := make(chan content.ListenEvent, 2)
		if call == 1 {
			out <- content.ListenEvent{Type: content.EventWelcome}
			out <- content.ListenEvent{Err: &content.SubscriptionError{Client: "preview", Err: &content.FetchError{Client: "preview", Operation: "listen read", Retryable: true}}}
			close(out)
			return out, nil
		}
		out <- content.ListenEvent{Type: content.EventWelcome}
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}

	live := newTestSubscriber(preview, debounce.NewManualClock(t0), LiveConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(func(ctx context.Context) (json.RawMessage, error) {
		return nil, nil
	}))
	require.NoError(t, err)
	defer sub.Close()

	assert.Eventually(t, func() bool { return preview.listenCount() == 2 }, time.Second, 5*time.Millisecond)
	_, _, errs := rec.snapshot()
	assert.Empty(t, errs)
}

func TestLiveSubscriber_GivesUpAfterMaxRetries(t *testing.T) {
	preview := newFakeClient("preview")
	preview.listenFn = func(ctx context.Context, call int) (<-chan content.ListenEvent, error) {
		return nil, &content.SubscriptionError{Client: "preview", Err: &content.FetchError{Client: "preview", Operation: "listen", StatusCode: 503, Retryable: true}}
	}

	live := newTestSubscriber(preview, debounce.NewManualClock(t0), LiveConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(nil))
	require.NoError(t, err)
	defer sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not give up")
	}

	assert.Equal(t, 3, preview.listenCount())
	_, _, errs := rec.snapshot()
	require.Len(t, errs, 1)
	var subErr *content.SubscriptionError
	require.ErrorAs(t, errs[0], &subErr)
	assert.Equal(t, 3, subErr.Attempts)
}

func TestLiveSubscriber_DisconnectIsNotRetried(t *testing.T) {
	preview := newFakeClient("preview")
	preview.listenFn = func(ctx context.Context, call int) (<-chan content.ListenEvent, error) {
		out := make(chan content.ListenEvent, 1)
		out <- content.ListenEvent{Type: content.EventDisconnect, Err: &content.SubscriptionError{Client: "preview", Err: content.ErrChannelClosed}}
		close(out)
		return out, nil
	}

	live := newTestSubscriber(preview, debounce.NewManualClock(t0), LiveConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	rec := &recorder{}
	sub, err := live.Subscribe(context.Background(), homeDescriptor, rec.handlers(nil))
	require.NoError(t, err)
	defer sub.Close()

	<-sub.Done()
	assert.Equal(t, 1, preview.listenCount())
	_, _, errs := rec.snapshot()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], content.ErrChannelClosed)
}

func TestLiveSubscriber_RequiresPreviewClient(t *testing.T) {
	live := NewLiveSubscriber(content.NewSelectorFromClients(newFakeClient("published"), nil), LiveConfig{}, logger.NewNopLogger())

	sub, err := live.Subscribe(context.Background(), homeDescriptor, LiveHandlers{})
	assert.Nil(t, sub)
	var unavailable *content.ClientUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 0, live.Active())
}

func TestLiveSubscriber_CloseAll(t *testing.T) {
	live := newTestSubscriber(newFakeClient("preview"), debounce.NewManualClock(t0), LiveConfig{})
	for i := 0; i < 3; i++ {
		_, err := live.Subscribe(context.Background(), homeDescriptor, LiveHandlers{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, live.Active())

	live.CloseAll()
	assert.Equal(t, 0, live.Active())
}
