package service

import (
	"context"
	"encoding/json"
	"sync"

	"portfolio-be/pkg/content"
	"portfolio-be/pkg/events"
)

type fakeClient struct {
	name string

	mu       sync.Mutex
	results  map[string]json.RawMessage
	fetchErr error
	fetches  []content.QueryDescriptor
	listens  int
	listenFn func(ctx context.Context, call int) (<-chan content.ListenEvent, error)
}

func newFakeClient(name string) *fakeClient {
	return &fakeClient{name: name, results: map[string]json.RawMessage{}}
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Config() content.Config { return content.Config{Name: f.name} }

func (f *fakeClient) setResult(query, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[query] = json.RawMessage(raw)
}

func (f *fakeClient) Fetch(ctx context.Context, q content.QueryDescriptor) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, q)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if raw, ok := f.results[q.Query]; ok {
		return raw, nil
	}
	return json.RawMessage("null"), nil
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeClient) Listen(ctx context.Context, q content.QueryDescriptor, opts content.ListenOptions) (<-chan content.ListenEvent, error) {
	f.mu.Lock()
	f.listens++
	call := f.listens
	fn := f.listenFn
	f.mu.Unlock()

	if fn == nil {
		ch := make(chan content.ListenEvent)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch, nil
	}
	return fn(ctx, call)
}

func (f *fakeClient) listenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listens
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
