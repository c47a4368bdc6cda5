package content

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const (
	EventWelcome      = "welcome"
	EventMutation     = "mutation"
	EventReconnect    = "reconnect"
	EventChannelError = "channelError"
	EventDisconnect   = "disconnect"
)

type ListenOptions struct {
	// IncludeResult asks the API to attach the post-mutation document when it
	// still matches the listened query.
	IncludeResult bool
}

// MutationEvent is one item of the content API change feed.
type MutationEvent struct {
	EventID    string          `json:"eventId"`
	DocumentID string          `json:"documentId"`
	Transition string          `json:"transition"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// Matches reports whether the event carries a result, i.e. the mutated
// document still matches the listened query.
func (e MutationEvent) Matches() bool {
	r := strings.TrimSpace(string(e.Result))
	return r != "" && r != "null"
}

// ListenEvent is delivered on the channel returned by Listen. Exactly one of
// Mutation or Err is set for mutation and error events.
type ListenEvent struct {
	Type     string
	Mutation *MutationEvent
	Err      error
}

// Listen opens the mutation feed for q. The returned channel is closed when
// ctx is cancelled or the stream ends; a stream failure is delivered as a
// final event with Err set.
func (c *httpClient) Listen(ctx context.Context, q QueryDescriptor, opts ListenOptions) (<-chan ListenEvent, error) {
	extra := url.Values{}
	if opts.IncludeResult {
		extra.Set("includeResult", "true")
	}

	target, err := c.endpoint("listen", q, extra)
	if err != nil {
		return nil, &SubscriptionError{Client: c.cfg.Name, Err: err}
	}

	req, err := c.newRequest(ctx, target, "text/event-stream")
	if err != nil {
		return nil, &SubscriptionError{Client: c.cfg.Name, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, &SubscriptionError{Client: c.cfg.Name, Err: newFetchError(c.cfg.Name, "listen", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, &SubscriptionError{Client: c.cfg.Name, Err: &FetchError{
			Client:     c.cfg.Name,
			Operation:  "listen",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Retryable:  isRetryableStatus(resp.StatusCode),
		}}
	}

	events := make(chan ListenEvent, 16)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		err := readEventStream(resp.Body, func(name string, data []byte) bool {
			ev, stop := decodeListenEvent(c.cfg.Name, name, data)
			if ev == nil {
				return !stop
			}
			select {
			case events <- *ev:
			case <-ctx.Done():
				return false
			}
			return !stop
		})

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			select {
			case events <- ListenEvent{Err: &SubscriptionError{Client: c.cfg.Name, Err: newFetchError(c.cfg.Name, "listen read", err)}}:
			case <-ctx.Done():
			}
		}
	}()

	return events, nil
}

// decodeListenEvent maps one server-sent event to a ListenEvent. stop is true
// when the stream must not be read any further.
func decodeListenEvent(client, name string, data []byte) (ev *ListenEvent, stop bool) {
	switch name {
	case EventMutation:
		var m MutationEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return &ListenEvent{Type: name, Err: &SubscriptionError{Client: client, Err: fmt.Errorf("decode mutation: %w", err)}}, false
		}
		return &ListenEvent{Type: name, Mutation: &m}, false
	case EventWelcome, EventReconnect:
		return &ListenEvent{Type: name}, false
	case EventChannelError:
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &payload)
		if payload.Message == "" {
			payload.Message = strings.TrimSpace(string(data))
		}
		return &ListenEvent{Type: name, Err: &SubscriptionError{Client: client, Err: fmt.Errorf("channel error: %s", payload.Message)}}, true
	case EventDisconnect:
		return &ListenEvent{Type: name, Err: &SubscriptionError{Client: client, Err: ErrChannelClosed}}, true
	default:
		return nil, false
	}
}

// readEventStream parses a text/event-stream body and calls emit per event.
// It returns nil when emit asks to stop and errStreamInterrupted on EOF.
func readEventStream(r io.Reader, emit func(name string, data []byte) bool) error {
	reader := bufio.NewReader(r)
	var (
		name string
		data []string
	)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return errStreamInterrupted
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if len(data) > 0 || name != "" {
				if name == "" {
					name = "message"
				}
				if !emit(name, []byte(strings.Join(data, "\n"))) {
					return nil
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
