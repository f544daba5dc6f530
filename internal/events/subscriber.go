package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Message is one received deal event with the subject it arrived on.
type Message struct {
	Subject string
	Event   DealEvent
}

// Tail delivers deal events under prefix to fn until ctx is done. Messages
// that fail to decode are skipped.
func Tail(ctx context.Context, nc *nats.Conn, prefix string, fn func(Message)) error {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ch := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(prefix+".deal.>", ch)
	if err != nil {
		return fmt.Errorf("subscribing to %s.deal.>: %w", prefix, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-ch:
			var ev DealEvent
			if err := json.Unmarshal(m.Data, &ev); err != nil {
				continue
			}
			fn(Message{Subject: m.Subject, Event: ev})
		}
	}
}
