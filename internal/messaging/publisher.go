package messaging

import (
	"context"
	"fmt"

	"github.com/pixil98/go-kitties/internal/chain"
	"github.com/pixil98/go-kitties/internal/kitties"
	"github.com/vmihailenco/msgpack/v5"
)

// EventSubjectPrefix is followed by the event kind, e.g. kitties.events.created.
const EventSubjectPrefix = "kitties.events."

// EventMessage is what observers receive for each committed event.
type EventMessage struct {
	ReceiptID string        `msgpack:"receipt_id"`
	Block     uint64        `msgpack:"block"`
	Index     uint32        `msgpack:"index"`
	Event     kitties.Event `msgpack:"event"`
}

// Publisher provides the ability to publish messages to subjects
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NatsPublisher publishes the events of committed extrinsics, one message
// per event.
type NatsPublisher struct {
	pub Publisher
}

func NewNatsPublisher(pub Publisher) *NatsPublisher {
	return &NatsPublisher{pub: pub}
}

func EventSubject(kind kitties.EventKind) string {
	return EventSubjectPrefix + string(kind)
}

func (p *NatsPublisher) PublishReceipt(_ context.Context, r *chain.Receipt) error {
	var firstErr error
	for _, e := range r.Events {
		data, err := msgpack.Marshal(&EventMessage{
			ReceiptID: r.ID,
			Block:     r.Block,
			Index:     r.Index,
			Event:     e,
		})
		if err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
		if err := p.pub.Publish(EventSubject(e.Kind), data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
