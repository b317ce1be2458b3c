// Package eventbus carries outcome events over watermill. The bus publishes
// each event on a topic named after its type, so consumers subscribe only to
// the outcomes they care about.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/flowforge/flowforge/pkg/events"
)

type EventHandler func(ctx context.Context, event events.Event) error

type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
	Subscribe(ctx context.Context, eventType events.EventType, handler EventHandler) error
	Close() error
}

// WatermillEventBus adapts a watermill publisher/subscriber pair to the
// typed event surface.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{publisher: pub, subscriber: sub}
}

func (eb *WatermillEventBus) Publish(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(string(event.GetType()), msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context, eventType events.EventType, handler EventHandler) error {
	messages, err := eb.subscriber.Subscribe(ctx, string(eventType))
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventType, err)
	}

	go func() {
		for msg := range messages {
			event := newEvent(eventType)
			if event == nil {
				msg.Nack()

				continue
			}

			if err := json.Unmarshal(msg.Payload, event); err != nil {
				msg.Nack()

				continue
			}

			if err := handler(ctx, event.(events.Event)); err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		return err
	}

	return eb.subscriber.Close()
}

// newEvent returns a pointer to the concrete event for the type, or nil for
// unknown types.
func newEvent(eventType events.EventType) any {
	switch eventType {
	case events.WorkflowGeneratedEvent:
		return &events.WorkflowGenerated{}
	case events.WorkflowEditAppliedEvent:
		return &events.WorkflowEditApplied{}
	case events.WorkflowEditRejectedEvent:
		return &events.WorkflowEditRejected{}
	case events.WorkflowExecutedEvent:
		return &events.WorkflowExecuted{}
	default:
		return nil
	}
}
