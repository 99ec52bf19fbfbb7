package events

import (
	"context"
	"errors"
	"time"
)

// Event describes a change to a record, published after the store accepted it.
type Event struct {
	Type       string    `json:"type"`
	Entity     string    `json:"entity"`
	ID         string    `json:"id"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event named "<entity>.<action>".
func New(entity, action, id string, data any) Event {
	return Event{
		Type:       entity + "." + action,
		Entity:     entity,
		ID:         id,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher is the interface used by services to publish change events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Fanout publishes each event to every member and joins their errors.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
