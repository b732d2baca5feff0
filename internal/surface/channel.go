package surface

import (
	"context"
	"fmt"
)

// EventDirective is the event name directives are emitted under.
const EventDirective = "preview:directive"

// Emitter posts an event to the frontend hosting the preview surface.
type Emitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Channel sends directives to the surface as encoded envelopes. Sending does
// not wait for the surface: completion comes back later as a done signal.
type Channel struct {
	emitter Emitter
	event   string
}

// NewChannel creates a Channel emitting on EventDirective.
func NewChannel(emitter Emitter) *Channel {
	return &Channel{emitter: emitter, event: EventDirective}
}

// Send encodes d and emits it.
func (c *Channel) Send(ctx context.Context, d Directive) error {
	data, err := Encode(d)
	if err != nil {
		return fmt.Errorf("send directive: %w", err)
	}
	c.emitter.Emit(ctx, c.event, string(data))
	return nil
}
