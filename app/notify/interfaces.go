package notify

import (
	"context"
)

// Notifier delivers rendered notifications to the downstream channel.
// Probe checks that the channel is reachable without sending anything.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Probe(ctx context.Context) error
	Close() error
}
