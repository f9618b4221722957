// Package realtime defines the contract between competition views and the
// change feeds that deliver vote and contestant events.
package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcdev12/votearena/go/internal/competition/events"
)

// Subscription is a live feed of one event kind for one competition.
// The Events channel is closed when the feed drops or after Unsubscribe.
type Subscription interface {
	Events() <-chan events.Envelope
	Unsubscribe()
}

// Transport opens subscriptions scoped to a competition. Delivery is
// at-least-once with no ordering guarantee across kinds.
type Transport interface {
	Subscribe(ctx context.Context, competitionID uuid.UUID, kind events.Kind) (Subscription, error)
}

// Publisher emits events onto a transport.
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}
