package pipeline

import (
	"context"

	"github.com/ddrcode/charon/internal/bus"
)

// Actor subscribes to KeyInput and runs every event through the
// processor chain, publishing whatever the chain's tail stage
// produces: KeyOutput, and occasionally System.
type Actor struct {
	name   string
	broker *bus.Broker
	chain  *Chain
}

// NewActor builds the pipeline actor. name is used both as the actor's
// identity and as the Sender recorded on every envelope it publishes.
func NewActor(name string, broker *bus.Broker, chain *Chain) *Actor {
	return &Actor{name: name, broker: broker, chain: chain}
}

func (a *Actor) Name() string { return a.name }

func (a *Actor) HandleEvent(ctx context.Context, env bus.Envelope) error {
	if env.Payload.Kind == bus.KindExit {
		return nil
	}
	for _, out := range a.chain.Run(env, a.name) {
		a.broker.Publish(ctx, env.Reply(a.name, out))
	}
	return nil
}
