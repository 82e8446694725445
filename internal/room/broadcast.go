package room

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultDeliveryTimeout = 2 * time.Second
	defaultWorkers         = 16
)

// Deliverer pushes a message to the stream behind a handle. Implementations
// must return once ctx is done.
type Deliverer interface {
	Deliver(ctx context.Context, h Handle, message string) error
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, h Handle, message string) error

// Deliver calls f(ctx, h, message).
func (f DelivererFunc) Deliver(ctx context.Context, h Handle, message string) error {
	return f(ctx, h, message)
}

// BroadcastConfig tunes fan-out. Zero values select the defaults.
type BroadcastConfig struct {
	// Timeout bounds a single delivery attempt to one member.
	Timeout time.Duration
	// Workers caps how many members are delivered to at once. With one
	// worker delivery is sequential in join order.
	Workers int
}

// Broadcaster fans messages out to every member of a room.
type Broadcaster struct {
	registry *Registry
	out      Deliverer
	timeout  time.Duration
	workers  int
}

// NewBroadcaster creates a Broadcaster reading membership from registry and
// delivering through out.
func NewBroadcaster(registry *Registry, out Deliverer, cfg BroadcastConfig) *Broadcaster {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDeliveryTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Broadcaster{
		registry: registry,
		out:      out,
		timeout:  cfg.Timeout,
		workers:  cfg.Workers,
	}
}

// Broadcast delivers message to every member of the room as of the call and
// returns how many members were attempted. Delivery is best effort: a failed
// or timed out member does not affect the others and is not reported.
func (b *Broadcaster) Broadcast(key, message string) int {
	members := b.registry.Members(key)
	if len(members) == 0 {
		return 0
	}

	var g errgroup.Group
	g.SetLimit(b.workers)
	for _, h := range members {
		h := h
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
			defer cancel()
			_ = b.out.Deliver(ctx, h, message)
			return nil
		})
	}
	_ = g.Wait()

	return len(members)
}
