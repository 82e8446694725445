// Package server keeps the table of live connections for the relay via the
// Hub type and resolves room handles back to their WebSocket clients.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/room"
)

// Hub owns every live client connection, keyed by the room.Handle minted for
// it. It implements room.Deliverer so the broadcaster can reach clients
// without knowing about WebSockets.
type Hub struct {
	mu      sync.RWMutex
	clients map[room.Handle]*Client
	closing bool
	wg      sync.WaitGroup
	metrics *metrics
	log     *slog.Logger
}

func newHub(m *metrics, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[room.Handle]*Client),
		metrics: m,
		log:     logger,
	}
}

// register adds a client to the table. It returns false once shutdown began.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return false
	}
	h.clients[c.handle] = c
	return true
}

// unregister drops the client and stops its write pump. Unknown handles are
// ignored.
func (h *Hub) unregister(handle room.Handle) {
	h.mu.Lock()
	c, ok := h.clients[handle]
	if ok {
		delete(h.clients, handle)
	}
	h.mu.Unlock()

	if ok {
		c.markClosed()
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver queues message on the client behind handle, waiting at most until
// ctx is done for room in its send buffer.
func (h *Hub) Deliver(ctx context.Context, handle room.Handle, message string) error {
	h.metrics.deliveries.Inc()

	h.mu.RLock()
	c, ok := h.clients[handle]
	h.mu.RUnlock()

	var err error
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownConnection, handle)
	} else {
		err = c.enqueue(ctx, message)
	}

	if err != nil {
		h.metrics.deliveryFailures.Inc()
		h.log.Debug("ws.deliver.failed", "handle", handle.String(), "err", err)
	}
	return err
}

// run starts fn in a goroutine tracked by the hub's wait group.
func (h *Hub) run(fn func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn()
	}()
}

// shutdownClients closes every live connection so the pumps exit.
func (h *Hub) shutdownClients() {
	h.log.Info("hub.shutdown.clients")

	h.mu.Lock()
	h.closing = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.closeConn()
	}

	h.log.Info("hub.shutdown.closed", "count", len(clients))
}

// Shutdown closes all client connections and waits for their goroutines to
// finish, giving up after timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("hub.shutdown.start")

	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("hub.shutdown.complete")
		return nil
	case <-time.After(timeout):
		h.log.Warn("hub.shutdown.timeout", "timeout", timeout)
		return context.DeadlineExceeded
	}
}
