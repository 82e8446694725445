// Package server implements the Connection Gateway of the room relay: it
// accepts WebSocket streams, admits them to rooms through the registry and
// relays their messages through the broadcaster.
package server

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/room"
)

// Gateway wires the room registry and broadcaster to WebSocket clients.
type Gateway struct {
	cfg         Config
	log         *slog.Logger
	registry    *room.Registry
	broadcaster *room.Broadcaster
	hub         *Hub
	metrics     *metrics
	upgrader    websocket.Upgrader
}

// NewGateway creates a Gateway from cfg. A nil cfg selects the defaults and a
// nil logger is replaced by NewLogger(cfg.Env).
func NewGateway(cfg *Config, logger *slog.Logger) *Gateway {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := cfg.sanitize()
	if logger == nil {
		logger = NewLogger(sanitized.Env)
	}

	m := newMetrics()
	hub := newHub(m, logger)
	registry := room.NewRegistry(sanitized.Rooms.DefaultLimit)
	broadcaster := room.NewBroadcaster(registry, hub, room.BroadcastConfig{
		Timeout: sanitized.Rooms.DeliveryTimeout,
		Workers: sanitized.Rooms.BroadcastWorkers,
	})
	origins := newOriginPolicy(sanitized.AllowedOrigins, logger)

	return &Gateway{
		cfg:         sanitized,
		log:         logger,
		registry:    registry,
		broadcaster: broadcaster,
		hub:         hub,
		metrics:     m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}
}

// Registry exposes the gateway's room registry.
func (g *Gateway) Registry() *room.Registry {
	return g.registry
}

// Hub exposes the gateway's connection table.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// broadcast relays message to the room and records it.
func (g *Gateway) broadcast(roomKey, message string) int {
	n := g.broadcaster.Broadcast(roomKey, message)
	if n > 0 {
		g.metrics.broadcasts.Inc()
	}
	g.log.Debug("room.broadcast", "room", roomKey, "members", n)
	return n
}

// Shutdown closes every live connection and waits for the client goroutines.
func (g *Gateway) Shutdown(timeout time.Duration) error {
	return g.hub.Shutdown(timeout)
}
