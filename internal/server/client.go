// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomchat/internal/room"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	sendQueueLen = 256
)

// Client represents one WebSocket connection admitted to a room. The client
// owns the stream; the room registry only ever sees its handle.
type Client struct {
	conn     *websocket.Conn
	send     chan string
	done     chan struct{}
	doneOnce sync.Once
	leftOnce sync.Once

	handle  room.Handle
	id      string
	roomKey string
	addr    string
	gateway *Gateway
	log     *slog.Logger

	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
}

// newClient wraps conn for clientID in roomKey and mints its handle.
func newClient(g *Gateway, conn *websocket.Conn, addr, roomKey, clientID string) *Client {
	if conn != nil {
		conn.SetReadLimit(g.cfg.MaxMessageSize)
	}
	handle := room.NewHandle()

	return &Client{
		conn:           conn,
		send:           make(chan string, sendQueueLen),
		done:           make(chan struct{}),
		handle:         handle,
		id:             clientID,
		roomKey:        roomKey,
		addr:           addr,
		gateway:        g,
		log:            g.log.With("room", roomKey, "client", clientID, "addr", addr),
		maxMessageSize: g.cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(g.cfg.RateLimit),
		rateLimit:      g.cfg.RateLimit,
	}
}

// enqueue places message on the send queue. It fails once the client is
// closed and gives up when ctx is done.
func (c *Client) enqueue(ctx context.Context, message string) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- message:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) markClosed() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("ws.close", "err", err)
	}
}

// reject tells the client why it was not admitted and closes the stream.
func (c *Client) reject(notice string) {
	defer c.closeConn()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("ws.write_deadline", "err", err)
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(notice)); err != nil {
		c.log.Warn("ws.reject.notice", "err", err)
		return
	}
	closeMsg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "room is full")
	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("ws.reject.close", "err", err)
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("ws.read_deadline", "err", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("ws.read_deadline.pong", "err", err)
		}
		return nil
	})
}

// handleReadError logs the read failure at a level matching its cause. Every
// read error ends the read loop.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("ws.read.too_large", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Info("ws.disconnected", "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Info("ws.closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("ws.read.unexpected_close", "err", err)
	default:
		c.log.Warn("ws.read", "err", err)
	}
}

// checkRateLimit reports whether the next inbound message may be relayed.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.gateway.metrics.rateLimitedFrames.Inc()
		c.log.Warn("ws.rate_limited", "burst", c.rateLimit.Burst, "interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// readPump relays every inbound text frame to the room until the stream
// ends, then removes the client from its room exactly once.
func (c *Client) readPump() {
	defer c.leave()

	c.setupReadConnection()

	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			c.log.Debug("ws.read.non_text", "type", messageType)
			continue
		}

		if !c.checkRateLimit() {
			continue
		}

		c.gateway.broadcast(c.roomKey, chatMessage(c.id, string(payload)))
	}
}

// leave runs the termination path: registry removal, hub removal, departure
// announcement and stream close.
func (c *Client) leave() {
	c.leftOnce.Do(func() {
		c.gateway.registry.Leave(c.roomKey, c.handle)
		c.gateway.hub.unregister(c.handle)
		c.gateway.metrics.connections.Dec()
		c.log.Info("room.leave")

		c.gateway.broadcast(c.roomKey, leftNotice(c.id))
		c.closeConn()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message := <-c.send:
		return c.writeTextMessage(message)
	case <-c.done:
		return c.writeCloseMessage()
	case <-ticker.C:
		return c.handlePing()
	}
}

// writeCloseMessage sends a close frame to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("ws.write.close", "err", err)
		}
	}
	return false
}

// writeTextMessage writes one queued message as its own text frame
func (c *Client) writeTextMessage(message string) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("ws.write_deadline", "err", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("ws.write", "err", err)
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("ws.write_deadline.ping", "err", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("ws.ping", "err", err)
		}
		return false
	}
	return true
}
