// Package server defines the announcement texts and shared helpers reused
// across client, hub and handler logic.
package server

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnectionClosed is returned when delivering to a connection whose
	// stream has already terminated.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrUnknownConnection is returned when a handle does not resolve to any
	// connection in the hub.
	ErrUnknownConnection = errors.New("unknown connection")
)

// roomFullNotice is sent to a client rejected because its room is at capacity.
const roomFullNotice = "Error: room is full!"

func joinedNotice(clientID string) string {
	return fmt.Sprintf("Client #%s joined the chat", clientID)
}

func leftNotice(clientID string) string {
	return fmt.Sprintf("Client #%s left the chat", clientID)
}

func chatMessage(clientID, text string) string {
	return fmt.Sprintf("Client #%s: %s", clientID, text)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
