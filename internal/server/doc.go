// Package server implements the Connection Gateway of the roomchat relay.
//
// The implementation is organized into specialized files for configuration,
// the connection hub, clients, routing, metrics and HTTP handlers. Room
// membership and fan-out live in package room; this package owns the
// WebSocket streams and translates between the two.
package server
