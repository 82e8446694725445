// Package room tracks which connections belong to which chat room and fans
// messages out to every member of a room.
//
// The Registry holds membership and capacity limits. Connections are
// represented by opaque Handle values; the registry never owns, closes or
// otherwise controls the underlying streams. The Broadcaster resolves handles
// back to streams through a Deliverer supplied by the caller.
package room
