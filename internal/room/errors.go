package room

import "errors"

var (
	// ErrRoomFull is returned by Join when the room has reached its limit.
	ErrRoomFull = errors.New("room is full")

	// ErrInvalidLimit is returned by SetLimit for non-positive limits.
	ErrInvalidLimit = errors.New("room limit must be a positive integer")
)
