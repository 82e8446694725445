package room

import "github.com/google/uuid"

// Handle is an opaque token identifying one live connection. The gateway that
// mints a handle is the only party able to resolve it back to a stream.
type Handle uuid.UUID

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}
