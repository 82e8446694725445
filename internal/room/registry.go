package room

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// DefaultLimit is the capacity of a room that has no configured limit.
const DefaultLimit = 10

// cell holds the membership of a single room. Its mutex serializes the
// capacity check and the mutation that follows it.
type cell struct {
	mu      sync.Mutex
	members []Handle
	// dead is set once the cell has been emptied and unlinked from the
	// registry. Joins that grabbed the cell before the unlink retry.
	dead bool
}

// Registry maps room keys to their member connections and capacity limits.
// It is safe for concurrent use; operations on different rooms never wait on
// each other beyond the brief map lookup.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*cell

	limitsMu     sync.RWMutex
	limits       map[string]int
	defaultLimit int
}

// NewRegistry creates an empty registry. A non-positive defaultLimit falls
// back to DefaultLimit.
func NewRegistry(defaultLimit int) *Registry {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Registry{
		rooms:        make(map[string]*cell),
		limits:       make(map[string]int),
		defaultLimit: defaultLimit,
	}
}

// SetLimit records the maximum member count for a room, overwriting any
// previous value. Limits apply at admission time only; members already in the
// room are never evicted.
func (r *Registry) SetLimit(key string, maxMembers int) error {
	if maxMembers <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, maxMembers)
	}

	r.limitsMu.Lock()
	r.limits[key] = maxMembers
	r.limitsMu.Unlock()
	return nil
}

// Limit returns the effective capacity of a room.
func (r *Registry) Limit(key string) int {
	r.limitsMu.RLock()
	defer r.limitsMu.RUnlock()

	if limit, ok := r.limits[key]; ok {
		return limit
	}
	return r.defaultLimit
}

// Join admits h into the room if it has a free slot. It returns ErrRoomFull
// without mutating anything when the room is at capacity.
func (r *Registry) Join(key string, h Handle) error {
	for {
		c := r.getOrCreate(key)

		c.mu.Lock()
		if c.dead {
			c.mu.Unlock()
			continue
		}

		if len(c.members) >= r.Limit(key) {
			c.mu.Unlock()
			return ErrRoomFull
		}

		c.members = append(c.members, h)
		c.mu.Unlock()
		return nil
	}
}

// Leave removes h from the room. Unknown rooms and handles are ignored, so
// calling Leave more than once is harmless. The room entry is dropped when its
// last member leaves; its configured limit is kept.
func (r *Registry) Leave(key string, h Handle) {
	c := r.get(key)
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := slices.Index(c.members, h)
	if idx < 0 {
		return
	}
	c.members = slices.Delete(c.members, idx, idx+1)

	if len(c.members) == 0 {
		c.dead = true
		r.mu.Lock()
		if r.rooms[key] == c {
			delete(r.rooms, key)
		}
		r.mu.Unlock()
	}
}

// Members returns a copy of the room's members in join order.
func (r *Registry) Members(key string) []Handle {
	c := r.get(key)
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.members) == 0 {
		return nil
	}
	return slices.Clone(c.members)
}

// Len returns the current member count of a room.
func (r *Registry) Len(key string) int {
	c := r.get(key)
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// Rooms returns the sorted keys of every room with at least one member.
func (r *Registry) Rooms() []string {
	r.mu.Lock()
	cells := make(map[string]*cell, len(r.rooms))
	for key, c := range r.rooms {
		cells[key] = c
	}
	r.mu.Unlock()

	keys := make([]string, 0, len(cells))
	for key, c := range cells {
		c.mu.Lock()
		n := len(c.members)
		c.mu.Unlock()
		if n > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) get(key string) *cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[key]
}

func (r *Registry) getOrCreate(key string) *cell {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rooms[key]
	if !ok {
		c = &cell{}
		r.rooms[key] = c
	}
	return c
}
