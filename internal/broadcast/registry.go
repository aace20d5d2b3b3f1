package broadcast

import "slices"

// Registry is the set of attached clients, kept in attach order.
// Not safe for concurrent use; the Hub goroutine owns it.
type Registry struct {
	clients []Client
	index   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add attaches c. It returns false if a client with the same ID is already attached.
func (r *Registry) Add(c Client) bool {
	if _, exists := r.index[c.ID()]; exists {
		return false
	}
	r.index[c.ID()] = len(r.clients)
	r.clients = append(r.clients, c)
	return true
}

func (r *Registry) Contains(c Client) bool {
	_, exists := r.index[c.ID()]
	return exists
}

// Remove detaches c. Removing an absent client is a no-op that returns false.
func (r *Registry) Remove(c Client) bool {
	pos, exists := r.index[c.ID()]
	if !exists {
		return false
	}

	delete(r.index, c.ID())
	r.clients = slices.Delete(r.clients, pos, pos+1)
	for i := pos; i < len(r.clients); i++ {
		r.index[r.clients[i].ID()] = i
	}
	return true
}

// Snapshot returns a copy of the attached clients. Callers iterate the copy, so the
// registry may change while they do.
func (r *Registry) Snapshot() []Client {
	out := make([]Client, len(r.clients))
	copy(out, r.clients)
	return out
}

func (r *Registry) Len() int {
	return len(r.clients)
}
