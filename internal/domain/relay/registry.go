package relay

import "sync"

// Client is one connected remote endpoint.
//
// Send must not block indefinitely: implementations queue the bytes for
// their own writer and report an error when they cannot keep up. The
// slice passed to Send is shared between clients and must not be modified.
type Client interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry tracks connected clients in join order.
//
// Snapshot returns a copy, so callers may iterate while other goroutines
// add or remove members.
type Registry struct {
	mu      sync.RWMutex
	clients []Client
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a client. It reports false if the ID is already present.
func (r *Registry) Add(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.clients {
		if existing.ID() == c.ID() {
			return false
		}
	}
	r.clients = append(r.clients, c)
	return true
}

// Remove unregisters the client with the given ID and returns it.
func (r *Registry) Remove(id string) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.clients {
		if c.ID() == id {
			r.clients = append(r.clients[:i:i], r.clients[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// Get looks up a client by ID
func (r *Registry) Get(id string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Snapshot returns the current members in join order.
func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, len(r.clients))
	copy(out, r.clients)
	return out
}

// Len returns the number of registered clients
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Clear removes and returns every client.
func (r *Registry) Clear() []Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.clients
	r.clients = nil
	return out
}
