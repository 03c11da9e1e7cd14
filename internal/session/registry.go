package session

import (
	"errors"
	"sync"
)

// ErrDuplicateConnection means the transport handed us a connection id that is
// already live. Ids are generated uniquely upstream, so this is a bug there,
// not something to paper over with a silent overwrite.
var ErrDuplicateConnection = errors.New("connection id already registered")

// Registry owns the lifetime of every live connection. Nothing else in the
// package may be trusted to say whether a connection is alive.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; ok {
		return ErrDuplicateConnection
	}
	r.clients[c.ID] = c
	return nil
}

// Unregister removes a connection. Removing an unknown id is a no-op so the
// disconnect path stays idempotent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

func (r *Registry) Lookup(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
