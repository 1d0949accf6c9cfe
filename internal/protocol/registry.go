package protocol

import (
	"fmt"
	"sync"
)

// Capability classifies what an agent answers for, mirroring a directory
// service entry.
type Capability string

const (
	CapabilityRoom    Capability = "room"
	CapabilityTeacher Capability = "teacher"
)

// Handle is what a lookup returns: enough to address an agent without
// sharing any of its state.
type Handle struct {
	ID      string
	Mailbox *Mailbox
}

// Registry is the in-memory name/discovery service. Agents register at
// startup, deregister when they terminate, and look up counterparties by
// capability. Lookups return a fresh snapshot: an agent that deregistered is
// gone from the next lookup.
type Registry struct {
	mu      sync.RWMutex
	handles map[Capability][]Handle
	ids     map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[Capability][]Handle),
		ids:     make(map[string]Capability),
	}
}

func (r *Registry) Register(id string, capability Capability, mailbox *Mailbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ids[id]; exists {
		return fmt.Errorf("agent %q already registered", id)
	}
	r.ids[id] = capability
	r.handles[capability] = append(r.handles[capability], Handle{ID: id, Mailbox: mailbox})
	return nil
}

func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capability, exists := r.ids[id]
	if !exists {
		return
	}
	delete(r.ids, id)
	handles := r.handles[capability]
	for i, handle := range handles {
		if handle.ID == id {
			r.handles[capability] = append(handles[:i:i], handles[i+1:]...)
			break
		}
	}
}

// Lookup returns the registered handles for a capability in registration
// order. The slice is a copy and stays valid after later changes.
func (r *Registry) Lookup(capability Capability) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := r.handles[capability]
	snapshot := make([]Handle, len(handles))
	copy(snapshot, handles)
	return snapshot
}
