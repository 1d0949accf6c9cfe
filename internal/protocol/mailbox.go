package protocol

import "sync"

// Mailbox is one agent's inbox. Delivery never blocks: a full or closed
// mailbox drops the message, and the sender's deadline machinery treats the
// silence as a non-reply.
type Mailbox struct {
	mu     sync.RWMutex
	ch     chan Message
	closed bool
}

func NewMailbox(capacity int) *Mailbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Mailbox{ch: make(chan Message, capacity)}
}

// Deliver queues msg and reports whether it was accepted.
func (m *Mailbox) Deliver(msg Message) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false
	}
	select {
	case m.ch <- msg:
		return true
	default:
		return false
	}
}

// Receive exposes the inbox for use in a select loop.
func (m *Mailbox) Receive() <-chan Message {
	return m.ch
}

// Close stops future deliveries. Messages already queued remain readable.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}
