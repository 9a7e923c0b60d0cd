package session

import (
	"sync"

	"github.com/google/uuid"
)

const defaultSendBuffer = 256

// Conn is the engine's handle on one client connection. The transport
// layer drains Events into the socket; the engine only ever enqueues,
// never blocks. A connection that cannot keep up is closed rather than
// allowed to stall the session worker.
type Conn struct {
	id     string
	out    chan Event
	closed chan struct{}
	once   sync.Once
}

func NewConn() *Conn {
	return &Conn{
		id:     uuid.NewString(),
		out:    make(chan Event, defaultSendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Events is the outbound queue consumed by the transport's write loop.
func (c *Conn) Events() <-chan Event { return c.out }

// Closed is signalled once the connection has been dropped.
func (c *Conn) Closed() <-chan struct{} { return c.closed }

// Close is idempotent. The actual participant removal happens when the
// transport observes the close and reports the disconnect.
func (c *Conn) Close() {
	c.once.Do(func() { close(c.closed) })
}

// Send enqueues without blocking. A full buffer means the client is
// too far behind; the connection is closed and the event dropped.
func (c *Conn) Send(ev Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.out <- ev:
		return true
	default:
		c.Close()
		return false
	}
}

type binding struct {
	conn        *Conn
	sessionID   string
	participant string
}

// ConnManager maps live connections to the session and participant
// identity they joined with, and fans broadcasts out to a session's
// connections.
type ConnManager struct {
	mu       sync.RWMutex
	conns    map[string]*binding
	sessions map[string]map[string]*Conn // sessionID -> connID -> conn
}

func NewConnManager() *ConnManager {
	return &ConnManager{
		conns:    make(map[string]*binding),
		sessions: make(map[string]map[string]*Conn),
	}
}

func (m *ConnManager) Register(conn *Conn, sessionID, participant string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns[conn.id] = &binding{conn: conn, sessionID: sessionID, participant: participant}
	if m.sessions[sessionID] == nil {
		m.sessions[sessionID] = make(map[string]*Conn)
	}
	m.sessions[sessionID][conn.id] = conn
}

// Unregister removes the connection's binding. Unknown connections are
// a no-op: a client may disconnect before ever completing a join.
func (m *ConnManager) Unregister(connID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.conns[connID]
	if !ok {
		return "", false
	}
	delete(m.conns, connID)
	if conns, ok := m.sessions[b.sessionID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(m.sessions, b.sessionID)
		}
	}
	return b.sessionID, true
}

// SessionOf resolves the session a connection has joined, if any.
func (m *ConnManager) SessionOf(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.conns[connID]
	if !ok {
		return "", false
	}
	return b.sessionID, true
}

// ParticipantsOf lists the participant names currently connected to a
// session.
func (m *ConnManager) ParticipantsOf(sessionID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.sessions[sessionID]))
	for connID := range m.sessions[sessionID] {
		if b, ok := m.conns[connID]; ok {
			names = append(names, b.participant)
		}
	}
	return names
}

// Rename updates the participant identity recorded for a connection.
func (m *ConnManager) Rename(connID, participant string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.conns[connID]; ok {
		b.participant = participant
	}
}

// Broadcast enqueues the event on every connection joined to the
// session. Per-connection delivery is fire-and-forget; one slow client
// never delays the others.
func (m *ConnManager) Broadcast(sessionID string, ev Event) {
	m.mu.RLock()
	conns := make([]*Conn, 0, len(m.sessions[sessionID]))
	for _, c := range m.sessions[sessionID] {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	for _, c := range conns {
		c.Send(ev)
	}
}
