package relay

import (
	"sync"
)

// Conn is one live connection's handle in the hub. Outbound frames are
// queued on a bounded channel; when the queue is full the oldest frame is
// dropped so one slow reader never blocks fan-out to the rest.
type Conn struct {
	id int64

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

// ID returns the hub-assigned connection id.
func (c *Conn) ID() int64 { return c.id }

// Outbound exposes the frames queued for this connection. The channel is
// closed when the connection is unregistered.
func (c *Conn) Outbound() <-chan []byte { return c.out }

// push enqueues a frame, evicting the oldest queued frame if the buffer is
// full. Returns false if the connection is already closed.
func (c *Conn) push(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	for {
		select {
		case c.out <- payload:
			return true
		default:
			// Queue full: drop the oldest frame and retry. The receiver
			// reconciles missed events via the history/recents queries.
			select {
			case <-c.out:
			default:
			}
		}
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// Hub tracks which connections are subscribed to which named channels. It is
// the only structure shared across connection workers; every access goes
// through its mutex.
type Hub struct {
	mu         sync.RWMutex
	nextID     int64
	channels   map[string]map[int64]*Conn
	membership map[int64]map[string]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels:   make(map[string]map[int64]*Conn),
		membership: make(map[int64]map[string]struct{}),
	}
}

// Register allocates a connection handle with the given outbound buffer size.
func (h *Hub) Register(buffer int) *Conn {
	if buffer < 1 {
		buffer = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	conn := &Conn{id: h.nextID, out: make(chan []byte, buffer)}
	h.membership[conn.id] = make(map[string]struct{})
	return conn
}

// Unregister removes the connection from every channel it joined and closes
// its outbound queue.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	for name := range h.membership[conn.id] {
		h.removeLocked(conn.id, name)
	}
	delete(h.membership, conn.id)
	h.mu.Unlock()

	conn.close()
}

// Subscribe adds the connection to a named channel. Subscribing twice is a
// no-op.
func (h *Hub) Subscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.membership[conn.id]
	if !ok {
		// Already unregistered.
		return
	}
	members[channel] = struct{}{}

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[int64]*Conn)
	}
	h.channels[channel][conn.id] = conn
}

// Unsubscribe removes the connection from a named channel.
func (h *Hub) Unsubscribe(conn *Conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.membership[conn.id]; ok {
		delete(members, channel)
	}
	h.removeLocked(conn.id, channel)
}

func (h *Hub) removeLocked(connID int64, channel string) {
	if conns, ok := h.channels[channel]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Publish queues the payload for every connection currently subscribed to
// the channel and reports how many accepted it. Delivery is at most once per
// subscriber; connections that disconnected mid-publish simply miss it.
func (h *Hub) Publish(channel string, payload []byte) int {
	h.mu.RLock()
	subs := make([]*Conn, 0, len(h.channels[channel]))
	for _, conn := range h.channels[channel] {
		subs = append(subs, conn)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range subs {
		if conn.push(payload) {
			delivered++
		}
	}
	return delivered
}
