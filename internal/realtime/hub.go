package realtime

import (
	"errors"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

/*
LEARNING: NOTIFICATION HUB

The hub owns the registry of live connections and routes envelopes to them.

Key Concepts:
1. **sync.RWMutex**: publishes only read the registry, register/unregister write it
2. **Publish serialization**: a second mutex keeps per-target frame order equal
   to publish order
3. **Non-blocking delivery**: a transport with a full buffer is dropped instead
   of stalling every other connection
4. **Presence**: every register/unregister announces the new connection count
*/

// ErrSlowConsumer is returned by a Transport whose outbound buffer is full.
var ErrSlowConsumer = errors.New("outbound buffer full")

// Transport is the outbound half of one connection. Deliver must not block.
type Transport interface {
	Deliver(frame []byte) error
	Close() error
}

// Identity is a server-verified user bound to a connection.
type Identity struct {
	UserID string
	Role   models.Role
}

// Forwarder receives every locally published envelope, for fan-out to other
// instances.
type Forwarder interface {
	Forward(env Envelope)
}

type connection struct {
	session   *models.Session
	transport Transport
}

// Hub manages every live real-time connection
type Hub struct {
	log *zap.Logger

	mu    sync.RWMutex
	conns map[string]*connection

	// pubMu serializes delivery so frames reach each target in publish order
	pubMu sync.Mutex

	forwarder Forwarder
	now       func() time.Time
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:   log.Named("hub"),
		conns: make(map[string]*connection),
		now:   time.Now,
	}
}

// SetForwarder installs the cross-instance relay. Call before serving.
func (h *Hub) SetForwarder(f Forwarder) {
	h.forwarder = f
}

// Register adds an anonymous connection and returns its id.
func (h *Hub) Register(t Transport) string {
	id := uuid.NewString()
	session := models.NewSession(id)

	h.mu.Lock()
	h.conns[id] = &connection{session: session, transport: t}
	total := len(h.conns)
	h.mu.Unlock()

	h.log.Debug("connection registered", zap.String("conn_id", id), zap.Int("total", total))
	h.announcePresence()
	return id
}

// BindIdentity attaches a verified identity to the connection. Binding the
// same identity again changes nothing. Returns false for an unknown id.
func (h *Hub) BindIdentity(connID string, id Identity) bool {
	if id.UserID == "" {
		return false
	}
	role := id.Role
	if !role.Valid() {
		role = models.RoleCustomer
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return false
	}
	c.session.UserID = id.UserID
	c.session.Role = role
	c.session.LastActiveAt = h.now()

	h.log.Debug("identity bound",
		zap.String("conn_id", connID),
		zap.String("user_id", id.UserID),
		zap.String("role", string(role)))
	return true
}

// Unregister removes the connection and closes its transport. Unknown ids
// are ignored.
func (h *Hub) Unregister(connID string) {
	if !h.remove(connID) {
		return
	}
	h.announcePresence()
}

func (h *Hub) remove(connID string) bool {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	remaining := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return false
	}
	if err := c.transport.Close(); err != nil {
		h.log.Debug("transport close failed", zap.String("conn_id", connID), zap.Error(err))
	}
	h.log.Debug("connection unregistered", zap.String("conn_id", connID), zap.Int("remaining", remaining))
	return true
}

// Touch records activity on the connection.
func (h *Hub) Touch(connID string) {
	h.mu.Lock()
	if c, ok := h.conns[connID]; ok {
		c.session.LastActiveAt = h.now()
	}
	h.mu.Unlock()
}

// Publish delivers env to every live connection matching its target and
// forwards it to other instances. It returns the number of connections the
// frame was queued for.
func (h *Hub) Publish(env Envelope) int {
	n := h.PublishLocal(env)
	if h.forwarder != nil && env.Kind != KindActiveUsers {
		h.forwarder.Forward(env)
	}
	return n
}

// PublishLocal delivers env to connections of this instance only. Delivery
// failures are logged; the failing connection is dropped.
func (h *Hub) PublishLocal(env Envelope) int {
	if !env.Target.valid() {
		h.log.Warn("envelope with invalid target ignored", zap.String("kind", string(env.Kind)))
		return 0
	}

	frame, err := env.Encode()
	if err != nil {
		h.log.Error("failed to encode envelope", zap.String("kind", string(env.Kind)), zap.Error(err))
		return 0
	}

	h.pubMu.Lock()
	targets := h.resolve(env.Target)
	delivered := 0
	var dropped []string
	for id, t := range targets {
		if err := t.Deliver(frame); err != nil {
			h.log.Warn("delivery failed, dropping connection",
				zap.String("conn_id", id),
				zap.String("event", env.EventName()),
				zap.Error(err))
			dropped = append(dropped, id)
			continue
		}
		delivered++
	}
	h.pubMu.Unlock()

	if len(dropped) > 0 {
		for _, id := range dropped {
			h.remove(id)
		}
		h.announcePresence()
	}
	return delivered
}

func (h *Hub) resolve(target Target) map[string]Transport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]Transport)
	for id, c := range h.conns {
		switch target.Scope {
		case ScopeAll:
		case ScopeAdmin:
			if c.session.Role != models.RoleAdmin {
				continue
			}
		case ScopeUser:
			if c.session.UserID != target.UserID {
				continue
			}
		}
		out[id] = c.transport
	}
	return out
}

func (h *Hub) announcePresence() {
	count := h.ActiveCount()
	payload := map[string]int{"count": count}
	h.PublishLocal(Envelope{Kind: KindActiveUsers, Target: ToAll(), Payload: payload})
	h.PublishLocal(Envelope{Kind: KindActiveUsers, Target: ToAdmins(), Payload: payload})
}

// ActiveCount returns the number of live connections.
func (h *Hub) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Session returns a copy of the connection's session.
func (h *Hub) Session(connID string) (models.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.conns[connID]
	if !ok {
		return models.Session{}, false
	}
	return *c.session, true
}

// Sessions returns a snapshot of every live session.
func (h *Hub) Sessions() []models.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.Session, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, *c.session)
	}
	return out
}

// Shutdown closes every connection without announcing presence.
func (h *Hub) Shutdown() {
	h.log.Info("🛑 Shutting down notification hub...")

	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*connection)
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.transport.Close()
	}
	h.log.Info("✓ Notification hub shutdown complete", zap.Int("closed", len(conns)))
}
