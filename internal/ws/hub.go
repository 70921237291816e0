package ws

import (
	"log/slog"
	"sync"

	"github.com/hryhoriev/parkgo/internal/domain"
)

// SnapshotSource supplies current zone occupancy views; satisfied by the
// in-memory occupancy ledger.
type SnapshotSource interface {
	Snapshot(zoneID string) (domain.ZoneState, error)
	SnapshotsForGate(gateID string) []domain.ZoneState
	GateIDsForZone(zoneID string) []string
}

// Hub maintains the set of connected observers and their gate subscriptions.
// A zone update goes out once per matching gate subscription; administrative
// updates go to every connected observer. Publishing never blocks: a client
// whose send buffer is full is dropped.
type Hub struct {
	source SnapshotSource
	logger *slog.Logger

	mu       sync.RWMutex
	clients  map[*Client]bool
	gateSubs map[string]map[*Client]bool
}

func NewHub(source SnapshotSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		source:   source,
		logger:   logger,
		clients:  make(map[*Client]bool),
		gateSubs: make(map[string]map[*Client]bool),
	}
}

// Register adds a connected observer.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("observer connected", "total", total)
}

// Unregister removes the observer and all of its gate subscriptions.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	for gateID, subs := range h.gateSubs {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.gateSubs, gateID)
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("observer disconnected", "total", total)
}

// Subscribe attaches the observer to a gate and immediately pushes the
// current state of every zone served by that gate.
func (h *Hub) Subscribe(c *Client, gateID string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	subs, ok := h.gateSubs[gateID]
	if !ok {
		subs = make(map[*Client]bool)
		h.gateSubs[gateID] = subs
	}
	subs[c] = true
	h.mu.Unlock()

	c.trySend(h, NewMessage(TypeSubscribeAck, SubscribeAckPayload{GateID: gateID}))

	for _, state := range h.source.SnapshotsForGate(gateID) {
		c.trySend(h, NewMessage(TypeZoneUpdate, state))
	}
}

// Unsubscribe detaches the observer from a gate.
func (h *Hub) Unsubscribe(c *Client, gateID string) {
	h.mu.Lock()
	if subs, ok := h.gateSubs[gateID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.gateSubs, gateID)
		}
	}
	h.mu.Unlock()
}

// BroadcastZoneUpdate pushes the zone's current state to every observer
// subscribed to a gate serving that zone, once per matching subscription.
func (h *Hub) BroadcastZoneUpdate(zoneID string) {
	state, err := h.source.Snapshot(zoneID)
	if err != nil {
		h.logger.Warn("zone update for unknown zone", "zone_id", zoneID)
		return
	}

	msg := NewMessage(TypeZoneUpdate, state)

	h.mu.RLock()
	var targets []*Client
	for _, gateID := range h.source.GateIDsForZone(zoneID) {
		for c := range h.gateSubs[gateID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(h, msg)
	}
}

// BroadcastAdminEvent pushes an administrative change to every connected
// observer regardless of gate subscriptions.
func (h *Hub) BroadcastAdminEvent(ev domain.AdminEvent) {
	msg := NewMessage(TypeAdminUpdate, ev)

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(h, msg)
	}
}

// SendTo queues a message for one observer, e.g. a command reply. All writes
// to the connection go through the send queue so the write pump stays the
// only writer.
func (h *Hub) SendTo(c *Client, msg Message) {
	c.trySend(h, msg)
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
