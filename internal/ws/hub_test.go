package ws

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
)

type fakeSource struct {
	states    map[string]domain.ZoneState
	zoneGates map[string][]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		states:    make(map[string]domain.ZoneState),
		zoneGates: make(map[string][]string),
	}
}

func (f *fakeSource) addZone(zoneID string, gateIDs ...string) {
	f.states[zoneID] = domain.ZoneState{ID: zoneID, Open: true}
	f.zoneGates[zoneID] = gateIDs
}

func (f *fakeSource) Snapshot(zoneID string) (domain.ZoneState, error) {
	state, ok := f.states[zoneID]
	if !ok {
		return domain.ZoneState{}, fmt.Errorf("zone %s not found", zoneID)
	}
	return state, nil
}

func (f *fakeSource) SnapshotsForGate(gateID string) []domain.ZoneState {
	var out []domain.ZoneState
	for zoneID, gates := range f.zoneGates {
		for _, g := range gates {
			if g == gateID {
				out = append(out, f.states[zoneID])
			}
		}
	}
	return out
}

func (f *fakeSource) GateIDsForZone(zoneID string) []string {
	return f.zoneGates[zoneID]
}

// drain pulls every currently queued message off the client's send channel.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()

	var msgs []Message
	for {
		select {
		case b, ok := <-c.Send():
			if !ok {
				return msgs
			}
			var m Message
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("unmarshal queued message: %v", err)
			}
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func countType(msgs []Message, typ MessageType) int {
	n := 0
	for _, m := range msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

func TestHub_SubscribePushesInitialState(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.addZone("zone_a", "gate_1")
	source.addZone("zone_b", "gate_1")
	source.addZone("zone_c", "gate_2")

	hub := NewHub(source, nil)
	c := NewClient()
	hub.Register(c)
	hub.Subscribe(c, "gate_1")

	msgs := drain(t, c)
	if got := countType(msgs, TypeSubscribeAck); got != 1 {
		t.Fatalf("expected 1 subscribe ack, got %d", got)
	}
	if got := countType(msgs, TypeZoneUpdate); got != 2 {
		t.Fatalf("expected initial state for 2 zones, got %d updates", got)
	}
}

func TestHub_ZoneUpdateReachesOnlyMatchingGates(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.addZone("zone_a", "gate_1")
	source.addZone("zone_b", "gate_2")

	hub := NewHub(source, nil)

	subscriber := NewClient()
	hub.Register(subscriber)
	hub.Subscribe(subscriber, "gate_1")

	bystander := NewClient()
	hub.Register(bystander)
	hub.Subscribe(bystander, "gate_2")

	unsubscribed := NewClient()
	hub.Register(unsubscribed)

	drain(t, subscriber)
	drain(t, bystander)
	drain(t, unsubscribed)

	hub.BroadcastZoneUpdate("zone_a")

	if got := countType(drain(t, subscriber), TypeZoneUpdate); got != 1 {
		t.Fatalf("expected 1 update for gate_1 subscriber, got %d", got)
	}
	if got := len(drain(t, bystander)); got != 0 {
		t.Fatalf("expected nothing for gate_2 subscriber, got %d messages", got)
	}
	if got := len(drain(t, unsubscribed)); got != 0 {
		t.Fatalf("expected nothing for unsubscribed observer, got %d messages", got)
	}
}

func TestHub_ZoneUpdateOncePerMatchingSubscription(t *testing.T) {
	t.Parallel()

	// zone_a is served by both gates; a client watching both gets the update
	// once per subscription.
	source := newFakeSource()
	source.addZone("zone_a", "gate_1", "gate_2")

	hub := NewHub(source, nil)
	c := NewClient()
	hub.Register(c)
	hub.Subscribe(c, "gate_1")
	hub.Subscribe(c, "gate_2")
	drain(t, c)

	hub.BroadcastZoneUpdate("zone_a")

	if got := countType(drain(t, c), TypeZoneUpdate); got != 2 {
		t.Fatalf("expected 2 updates for dual subscription, got %d", got)
	}
}

func TestHub_AdminEventReachesEveryObserver(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.addZone("zone_a", "gate_1")

	hub := NewHub(source, nil)

	subscribed := NewClient()
	hub.Register(subscribed)
	hub.Subscribe(subscribed, "gate_1")

	idle := NewClient()
	hub.Register(idle)

	drain(t, subscribed)
	drain(t, idle)

	hub.BroadcastAdminEvent(domain.AdminEvent{
		Action:    "zone-closed",
		TargetID:  "zone_a",
		Timestamp: time.Now().UTC(),
	})

	for name, c := range map[string]*Client{"subscribed": subscribed, "idle": idle} {
		msgs := drain(t, c)
		if got := countType(msgs, TypeAdminUpdate); got != 1 {
			t.Fatalf("%s observer: expected 1 admin update, got %d", name, got)
		}
	}
}

func TestHub_UnsubscribeStopsUpdates(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.addZone("zone_a", "gate_1")

	hub := NewHub(source, nil)
	c := NewClient()
	hub.Register(c)
	hub.Subscribe(c, "gate_1")
	drain(t, c)

	hub.Unsubscribe(c, "gate_1")
	hub.BroadcastZoneUpdate("zone_a")

	if got := len(drain(t, c)); got != 0 {
		t.Fatalf("expected no updates after unsubscribe, got %d", got)
	}
}

func TestHub_SlowObserverIsDropped(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.addZone("zone_a", "gate_1")

	hub := NewHub(source, nil)
	slow := NewClient()
	hub.Register(slow)
	hub.Subscribe(slow, "gate_1")

	healthy := NewClient()
	hub.Register(healthy)
	hub.Subscribe(healthy, "gate_1")
	drain(t, healthy)

	// the slow observer is never drained; the healthy one keeps up
	for i := 0; i < sendBufferSize+1; i++ {
		hub.BroadcastZoneUpdate("zone_a")
		drain(t, healthy)
	}

	if hub.ClientCount() != 1 {
		t.Fatalf("expected slow observer dropped, client count %d", hub.ClientCount())
	}

	// the send channel is closed on drop
	for range slow.Send() {
	}

	hub.BroadcastZoneUpdate("zone_a")
	if got := countType(drain(t, healthy), TypeZoneUpdate); got != 1 {
		t.Fatalf("expected 1 update after drop, got %d", got)
	}
}

func TestHub_UnregisterRemovesGateSubscriptions(t *testing.T) {
	t.Parallel()

	source := newFakeSource()
	source.addZone("zone_a", "gate_1")

	hub := NewHub(source, nil)
	c := NewClient()
	hub.Register(c)
	hub.Subscribe(c, "gate_1")
	drain(t, c)

	hub.Unregister(c)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 observers, got %d", hub.ClientCount())
	}

	// must not panic on a closed channel or resurrect the subscription
	hub.BroadcastZoneUpdate("zone_a")

	hub.mu.RLock()
	subs := len(hub.gateSubs["gate_1"])
	hub.mu.RUnlock()
	if subs != 0 {
		t.Fatalf("expected gate subscriptions cleared, got %d", subs)
	}
}

func TestHub_SendToQueuesReply(t *testing.T) {
	t.Parallel()

	hub := NewHub(newFakeSource(), nil)
	c := NewClient()
	hub.Register(c)

	hub.SendTo(c, NewMessage(TypePong, nil))

	msgs := drain(t, c)
	if len(msgs) != 1 || msgs[0].Type != TypePong {
		t.Fatalf("expected a single pong reply, got %+v", msgs)
	}
}

func TestHub_ZoneUpdateForUnknownZoneIsIgnored(t *testing.T) {
	t.Parallel()

	hub := NewHub(newFakeSource(), nil)
	c := NewClient()
	hub.Register(c)

	hub.BroadcastZoneUpdate("zone_missing")

	if got := len(drain(t, c)); got != 0 {
		t.Fatalf("expected no messages for unknown zone, got %d", got)
	}
}
