package ledger

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
)

func newTestService() *Service {
	s := New()
	s.Hydrate(
		[]domain.Category{
			{ID: "cat_std", Name: "standard", RateNormal: 10, RateSpecial: 20},
		},
		[]domain.Zone{
			{ID: "zone_a", Name: "A", CategoryID: "cat_std", GateIDs: []string{"gate_1", "gate_2"}, TotalSlots: 5, Open: true},
			{ID: "zone_b", Name: "B", CategoryID: "cat_std", GateIDs: []string{"gate_2"}, TotalSlots: 3, Open: true},
		},
		nil,
		nil,
	)
	return s
}

func TestTryAdmit(t *testing.T) {
	t.Parallel()

	t.Run("admits into open zone with space", func(t *testing.T) {
		s := newTestService()

		occupied, err := s.TryAdmit("zone_a", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if occupied != 1 {
			t.Fatalf("expected occupied 1, got %d", occupied)
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		s := newTestService()

		if _, err := s.TryAdmit("zone_missing", nil); !errors.Is(err, ErrZoneNotFound) {
			t.Fatalf("expected ErrZoneNotFound, got %v", err)
		}
	})

	t.Run("closed zone", func(t *testing.T) {
		s := newTestService()
		if err := s.SetZoneOpen("zone_a", false); err != nil {
			t.Fatalf("close zone: %v", err)
		}

		if _, err := s.TryAdmit("zone_a", nil); !errors.Is(err, ErrZoneClosed) {
			t.Fatalf("expected ErrZoneClosed, got %v", err)
		}
	})

	t.Run("full zone", func(t *testing.T) {
		s := newTestService()
		for i := 0; i < 3; i++ {
			if _, err := s.TryAdmit("zone_b", nil); err != nil {
				t.Fatalf("admission %d: %v", i, err)
			}
		}

		if _, err := s.TryAdmit("zone_b", nil); !errors.Is(err, ErrZoneFull) {
			t.Fatalf("expected ErrZoneFull, got %v", err)
		}
	})

	t.Run("subscriber admission appends checkin entry", func(t *testing.T) {
		s := newTestService()
		s.UpsertSubscription(domain.Subscription{
			ID:         "sub_1",
			UserName:   "lena",
			Active:     true,
			CategoryID: "cat_std",
			Cars:       []domain.Car{{Plate: "AA1111BB"}},
		})

		now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		if _, err := s.TryAdmit("zone_a", &SubscriberCheckin{
			SubscriptionID: "sub_1",
			TicketID:       "TKT-1",
			CheckinAt:      now,
		}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		sub, ok := s.Subscription("sub_1")
		if !ok {
			t.Fatal("subscription missing")
		}
		if len(sub.CurrentCheckins) != 1 {
			t.Fatalf("expected 1 checkin entry, got %d", len(sub.CurrentCheckins))
		}
		if sub.CurrentCheckins[0].TicketID != "TKT-1" || sub.CurrentCheckins[0].ZoneID != "zone_a" {
			t.Fatalf("unexpected checkin entry: %+v", sub.CurrentCheckins[0])
		}
	})
}

func TestTryAdmit_ConcurrentNeverOversells(t *testing.T) {
	t.Parallel()

	const slots = 10
	const contenders = 100

	s := New()
	s.Hydrate(
		[]domain.Category{{ID: "cat_std"}},
		[]domain.Zone{{ID: "zone_a", CategoryID: "cat_std", TotalSlots: slots, Open: true}},
		nil,
		nil,
	)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TryAdmit("zone_a", nil); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != slots {
		t.Fatalf("expected exactly %d admissions, got %d", slots, admitted)
	}

	zone, _ := s.Zone("zone_a")
	if zone.Occupied != slots {
		t.Fatalf("expected occupied %d, got %d", slots, zone.Occupied)
	}
}

func TestTryAdmit_ConcurrentMixedWithReleases(t *testing.T) {
	t.Parallel()

	const slots = 4
	const workers = 40

	s := New()
	s.Hydrate(
		[]domain.Category{{ID: "cat_std"}},
		[]domain.Zone{{ID: "zone_a", CategoryID: "cat_std", TotalSlots: slots, Open: true}},
		nil,
		nil,
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticketID := fmt.Sprintf("TKT-%d", i)
			for j := 0; j < 50; j++ {
				if occ, err := s.TryAdmit("zone_a", nil); err == nil {
					if occ < 0 || occ > slots {
						t.Errorf("occupied out of bounds after admit: %d", occ)
						return
					}
					occ, _ = s.Release("zone_a", ticketID)
					if occ < 0 || occ > slots {
						t.Errorf("occupied out of bounds after release: %d", occ)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	zone, _ := s.Zone("zone_a")
	if zone.Occupied < 0 || zone.Occupied > slots {
		t.Fatalf("final occupied out of bounds: %d", zone.Occupied)
	}
}

func TestRelease(t *testing.T) {
	t.Parallel()

	t.Run("floors at zero", func(t *testing.T) {
		s := newTestService()

		occupied, subID := s.Release("zone_a", "TKT-unknown")
		if occupied != 0 {
			t.Fatalf("expected occupied 0, got %d", occupied)
		}
		if subID != "" {
			t.Fatalf("expected no subscription, got %q", subID)
		}
	})

	t.Run("detaches subscriber checkin entry", func(t *testing.T) {
		s := newTestService()
		s.UpsertSubscription(domain.Subscription{
			ID:         "sub_1",
			Active:     true,
			CategoryID: "cat_std",
		})

		if _, err := s.TryAdmit("zone_a", &SubscriberCheckin{
			SubscriptionID: "sub_1",
			TicketID:       "TKT-1",
			CheckinAt:      time.Now(),
		}); err != nil {
			t.Fatalf("admit: %v", err)
		}

		occupied, subID := s.Release("zone_a", "TKT-1")
		if occupied != 0 {
			t.Fatalf("expected occupied 0, got %d", occupied)
		}
		if subID != "sub_1" {
			t.Fatalf("expected sub_1, got %q", subID)
		}

		sub, _ := s.Subscription("sub_1")
		if len(sub.CurrentCheckins) != 0 {
			t.Fatalf("expected empty checkin list, got %d entries", len(sub.CurrentCheckins))
		}

		// a second release of the same ticket no longer resolves the subscription
		_, subID = s.Release("zone_a", "TKT-1")
		if subID != "" {
			t.Fatalf("expected no subscription on replay, got %q", subID)
		}
	})
}

func TestReservedQuota(t *testing.T) {
	t.Parallel()

	t.Run("ceil of 15 percent of outside subscribers", func(t *testing.T) {
		s := newTestService()
		for i := 0; i < 100; i++ {
			s.UpsertSubscription(domain.Subscription{
				ID:         fmt.Sprintf("sub_%d", i),
				Active:     true,
				CategoryID: "cat_std",
			})
		}

		// 10 of them are currently parked
		for i := 0; i < 10; i++ {
			if _, err := s.TryAdmit("zone_a", &SubscriberCheckin{
				SubscriptionID: fmt.Sprintf("sub_%d", i),
				TicketID:       fmt.Sprintf("TKT-%d", i),
				CheckinAt:      time.Now(),
			}); err != nil && !errors.Is(err, ErrZoneFull) {
				t.Fatalf("admit %d: %v", i, err)
			}
		}

		// zone_a holds 5 slots, so only 5 admissions landed: 95 outside
		quota, err := s.ReservedQuota("zone_a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := 15; quota != want { // ceil(95 * 0.15) = 15
			t.Fatalf("expected quota %d, got %d", want, quota)
		}
	})

	t.Run("inactive subscriptions do not count", func(t *testing.T) {
		s := newTestService()
		s.UpsertSubscription(domain.Subscription{ID: "sub_1", Active: false, CategoryID: "cat_std"})

		quota, err := s.ReservedQuota("zone_a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if quota != 0 {
			t.Fatalf("expected quota 0, got %d", quota)
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		s := newTestService()
		if _, err := s.ReservedQuota("zone_missing"); !errors.Is(err, ErrZoneNotFound) {
			t.Fatalf("expected ErrZoneNotFound, got %v", err)
		}
	})
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	s := newTestService()
	for i := 0; i < 20; i++ {
		s.UpsertSubscription(domain.Subscription{
			ID:         fmt.Sprintf("sub_%d", i),
			Active:     true,
			CategoryID: "cat_std",
		})
	}

	// one subscriber and one visitor inside zone_a
	if _, err := s.TryAdmit("zone_a", &SubscriberCheckin{
		SubscriptionID: "sub_0",
		TicketID:       "TKT-sub",
		CheckinAt:      time.Now(),
	}); err != nil {
		t.Fatalf("subscriber admit: %v", err)
	}
	if _, err := s.TryAdmit("zone_a", nil); err != nil {
		t.Fatalf("visitor admit: %v", err)
	}

	state, err := s.Snapshot("zone_a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if state.TotalSlots != 5 || state.Occupied != 2 {
		t.Fatalf("unexpected capacity view: %+v", state)
	}
	if state.Free != 3 {
		t.Fatalf("expected free 3, got %d", state.Free)
	}
	// 19 outside subscribers: ceil(19 * 0.15) = 3 reserved, 1 already inside
	if state.Reserved != 3 {
		t.Fatalf("expected reserved 3, got %d", state.Reserved)
	}
	if state.AvailableForVisitors != 1 { // 3 free - (3 reserved - 1 inside)
		t.Fatalf("expected availableForVisitors 1, got %d", state.AvailableForVisitors)
	}
	if state.AvailableForSubscribers != 3 {
		t.Fatalf("expected availableForSubscribers 3, got %d", state.AvailableForSubscribers)
	}
	if state.RateNormal != 10 || state.RateSpecial != 20 {
		t.Fatalf("expected category rates on snapshot, got %+v", state)
	}
}

func TestSnapshot_ReservedCappedAtCapacity(t *testing.T) {
	t.Parallel()

	s := newTestService()
	for i := 0; i < 200; i++ {
		s.UpsertSubscription(domain.Subscription{
			ID:         fmt.Sprintf("sub_%d", i),
			Active:     true,
			CategoryID: "cat_std",
		})
	}

	state, err := s.Snapshot("zone_b") // 3 slots, raw quota ceil(200*0.15)=30
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if state.Reserved != state.TotalSlots {
		t.Fatalf("expected reserved capped at %d, got %d", state.TotalSlots, state.Reserved)
	}
	if state.AvailableForVisitors != 0 {
		t.Fatalf("expected no visitor slots, got %d", state.AvailableForVisitors)
	}
}

func TestSnapshotsForGate(t *testing.T) {
	t.Parallel()

	s := newTestService()

	states := s.SnapshotsForGate("gate_2")
	if len(states) != 2 {
		t.Fatalf("expected 2 zones for gate_2, got %d", len(states))
	}
	if states[0].ID != "zone_a" || states[1].ID != "zone_b" {
		t.Fatalf("expected zone id order, got %s, %s", states[0].ID, states[1].ID)
	}

	states = s.SnapshotsForGate("gate_1")
	if len(states) != 1 || states[0].ID != "zone_a" {
		t.Fatalf("expected only zone_a for gate_1, got %+v", states)
	}

	if states := s.SnapshotsForGate("gate_missing"); len(states) != 0 {
		t.Fatalf("expected no zones for unknown gate, got %d", len(states))
	}
}

func TestUpsertZone_PreservesCounters(t *testing.T) {
	t.Parallel()

	s := newTestService()
	if _, err := s.TryAdmit("zone_a", nil); err != nil {
		t.Fatalf("admit: %v", err)
	}

	s.UpsertZone(domain.Zone{
		ID:         "zone_a",
		Name:       "A renamed",
		CategoryID: "cat_std",
		GateIDs:    []string{"gate_1"},
		TotalSlots: 8,
		Open:       true,
	})

	zone, _ := s.Zone("zone_a")
	if zone.Occupied != 1 {
		t.Fatalf("expected occupied preserved, got %d", zone.Occupied)
	}
	if zone.TotalSlots != 8 || zone.Name != "A renamed" {
		t.Fatalf("expected edits applied, got %+v", zone)
	}
}

func TestFindSubscriptionByPlate(t *testing.T) {
	t.Parallel()

	s := newTestService()
	s.UpsertSubscription(domain.Subscription{
		ID:         "sub_active",
		Active:     true,
		CategoryID: "cat_std",
		Cars:       []domain.Car{{Plate: "AA1111BB"}, {Plate: "CC2222DD"}},
	})
	s.UpsertSubscription(domain.Subscription{
		ID:         "sub_inactive",
		Active:     false,
		CategoryID: "cat_std",
		Cars:       []domain.Car{{Plate: "EE3333FF"}},
	})

	if sub, ok := s.FindSubscriptionByPlate("CC2222DD"); !ok || sub.ID != "sub_active" {
		t.Fatalf("expected sub_active, got %+v ok=%v", sub, ok)
	}
	if _, ok := s.FindSubscriptionByPlate("EE3333FF"); ok {
		t.Fatal("expected inactive subscription to be ignored")
	}
	if _, ok := s.FindSubscriptionByPlate("ZZ0000ZZ"); ok {
		t.Fatal("expected unknown plate to miss")
	}
}
