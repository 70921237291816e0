package tickets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hryhoriev/parkgo/internal/clock"
	"github.com/hryhoriev/parkgo/internal/domain"
	"github.com/hryhoriev/parkgo/internal/repository"
	"github.com/hryhoriev/parkgo/internal/service/ledger"
)

type fakeStore struct {
	tickets map[string]domain.Ticket
	rush    []domain.RushWindow
	vac     []domain.VacationWindow

	failSaveCheckin  bool
	failSaveCheckout bool

	savedCheckins  int
	savedCheckouts int
	lastOccupied   int
	lastSub        *domain.Subscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{tickets: make(map[string]domain.Ticket)}
}

func (f *fakeStore) GetTicket(ctx context.Context, id string) (domain.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return domain.Ticket{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) SaveCheckin(ctx context.Context, t domain.Ticket, occupied int, sub *domain.Subscription) error {
	if f.failSaveCheckin {
		return errors.New("db down")
	}
	f.tickets[t.ID] = t
	f.savedCheckins++
	f.lastOccupied = occupied
	f.lastSub = sub
	return nil
}

func (f *fakeStore) SaveCheckout(ctx context.Context, t domain.Ticket, occupied int, sub *domain.Subscription) error {
	if f.failSaveCheckout {
		return errors.New("db down")
	}
	f.tickets[t.ID] = t
	f.savedCheckouts++
	f.lastOccupied = occupied
	f.lastSub = sub
	return nil
}

func (f *fakeStore) ListRushWindows(ctx context.Context) ([]domain.RushWindow, error) {
	return f.rush, nil
}

func (f *fakeStore) ListVacationWindows(ctx context.Context) ([]domain.VacationWindow, error) {
	return f.vac, nil
}

type fakePublisher struct {
	zoneIDs []string
}

func (f *fakePublisher) PublishZoneChanged(ctx context.Context, zoneID string) error {
	f.zoneIDs = append(f.zoneIDs, zoneID)
	return nil
}

func newTestLedger() *ledger.Service {
	led := ledger.New()
	led.Hydrate(
		[]domain.Category{{ID: "cat_std", Name: "standard", RateNormal: 10, RateSpecial: 20}},
		[]domain.Zone{
			{ID: "zone_a", Name: "A", CategoryID: "cat_std", GateIDs: []string{"gate_1"}, TotalSlots: 5, Open: true},
		},
		[]domain.Subscription{{
			ID:         "sub_1",
			UserName:   "lena",
			Active:     true,
			CategoryID: "cat_std",
			Cars:       []domain.Car{{Plate: "AA1111BB"}},
		}},
		nil,
	)
	return led
}

func TestCheckIn(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	makeSvc := func() (*Service, *ledger.Service, *fakeStore, *fakePublisher) {
		led := newTestLedger()
		store := newFakeStore()
		pub := &fakePublisher{}
		svc := New(led, store, pub, nil, nil, clock.NewFixed(now), nil)
		return svc, led, store, pub
	}

	t.Run("visitor checkin", func(t *testing.T) {
		svc, led, store, pub := makeSvc()

		result, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Ticket.Type != domain.TicketVisitor {
			t.Fatalf("expected visitor ticket, got %s", result.Ticket.Type)
		}
		if result.Ticket.CheckinAt != now {
			t.Fatalf("expected checkin at %v, got %v", now, result.Ticket.CheckinAt)
		}
		if result.Subscription != nil {
			t.Fatal("expected no subscription on visitor checkin")
		}
		if result.ZoneState.Occupied != 1 {
			t.Fatalf("expected occupied 1 in returned state, got %d", result.ZoneState.Occupied)
		}

		zone, _ := led.Zone("zone_a")
		if zone.Occupied != 1 {
			t.Fatalf("expected ledger occupied 1, got %d", zone.Occupied)
		}
		if store.savedCheckins != 1 || store.lastOccupied != 1 {
			t.Fatalf("expected write-through with occupied 1, got %d writes, occupied %d",
				store.savedCheckins, store.lastOccupied)
		}
		if len(pub.zoneIDs) != 1 || pub.zoneIDs[0] != "zone_a" {
			t.Fatalf("expected one zone change publish, got %v", pub.zoneIDs)
		}
	})

	t.Run("subscriber plate yields subscriber ticket", func(t *testing.T) {
		svc, led, store, _ := makeSvc()

		result, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "AA1111BB", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Ticket.Type != domain.TicketSubscriber {
			t.Fatalf("expected subscriber ticket, got %s", result.Ticket.Type)
		}
		if result.Subscription == nil || result.Subscription.ID != "sub_1" {
			t.Fatalf("expected sub_1 on result, got %+v", result.Subscription)
		}
		if len(result.Subscription.CurrentCheckins) != 1 {
			t.Fatalf("expected checkin entry on returned subscription, got %d",
				len(result.Subscription.CurrentCheckins))
		}
		if store.lastSub == nil || len(store.lastSub.CurrentCheckins) != 1 {
			t.Fatal("expected subscription with checkin entry written through")
		}

		sub, _ := led.Subscription("sub_1")
		if len(sub.CurrentCheckins) != 1 || sub.CurrentCheckins[0].TicketID != result.Ticket.ID {
			t.Fatalf("expected ledger checkin entry for ticket, got %+v", sub.CurrentCheckins)
		}
	})

	t.Run("unmatched plate stays visitor", func(t *testing.T) {
		svc, _, _, _ := makeSvc()

		result, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "ZZ9999ZZ", "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Ticket.Type != domain.TicketVisitor {
			t.Fatalf("expected visitor ticket, got %s", result.Ticket.Type)
		}
	})

	t.Run("unknown zone", func(t *testing.T) {
		svc, _, _, _ := makeSvc()

		if _, err := svc.CheckIn(context.Background(), "zone_missing", "gate_1", "", ""); !errors.Is(err, ErrZoneNotFound) {
			t.Fatalf("expected ErrZoneNotFound, got %v", err)
		}
	})

	t.Run("closed zone", func(t *testing.T) {
		svc, led, _, _ := makeSvc()
		if err := led.SetZoneOpen("zone_a", false); err != nil {
			t.Fatalf("close zone: %v", err)
		}

		if _, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "", ""); !errors.Is(err, ErrZoneClosed) {
			t.Fatalf("expected ErrZoneClosed, got %v", err)
		}
	})

	t.Run("full zone", func(t *testing.T) {
		svc, _, _, _ := makeSvc()
		for i := 0; i < 5; i++ {
			if _, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "", ""); err != nil {
				t.Fatalf("checkin %d: %v", i, err)
			}
		}

		if _, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "", ""); !errors.Is(err, ErrZoneFull) {
			t.Fatalf("expected ErrZoneFull, got %v", err)
		}
	})

	t.Run("write-through failure compensates admission", func(t *testing.T) {
		svc, led, store, pub := makeSvc()
		store.failSaveCheckin = true

		if _, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "AA1111BB", ""); !errors.Is(err, ErrDataConsistency) {
			t.Fatalf("expected ErrDataConsistency, got %v", err)
		}

		zone, _ := led.Zone("zone_a")
		if zone.Occupied != 0 {
			t.Fatalf("expected admission rolled back, occupied %d", zone.Occupied)
		}
		sub, _ := led.Subscription("sub_1")
		if len(sub.CurrentCheckins) != 0 {
			t.Fatalf("expected checkin entry rolled back, got %d", len(sub.CurrentCheckins))
		}
		if len(pub.zoneIDs) != 0 {
			t.Fatalf("expected no publish on failure, got %v", pub.zoneIDs)
		}
	})
}

func TestCheckOut(t *testing.T) {
	t.Parallel()

	checkinAt := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	checkoutAt := checkinAt.Add(2 * time.Hour)

	makeSvc := func(clk clock.Clock) (*Service, *ledger.Service, *fakeStore, *fakePublisher) {
		led := newTestLedger()
		store := newFakeStore()
		pub := &fakePublisher{}
		svc := New(led, store, pub, nil, nil, clk, nil)
		return svc, led, store, pub
	}

	checkinVisitor := func(t *testing.T, svc *Service) domain.Ticket {
		t.Helper()
		result, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "", "")
		if err != nil {
			t.Fatalf("checkin: %v", err)
		}
		return result.Ticket
	}

	t.Run("bills the stay and frees the slot", func(t *testing.T) {
		svc, led, store, pub := makeSvc(clock.NewFixed(checkinAt))
		ticket := checkinVisitor(t, svc)

		// move the clock two hours forward for the checkout
		svcLater := New(led, store, pub, nil, nil, clock.NewFixed(checkoutAt), nil)
		result, err := svcLater.CheckOut(context.Background(), ticket.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Receipt.Amount != 20.00 { // 2h at rate 10
			t.Fatalf("expected amount 20.00, got %v", result.Receipt.Amount)
		}
		if result.Receipt.DurationHours != 2.0 {
			t.Fatalf("expected duration 2.0, got %v", result.Receipt.DurationHours)
		}
		if len(result.Receipt.Breakdown) != 2 {
			t.Fatalf("expected 2 segments, got %d", len(result.Receipt.Breakdown))
		}
		if result.ZoneState.Occupied != 0 {
			t.Fatalf("expected occupied 0 after checkout, got %d", result.ZoneState.Occupied)
		}

		zone, _ := led.Zone("zone_a")
		if zone.Occupied != 0 {
			t.Fatalf("expected ledger occupied 0, got %d", zone.Occupied)
		}
		if store.savedCheckouts != 1 {
			t.Fatalf("expected one checkout write, got %d", store.savedCheckouts)
		}
		stored := store.tickets[ticket.ID]
		if stored.CheckoutAt == nil || !stored.CheckoutAt.Equal(checkoutAt) {
			t.Fatalf("expected stored checkout at %v, got %v", checkoutAt, stored.CheckoutAt)
		}
	})

	t.Run("subscriber checkout detaches checkin entry", func(t *testing.T) {
		svc, led, store, pub := makeSvc(clock.NewFixed(checkinAt))

		result, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "AA1111BB", "")
		if err != nil {
			t.Fatalf("checkin: %v", err)
		}

		svcLater := New(led, store, pub, nil, nil, clock.NewFixed(checkoutAt), nil)
		if _, err := svcLater.CheckOut(context.Background(), result.Ticket.ID); err != nil {
			t.Fatalf("checkout: %v", err)
		}

		sub, _ := led.Subscription("sub_1")
		if len(sub.CurrentCheckins) != 0 {
			t.Fatalf("expected empty checkin list, got %d", len(sub.CurrentCheckins))
		}
		if store.lastSub == nil || store.lastSub.ID != "sub_1" {
			t.Fatal("expected subscription written through on checkout")
		}
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc, _, _, _ := makeSvc(clock.NewFixed(checkoutAt))

		if _, err := svc.CheckOut(context.Background(), "TKT-missing"); !errors.Is(err, ErrTicketNotFound) {
			t.Fatalf("expected ErrTicketNotFound, got %v", err)
		}
	})

	t.Run("second checkout is rejected without another release", func(t *testing.T) {
		svc, led, store, pub := makeSvc(clock.NewFixed(checkinAt))
		ticket := checkinVisitor(t, svc)
		// another vehicle keeps the counter visibly non-zero
		checkinVisitor(t, svc)

		svcLater := New(led, store, pub, nil, nil, clock.NewFixed(checkoutAt), nil)
		if _, err := svcLater.CheckOut(context.Background(), ticket.ID); err != nil {
			t.Fatalf("first checkout: %v", err)
		}

		zoneAfterFirst, _ := led.Zone("zone_a")

		if _, err := svcLater.CheckOut(context.Background(), ticket.ID); !errors.Is(err, ErrAlreadyCheckedOut) {
			t.Fatalf("expected ErrAlreadyCheckedOut, got %v", err)
		}

		zone, _ := led.Zone("zone_a")
		if zone.Occupied != zoneAfterFirst.Occupied {
			t.Fatalf("expected occupied unchanged on replay, got %d -> %d",
				zoneAfterFirst.Occupied, zone.Occupied)
		}
		if store.savedCheckouts != 1 {
			t.Fatalf("expected single checkout write, got %d", store.savedCheckouts)
		}
	})

	t.Run("write-through failure reports data consistency", func(t *testing.T) {
		svc, _, store, _ := makeSvc(clock.NewFixed(checkinAt))
		ticket := checkinVisitor(t, svc)
		store.failSaveCheckout = true

		svcLater := New(svc.ledger, store, nil, nil, nil, clock.NewFixed(checkoutAt), nil)
		if _, err := svcLater.CheckOut(context.Background(), ticket.ID); !errors.Is(err, ErrDataConsistency) {
			t.Fatalf("expected ErrDataConsistency, got %v", err)
		}
	})

	t.Run("rush window prices checkout segments", func(t *testing.T) {
		led := newTestLedger()
		store := newFakeStore()
		// Monday 2025-01-06, rush 10:00-12:00
		store.rush = []domain.RushWindow{{ID: "rush_1", WeekDay: 1, From: "10:00", To: "12:00", Active: true}}

		start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
		svc := New(led, store, nil, nil, nil, clock.NewFixed(start), nil)
		ticket := checkinVisitor(t, svc)

		svcLater := New(led, store, nil, nil, nil, clock.NewFixed(start.Add(2*time.Hour+30*time.Minute)), nil)
		result, err := svcLater.CheckOut(context.Background(), ticket.ID)
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}

		// 2h special at 20 + 0.5h normal at 10
		if result.Receipt.Amount != 45.00 {
			t.Fatalf("expected amount 45.00, got %v", result.Receipt.Amount)
		}
	})
}

func TestTicketLifecycle_SingleSlotZone(t *testing.T) {
	t.Parallel()

	led := ledger.New()
	led.Hydrate(
		[]domain.Category{{ID: "cat_std", RateNormal: 10, RateSpecial: 20}},
		[]domain.Zone{{ID: "zone_tiny", CategoryID: "cat_std", GateIDs: []string{"gate_1"}, TotalSlots: 1, Open: true}},
		nil,
		nil,
	)
	store := newFakeStore()
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	svc := New(led, store, nil, nil, nil, clock.NewFixed(now), nil)

	first, err := svc.CheckIn(context.Background(), "zone_tiny", "gate_1", "", "")
	if err != nil {
		t.Fatalf("first checkin: %v", err)
	}

	if _, err := svc.CheckIn(context.Background(), "zone_tiny", "gate_1", "", ""); !errors.Is(err, ErrZoneFull) {
		t.Fatalf("expected ErrZoneFull while occupied, got %v", err)
	}

	later := New(led, store, nil, nil, nil, clock.NewFixed(now.Add(time.Hour)), nil)
	if _, err := later.CheckOut(context.Background(), first.Ticket.ID); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// the freed slot admits the next vehicle
	if _, err := later.CheckIn(context.Background(), "zone_tiny", "gate_1", "", ""); err != nil {
		t.Fatalf("checkin after release: %v", err)
	}
}

func TestCheckIn_UniqueTicketIDs(t *testing.T) {
	t.Parallel()

	led := newTestLedger()
	store := newFakeStore()
	svc := New(led, store, nil, nil, nil, clock.NewFixed(time.Now()), nil)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		result, err := svc.CheckIn(context.Background(), "zone_a", "gate_1", "", "")
		if err != nil {
			t.Fatalf("checkin %d: %v", i, err)
		}
		if seen[result.Ticket.ID] {
			t.Fatalf("duplicate ticket id %s", result.Ticket.ID)
		}
		seen[result.Ticket.ID] = true
	}
}
