// Package ledger is the capacity-tracking core: per-zone occupancy counters,
// the per-subscription check-in lists, and the derived reservation quota.
//
// The service is the single authoritative allocator. All state lives behind
// one lock, so an admission decision, the paired subscription append, and any
// snapshot observe the same point-in-time view; persistence is write-through
// and owned by the callers.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
)

// reservedCeiling bounds the raw reservation count against absurd subscriber
// populations; the reported value is additionally capped at the zone's
// capacity.
const reservedCeiling = 1_000_000

// reservedShare is the fraction of not-currently-parked active subscribers a
// zone's category holds back from visitors.
const reservedShare = 0.15

type zoneRecord struct {
	name       string
	categoryID string
	gateIDs    []string
	totalSlots int
	occupied   int
	open       bool

	// open subscriber tickets currently inside this zone
	subscriberOpen int
}

type subRecord struct {
	userName   string
	active     bool
	categoryID string
	cars       []domain.Car
	startsAt   time.Time
	expiresAt  time.Time
	checkins   []domain.CheckinEntry
}

type Service struct {
	mu          sync.RWMutex
	zones       map[string]*zoneRecord
	categories  map[string]domain.Category
	subs        map[string]*subRecord
	ticketIndex map[string]string // open subscriber ticket id -> subscription id
}

func New() *Service {
	return &Service{
		zones:       make(map[string]*zoneRecord),
		categories:  make(map[string]domain.Category),
		subs:        make(map[string]*subRecord),
		ticketIndex: make(map[string]string),
	}
}

// Hydrate replaces all ledger state with the given store contents. Called once
// at startup before the service starts taking traffic.
func (s *Service) Hydrate(
	categories []domain.Category,
	zones []domain.Zone,
	subs []domain.Subscription,
	openSubscriberTickets []domain.Ticket,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.zones = make(map[string]*zoneRecord, len(zones))
	s.categories = make(map[string]domain.Category, len(categories))
	s.subs = make(map[string]*subRecord, len(subs))
	s.ticketIndex = make(map[string]string)

	for _, c := range categories {
		s.categories[c.ID] = c
	}
	for _, z := range zones {
		s.zones[z.ID] = zoneRecordFrom(z)
	}
	for _, sub := range subs {
		s.subs[sub.ID] = subRecordFrom(sub)
		for _, entry := range sub.CurrentCheckins {
			s.ticketIndex[entry.TicketID] = sub.ID
		}
	}
	for _, t := range openSubscriberTickets {
		if z, ok := s.zones[t.ZoneID]; ok {
			z.subscriberOpen++
		}
	}
}

func (s *Service) UpsertCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// SetCategoryRates updates the tariff of an existing category; it reports
// whether the category was known.
func (s *Service) SetCategoryRates(id string, normal, special float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return false
	}

	c.RateNormal = normal
	c.RateSpecial = special
	s.categories[id] = c
	return true
}

func (s *Service) UpsertZone(z domain.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.zones[z.ID]; ok {
		// occupied and the subscriber counter survive admin edits
		rec := zoneRecordFrom(z)
		rec.occupied = existing.occupied
		rec.subscriberOpen = existing.subscriberOpen
		s.zones[z.ID] = rec
		return
	}

	s.zones[z.ID] = zoneRecordFrom(z)
}

func (s *Service) SetZoneOpen(id string, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[id]
	if !ok {
		return ErrZoneNotFound
	}

	z.open = open
	return nil
}

func (s *Service) UpsertSubscription(sub domain.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[sub.ID] = subRecordFrom(sub)
	for _, entry := range sub.CurrentCheckins {
		s.ticketIndex[entry.TicketID] = sub.ID
	}
}

// Zone returns a copy of the zone's current state.
func (s *Service) Zone(id string) (domain.Zone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[id]
	if !ok {
		return domain.Zone{}, false
	}
	return z.asDomain(id), true
}

func (s *Service) Category(id string) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	return c, ok
}

func (s *Service) Subscription(id string) (domain.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[id]
	if !ok {
		return domain.Subscription{}, false
	}
	return sub.asDomain(id), true
}

// FindSubscriptionByPlate resolves an active subscription listing the given
// vehicle plate.
func (s *Service) FindSubscriptionByPlate(plate string) (domain.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, sub := range s.subs {
		if !sub.active {
			continue
		}
		for _, car := range sub.cars {
			if car.Plate == plate {
				return sub.asDomain(id), true
			}
		}
	}

	return domain.Subscription{}, false
}

// SubscriberCheckin carries the cross-entity half of an admission: the entry
// appended to the owning subscription's check-in list.
type SubscriberCheckin struct {
	SubscriptionID string
	TicketID       string
	CheckinAt      time.Time
}

// TryAdmit admits one vehicle into the zone, or rejects with ErrZoneNotFound,
// ErrZoneClosed or ErrZoneFull. The capacity check, the increment, and — for
// subscribers — the check-in list append happen in one critical section, so
// two concurrent admissions can never both take the last slot. Returns the
// occupied count after the admission.
func (s *Service) TryAdmit(zoneID string, sub *SubscriberCheckin) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return 0, ErrZoneNotFound
	}
	if !z.open {
		return 0, ErrZoneClosed
	}
	if z.occupied >= z.totalSlots {
		return z.occupied, ErrZoneFull
	}

	z.occupied++

	if sub != nil {
		if rec, ok := s.subs[sub.SubscriptionID]; ok {
			rec.checkins = append(rec.checkins, domain.CheckinEntry{
				TicketID:  sub.TicketID,
				ZoneID:    zoneID,
				CheckinAt: sub.CheckinAt,
			})
			s.ticketIndex[sub.TicketID] = sub.SubscriptionID
			z.subscriberOpen++
		}
	}

	return z.occupied, nil
}

// Release undoes one admission: decrements the zone counter (floored at zero)
// and, when the ticket belonged to a subscription, removes the matching
// check-in entry. Returns the occupied count after the release and the owning
// subscription id, if any.
func (s *Service) Release(zoneID, ticketID string) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	occupied := 0
	z := s.zones[zoneID]
	if z != nil {
		if z.occupied > 0 {
			z.occupied--
		}
		occupied = z.occupied
	}

	subID, ok := s.ticketIndex[ticketID]
	if !ok {
		return occupied, ""
	}
	delete(s.ticketIndex, ticketID)

	if rec, ok := s.subs[subID]; ok {
		for i, entry := range rec.checkins {
			if entry.TicketID == ticketID {
				rec.checkins = append(rec.checkins[:i], rec.checkins[i+1:]...)
				break
			}
		}
	}
	if z != nil && z.subscriberOpen > 0 {
		z.subscriberOpen--
	}

	return occupied, subID
}

// ReservedQuota is the number of slots held back for the zone's category:
// ceil(15% of active subscribers not currently parked), bounded by the
// sentinel ceiling. Derived on every call rather than maintained as a second
// counter that could drift.
func (s *Service) ReservedQuota(zoneID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return 0, ErrZoneNotFound
	}

	return s.reservedLocked(z.categoryID), nil
}

func (s *Service) reservedLocked(categoryID string) int {
	subsCount, checkedIn := 0, 0
	for _, sub := range s.subs {
		if !sub.active || sub.categoryID != categoryID {
			continue
		}
		subsCount++
		checkedIn += len(sub.checkins)
	}

	outside := subsCount - checkedIn
	if outside < 0 {
		outside = 0
	}

	reserved := int(math.Ceil(float64(outside) * reservedShare))
	if reserved > reservedCeiling {
		reserved = reservedCeiling
	}
	return reserved
}

// Snapshot derives the zone's current availability view. Read-only, cheap,
// and consistent: it runs entirely under the same lock as mutations.
func (s *Service) Snapshot(zoneID string) (domain.ZoneState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return domain.ZoneState{}, fmt.Errorf("snapshot %q: %w", zoneID, ErrZoneNotFound)
	}

	return s.snapshotLocked(zoneID, z), nil
}

// SnapshotAll returns the state of every zone, ordered by zone id.
func (s *Service) SnapshotAll() []domain.ZoneState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]domain.ZoneState, 0, len(s.zones))
	for id, z := range s.zones {
		states = append(states, s.snapshotLocked(id, z))
	}

	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

// SnapshotsForGate returns the state of every zone reachable from the gate,
// ordered by zone id.
func (s *Service) SnapshotsForGate(gateID string) []domain.ZoneState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var states []domain.ZoneState
	for id, z := range s.zones {
		for _, g := range z.gateIDs {
			if g == gateID {
				states = append(states, s.snapshotLocked(id, z))
				break
			}
		}
	}

	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states
}

// GateIDsForZone lists the gates that serve the zone.
func (s *Service) GateIDsForZone(zoneID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[zoneID]
	if !ok {
		return nil
	}
	return append([]string(nil), z.gateIDs...)
}

// ActiveSubscriberCount counts active subscriptions of the category.
func (s *Service) ActiveSubscriberCount(categoryID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sub := range s.subs {
		if sub.active && sub.categoryID == categoryID {
			n++
		}
	}
	return n
}

func (s *Service) snapshotLocked(id string, z *zoneRecord) domain.ZoneState {
	free := z.totalSlots - z.occupied
	if free < 0 {
		free = 0
	}

	reserved := s.reservedLocked(z.categoryID)

	reservedFree := reserved - z.subscriberOpen
	if reservedFree < 0 {
		reservedFree = 0
	}

	availableForVisitors := free - reservedFree
	if availableForVisitors < 0 {
		availableForVisitors = 0
	}

	// never report more reserved slots than the zone has
	reportedReserved := reserved
	if reportedReserved > z.totalSlots {
		reportedReserved = z.totalSlots
	}

	cat := s.categories[z.categoryID]

	return domain.ZoneState{
		ID:                      id,
		Name:                    z.name,
		CategoryID:              z.categoryID,
		GateIDs:                 append([]string(nil), z.gateIDs...),
		TotalSlots:              z.totalSlots,
		Occupied:                z.occupied,
		Free:                    free,
		Reserved:                reportedReserved,
		AvailableForVisitors:    availableForVisitors,
		AvailableForSubscribers: free,
		RateNormal:              cat.RateNormal,
		RateSpecial:             cat.RateSpecial,
		Open:                    z.open,
	}
}

func zoneRecordFrom(z domain.Zone) *zoneRecord {
	return &zoneRecord{
		name:       z.Name,
		categoryID: z.CategoryID,
		gateIDs:    append([]string(nil), z.GateIDs...),
		totalSlots: z.TotalSlots,
		occupied:   z.Occupied,
		open:       z.Open,
	}
}

func subRecordFrom(sub domain.Subscription) *subRecord {
	return &subRecord{
		userName:   sub.UserName,
		active:     sub.Active,
		categoryID: sub.CategoryID,
		cars:       append([]domain.Car(nil), sub.Cars...),
		startsAt:   sub.StartsAt,
		expiresAt:  sub.ExpiresAt,
		checkins:   append([]domain.CheckinEntry(nil), sub.CurrentCheckins...),
	}
}

func (z *zoneRecord) asDomain(id string) domain.Zone {
	return domain.Zone{
		ID:         id,
		Name:       z.name,
		CategoryID: z.categoryID,
		GateIDs:    append([]string(nil), z.gateIDs...),
		TotalSlots: z.totalSlots,
		Occupied:   z.occupied,
		Open:       z.open,
	}
}

func (r *subRecord) asDomain(id string) domain.Subscription {
	return domain.Subscription{
		ID:              id,
		UserName:        r.userName,
		Active:          r.active,
		CategoryID:      r.categoryID,
		Cars:            append([]domain.Car(nil), r.cars...),
		StartsAt:        r.startsAt,
		ExpiresAt:       r.expiresAt,
		CurrentCheckins: append([]domain.CheckinEntry(nil), r.checkins...),
	}
}
