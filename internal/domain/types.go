package domain

import "time"

type TicketType string

const (
	TicketVisitor    TicketType = "visitor"
	TicketSubscriber TicketType = "subscriber"
)

type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	RateNormal  float64 `json:"rateNormal"`
	RateSpecial float64 `json:"rateSpecial"`
	Description string  `json:"description,omitempty"`
}

type Gate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	ZoneIDs  []string `json:"zoneIds"`
}

type Zone struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CategoryID string   `json:"categoryId"`
	GateIDs    []string `json:"gateIds"`
	TotalSlots int      `json:"totalSlots"`
	Occupied   int      `json:"occupied"`
	Open       bool     `json:"open"`
}

type Car struct {
	Plate string `json:"plate"`
	Brand string `json:"brand,omitempty"`
	Model string `json:"model,omitempty"`
	Color string `json:"color,omitempty"`
}

// CheckinEntry marks one vehicle of a subscription currently parked in a zone.
type CheckinEntry struct {
	TicketID  string    `json:"ticketId"`
	ZoneID    string    `json:"zoneId"`
	CheckinAt time.Time `json:"checkinAt"`
}

type Subscription struct {
	ID              string         `json:"id"`
	UserName        string         `json:"userName"`
	Active          bool           `json:"active"`
	CategoryID      string         `json:"categoryId"`
	Cars            []Car          `json:"cars"`
	StartsAt        time.Time      `json:"startsAt"`
	ExpiresAt       time.Time      `json:"expiresAt"`
	CurrentCheckins []CheckinEntry `json:"currentCheckins"`
}

type Ticket struct {
	ID         string     `json:"id"`
	Type       TicketType `json:"type"`
	ZoneID     string     `json:"zoneId"`
	GateID     string     `json:"gateId"`
	CheckinAt  time.Time  `json:"checkinAt"`
	CheckoutAt *time.Time `json:"checkoutAt,omitempty"`
}

// RushWindow is a recurring weekday window with a half-open [From, To)
/// time-of-day range in "HH:MM" 24-hour form. WeekDay follows time.Weekday
// numbering (0 = Sunday).
type RushWindow struct {
	ID      string `json:"id"`
	WeekDay int    `json:"weekDay"`
	From    string `json:"from"`
	To      string `json:"to"`
	Active  bool   `json:"active"`
}

// VacationWindow is an inclusive calendar date range; time-of-day on From/To
// is ignored.
type VacationWindow struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Active bool      `json:"active"`
}

// ZoneState is the derived occupancy view pushed to observers and returned by
// the read API.
type ZoneState struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	CategoryID              string   `json:"categoryId"`
	GateIDs                 []string `json:"gateIds"`
	TotalSlots              int      `json:"totalSlots"`
	Occupied                int      `json:"occupied"`
	Free                    int      `json:"free"`
	Reserved                int      `json:"reserved"`
	AvailableForVisitors    int      `json:"availableForVisitors"`
	AvailableForSubscribers int      `json:"availableForSubscribers"`
	RateNormal              float64  `json:"rateNormal"`
	RateSpecial             float64  `json:"rateSpecial"`
	Open                    bool     `json:"open"`
}

// Segment is one hour-aligned sub-interval of a stay billed at a single rate.
type Segment struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Hours   float64   `json:"hours"`
	Rate    float64   `json:"rate"`
	Amount  float64   `json:"amount"`
	Special bool      `json:"special"`
}

type Receipt struct {
	TicketID      string    `json:"ticketId"`
	CheckinAt     time.Time `json:"checkinAt"`
	CheckoutAt    time.Time `json:"checkoutAt"`
	DurationHours float64   `json:"durationHours"`
	Breakdown     []Segment `json:"breakdown"`
	Amount        float64   `json:"amount"`
}

// AdminEvent is the out-of-band envelope broadcast to every connected
// observer when an administrative change lands.
type AdminEvent struct {
	ActorID    string    `json:"adminId"`
	Action     string    `json:"action"`
	TargetType string    `json:"targetType"`
	TargetID   string    `json:"targetId"`
	Details    any       `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
