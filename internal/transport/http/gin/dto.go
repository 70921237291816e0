package httpgin

import (
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
)

type CheckinRequest struct {
	ZoneID string `json:"zoneId" binding:"required"`
	GateID string `json:"gateId" binding:"required"`
	Plate  string `json:"plate"`
}

type CheckinResponse struct {
	Ticket     domain.Ticket    `json:"ticket"`
	ZoneState  domain.ZoneState `json:"zoneState"`
	Subscriber *SubscriberBrief `json:"subscriber,omitempty"`
}

// SubscriberBrief is the slice of the subscription echoed on a subscriber
// check-in; the full id stays server-side.
type SubscriberBrief struct {
	SubscriptionID string `json:"subscriptionId"`
	UserName       string `json:"userName"`
}

type CheckoutRequest struct {
	TicketID string `json:"ticketId" binding:"required"`
}

type CheckoutResponse struct {
	Receipt   domain.Receipt   `json:"receipt"`
	ZoneState domain.ZoneState `json:"zoneState"`
}

type SubscriptionResponse struct {
	Subscription domain.Subscription `json:"subscription"`
	DisplayID    string              `json:"displayId"`
}

type CreateSubscriptionRequest struct {
	UserName   string     `json:"userName" binding:"required"`
	CategoryID string     `json:"categoryId" binding:"required"`
	Cars       []CarInput `json:"cars" binding:"required,min=1,dive"`
	StartsAt   string     `json:"startsAt" binding:"required"`
	ExpiresAt  string     `json:"expiresAt" binding:"required"`
}

type CarInput struct {
	Plate string `json:"plate" binding:"required"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Color string `json:"color"`
}

type UpdateCategoryRequest struct {
	RateNormal  float64 `json:"rateNormal" binding:"min=0"`
	RateSpecial float64 `json:"rateSpecial" binding:"min=0"`
}

type SetZoneOpenRequest struct {
	Open *bool `json:"open" binding:"required"`
}

type RushWindowRequest struct {
	WeekDay *int   `json:"weekDay" binding:"required,min=0,max=6"`
	From    string `json:"from" binding:"required"`
	To      string `json:"to" binding:"required"`
	Active  *bool  `json:"active"`
}

type VacationRequest struct {
	Name   string `json:"name" binding:"required"`
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Active *bool  `json:"active"`
}

type ToggleActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseDateOrTime accepts either a bare date or a full RFC3339 timestamp.
func parseDateOrTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
