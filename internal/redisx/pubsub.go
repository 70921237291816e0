package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/hryhoriev/parkgo/internal/domain"
)

const ns = "parkgo:v1"

func ChannelZonesChanged() string {
	return ns + ":zones:changed"
}

func ChannelAdminEvents() string {
	return ns + ":admin:events"
}

// Broker carries committed mutations between the process that applied them
// and every process pushing live updates to observers.
type Broker struct {
	rdb *redis.Client
}

func NewBroker(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

type zoneChangedMsg struct {
	Type   string `json:"type"`
	ZoneID string `json:"zone_id"`
	TsUnix int64  `json:"ts_unix"`
}

func (b *Broker) PublishZoneChanged(ctx context.Context, zoneID string) error {
	msg := zoneChangedMsg{
		Type:   "zone_changed",
		ZoneID: zoneID,
		TsUnix: time.Now().Unix(),
	}

	payload, _ := json.Marshal(msg)

	return b.rdb.Publish(ctx, ChannelZonesChanged(), payload).Err()
}

func (b *Broker) PublishAdminEvent(ctx context.Context, ev domain.AdminEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return b.rdb.Publish(ctx, ChannelAdminEvents(), payload).Err()
}

func (b *Broker) SubscribeZones(ctx context.Context, handler func(ctx context.Context, zoneID string)) error {
	sub := b.rdb.Subscribe(ctx, ChannelZonesChanged())
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg zoneChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.ZoneID != "" {
				handler(ctx, msg.ZoneID)
			}
		}
	}
}

func (b *Broker) SubscribeAdminEvents(ctx context.Context, handler func(ctx context.Context, ev domain.AdminEvent)) error {
	sub := b.rdb.Subscribe(ctx, ChannelAdminEvents())
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.AdminEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.Action != "" {
				handler(ctx, ev)
			}
		}
	}
}
