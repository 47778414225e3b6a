package realtime

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/models"
)

const channelPrefix = "notifications:"

const (
	EventPortfolioStatus = "portfolio_status"
	EventBookingUpdate   = "booking_update"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notifier publishes user events on redis so every instance can deliver
// them to its own websocket clients. Without redis it delivers locally.
type Notifier struct {
	hub *Hub
	rdb *redis.Client
}

func NewNotifier(hub *Hub, rdb *redis.Client) *Notifier {
	return &Notifier{hub: hub, rdb: rdb}
}

// Publish is best-effort: failures are logged, never returned.
func (n *Notifier) Publish(ctx context.Context, userID uuid.UUID, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("failed to marshal event", "type", ev.Type, "error", err)
		return
	}

	if n.rdb == nil {
		n.hub.sendRaw(userID, payload)
		return
	}
	if err := n.rdb.Publish(ctx, channelPrefix+userID.String(), payload).Err(); err != nil {
		logger.Warn("redis publish failed, delivering locally", "user_id", userID, "error", err)
		n.hub.sendRaw(userID, payload)
	}
}

func (n *Notifier) PortfolioStatusChanged(ctx context.Context, ownerID uuid.UUID, p *models.PortfolioSubmission) {
	n.Publish(ctx, ownerID, Event{
		Type: EventPortfolioStatus,
		Data: map[string]interface{}{
			"submission_id": p.ID,
			"status":        p.Status,
			"updated_date":  p.UpdatedDate,
		},
	})
}

// BookingChanged tells both parties about a booking status change.
func (n *Notifier) BookingChanged(ctx context.Context, b *models.Booking) {
	ev := Event{
		Type: EventBookingUpdate,
		Data: map[string]interface{}{
			"booking_id": b.ID,
			"code":       b.Code,
			"status":     b.Status,
		},
	}
	n.Publish(ctx, b.ClientID, ev)
	n.Publish(ctx, b.FreelancerID, ev)
}

// Subscribe forwards redis notifications to the local hub until ctx ends.
func (n *Notifier) Subscribe(ctx context.Context) {
	if n.rdb == nil {
		return
	}
	sub := n.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			userID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
			if err != nil {
				logger.Warn("ignoring notification on unexpected channel", "channel", msg.Channel)
				continue
			}
			n.hub.sendRaw(userID, []byte(msg.Payload))
		}
	}
}
