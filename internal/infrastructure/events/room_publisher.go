package events

import (
	"context"
	"time"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/contracts"
	"github.com/roastparty/server/internal/infrastructure/logging"
)

// RoomPublisher emits room lifecycle events to the broker. Failures are
// logged and dropped; lifecycle operations never fail on a broker outage.
type RoomPublisher struct {
	amqp   AmqpPublisher
	logger logging.Logger

	now func() time.Time
}

func NewRoomPublisher(amqp AmqpPublisher, logger logging.Logger) *RoomPublisher {
	return &RoomPublisher{amqp: amqp, logger: logger, now: time.Now}
}

func (p *RoomPublisher) RoomCreated(ctx context.Context, room *domain.Room) {
	p.publish(ctx, contracts.RoutingKeyRoomCreated, contracts.RoomCreatedMessage{
		RoomCode:  room.Code,
		RoomName:  room.Name,
		CreatorID: room.CreatorID,
		ExpiresAt: room.ExpiresAt,
		CreatedAt: room.CreatedAt,
	})
}

func (p *RoomPublisher) RoomExpired(ctx context.Context, code string) {
	p.publish(ctx, contracts.RoutingKeyRoomExpired, contracts.RoomExpiredMessage{
		RoomCode:  code,
		ExpiredAt: p.now(),
	})
}

func (p *RoomPublisher) MemberJoined(ctx context.Context, participant *domain.Participant) {
	p.publish(ctx, contracts.RoutingKeyMemberJoined, contracts.MemberJoinedMessage{
		RoomCode:    participant.RoomCode,
		UserID:      participant.UserID,
		DisplayName: participant.DisplayName,
		JoinedAt:    participant.JoinedAt,
	})
}

func (p *RoomPublisher) MemberLeft(ctx context.Context, code, userID string) {
	p.publish(ctx, contracts.RoutingKeyMemberLeft, contracts.MemberLeftMessage{
		RoomCode: code,
		UserID:   userID,
		LeftAt:   p.now(),
	})
}

func (p *RoomPublisher) publish(ctx context.Context, routingKey string, msg any) {
	if err := p.amqp.PublishMessage(ctx, routingKey, msg); err != nil {
		p.logger.Warn(logging.RabbitMQ, logging.Lifecycle, "failed to publish room event", map[logging.ExtraKey]any{
			"routingKey":   routingKey,
			"errorMessage": err.Error(),
		})
	}
}

// NopPublisher satisfies the event publisher contract without a broker.
// Used by the in-memory backend and in tests.
type NopPublisher struct{}

func (NopPublisher) RoomCreated(context.Context, *domain.Room)         {}
func (NopPublisher) RoomExpired(context.Context, string)               {}
func (NopPublisher) MemberJoined(context.Context, *domain.Participant) {}
func (NopPublisher) MemberLeft(context.Context, string, string)        {}
