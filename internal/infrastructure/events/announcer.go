package events

import (
	"context"
	"fmt"
	"time"

	"github.com/roastparty/server/internal/domain"
	"github.com/roastparty/server/internal/infrastructure/contracts"
	"github.com/roastparty/server/internal/infrastructure/logging"
)

// Broadcaster pushes a payload to connected websocket clients on a channel.
type Broadcaster interface {
	Publish(channel string, payload any) error
}

// AmqpPublisher publishes a message to the broker under a routing key.
type AmqpPublisher interface {
	PublishMessage(ctx context.Context, routingKey string, msg any) error
}

// ChatChannel is where a room's messages and announcements are delivered.
func ChatChannel(scope string) string {
	if scope == domain.GlobalScope {
		return "chat"
	}
	return fmt.Sprintf("room/%s/chat", scope)
}

// Announcer persists lifecycle announcements as system messages and fans
// them out to websocket subscribers and the broker. Every step is best
// effort; a failure is logged and the rest still runs.
type Announcer struct {
	messages    domain.MessageRepository
	broadcaster Broadcaster
	amqp        AmqpPublisher
	logger      logging.Logger

	now func() time.Time
}

func NewAnnouncer(messages domain.MessageRepository, broadcaster Broadcaster, amqp AmqpPublisher, logger logging.Logger) *Announcer {
	return &Announcer{
		messages:    messages,
		broadcaster: broadcaster,
		amqp:        amqp,
		logger:      logger,
		now:         time.Now,
	}
}

func (a *Announcer) Announce(ctx context.Context, scope, text string) {
	now := a.now()
	msg := domain.NewSystemMessage(scope, text, now)

	if err := a.messages.Save(ctx, msg); err != nil {
		a.logger.Warn(logging.Rooms, logging.Announcement, "failed to persist announcement", map[logging.ExtraKey]any{
			"scope":        scope,
			"errorMessage": err.Error(),
		})
	}

	if a.broadcaster != nil {
		if err := a.broadcaster.Publish(ChatChannel(scope), msg); err != nil {
			a.logger.Warn(logging.Rooms, logging.Announcement, "failed to broadcast announcement", map[logging.ExtraKey]any{
				"scope":        scope,
				"errorMessage": err.Error(),
			})
		}
	}

	if a.amqp != nil {
		payload := contracts.AnnouncementMessage{Scope: scope, Content: text, SentAt: now}
		if err := a.amqp.PublishMessage(ctx, contracts.RoutingKeyAnnouncement, payload); err != nil {
			a.logger.Warn(logging.RabbitMQ, logging.Announcement, "failed to publish announcement", map[logging.ExtraKey]any{
				"scope":        scope,
				"errorMessage": err.Error(),
			})
		}
	}
}
