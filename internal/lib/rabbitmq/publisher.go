package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/focus-backend/internal/models"
)

// RoutingKeyAvatarUnlocked - ключ маршрутизации события об открытии аватара.
const RoutingKeyAvatarUnlocked = "avatar.unlocked"

// Channel - часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
func PublishMessage(ch Channel, exchange, routingKey, messageID string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события об открытии аватаров в exchange.
type Publisher struct {
	ch       Channel
	exchange string
	now      func() time.Time
}

// NewPublisher создаёт Publisher поверх канала.
func NewPublisher(ch Channel, exchange string) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		now:      time.Now,
	}
}

// PublishAvatarUnlocked публикует событие о назначении пользователю аватара.
func (p *Publisher) PublishAvatarUnlocked(ctx context.Context, user models.User) error {
	const op = "rabbitmq.PublishAvatarUnlocked"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	event := models.AvatarUnlocked{
		EventID:         uuid.NewString(),
		UserID:          user.ID,
		AvatarName:      user.Avatar.Name,
		ImageURL:        user.Avatar.ImageURL,
		NrFocusSessions: user.NrFocusSessions,
		OccurredAt:      p.now().UTC(),
	}
	return PublishMessage(p.ch, p.exchange, RoutingKeyAvatarUnlocked, event.EventID, event)
}

// NoopPublisher используется, когда RabbitMQ не настроен.
type NoopPublisher struct{}

// PublishAvatarUnlocked ничего не делает.
func (NoopPublisher) PublishAvatarUnlocked(context.Context, models.User) error {
	return nil
}
