package rabbitmq

import (
	"github.com/streadway/amqp"

	librabbitmq "github.com/magabrotheeeer/videohub-backend/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/videohub-backend/internal/models"
)

// Publisher публикует события пользователей в обменник users.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает публикатор поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishUserRegistered отправляет событие о регистрации нового пользователя.
func (p *Publisher) PublishUserRegistered(event models.UserRegisteredEvent) error {
	return librabbitmq.PublishMessage(p.ch, UsersExchange, RegisteredRoutingKey, event)
}
