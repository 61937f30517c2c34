package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// UsersExchange — обменник для событий пользователей.
const UsersExchange = "users"

// RegisteredRoutingKey — ключ маршрутизации события регистрации.
const RegisteredRoutingKey = "registered"

// SetupChannel открывает канал и объявляет обменник users
// с очередью users.registered.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		UsersExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		"users.registered",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind("users.registered", RegisteredRoutingKey, UsersExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, err
}
