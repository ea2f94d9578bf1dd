package messaging

import (
	"context"

	messaging "github.com/rodolfodevapp/eventshop-messaging-go/rabbitmq"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/application"
)

const (
	inventoryExchange = "inventory.events"
	ordersExchange    = "orders.events"
)

// NewProducerBus publishes ledger events to inventory.events.
func NewProducerBus(rabbitURI string) *messaging.RabbitMqEventBus {
	return messaging.NewRabbitMqEventBus(messaging.RabbitMqOptions{
		URI:          rabbitURI,
		ExchangeName: inventoryExchange,
		QueuePrefix:  "stockledger.dispatcher.v1",
		Prefetch:     32,
		RetryDelayMs: 30000,
	}, nil, nil)
}

// NewOrdersConsumerBus consumes orders.events so placed orders become sales.
func NewOrdersConsumerBus(rabbitURI, queuePrefix string) *messaging.RabbitMqEventBus {
	return messaging.NewRabbitMqEventBus(messaging.RabbitMqOptions{
		URI:          rabbitURI,
		ExchangeName: ordersExchange,
		QueuePrefix:  queuePrefix,
		Prefetch:     32,
		RetryDelayMs: 30000,
	}, nil, nil)
}

func RegisterOrderSubscriptions(
	ctx context.Context,
	bus *messaging.RabbitMqEventBus,
	orderPlacedHandler application.EventHandler,
	logger *zap.Logger,
) error {
	bus.Subscribe("OrderPlacedEvent", orderPlacedHandler)

	if err := bus.StartConsumers(ctx); err != nil {
		logger.Error("error starting orders consumers", zap.Error(err))
		return err
	}
	logger.Info("orders consumer started", zap.String("exchange", ordersExchange))
	return nil
}
