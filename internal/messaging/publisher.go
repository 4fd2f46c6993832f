package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"food-cart/internal/logger"
	"food-cart/internal/models"
)

// Publisher sends checkout events to RabbitMQ
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// PublishOrderPlaced routes a placed order by its delivery method
func (p *Publisher) PublishOrderPlaced(ctx context.Context, msg *models.OrderPlacedMessage) error {
	key := models.GenerateRoutingKey(msg.DeliveryMethod)
	return p.publish(ctx, OrdersExchange, key, msg, uint8(msg.Priority), true)
}

// PublishStatusUpdate broadcasts an order status change
func (p *Publisher) PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error {
	return p.publish(ctx, NotificationsExchange, "", msg, 0, false)
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, message interface{}, priority uint8, persistent bool) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
		Priority:     priority,
	}
	if persistent {
		publishing.DeliveryMode = amqp091.Persistent
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		publishing.CorrelationId = id
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			logger.RequestIDFromContext(ctx), err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		logger.RequestIDFromContext(ctx), map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
		})
	return nil
}
