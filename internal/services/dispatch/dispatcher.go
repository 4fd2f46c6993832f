// Package dispatch splits placed orders into one ticket per restaurant.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"food-cart/internal/logger"
	"food-cart/internal/messaging"
	"food-cart/internal/models"
)

// Source delivers placed-order bodies to a handler until ctx ends
type Source interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
}

// StatusPublisher broadcasts order status changes
type StatusPublisher interface {
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}

// Ticket is the part of an order one restaurant has to prepare
type Ticket struct {
	OrderNumber    string
	RestaurantID   string
	RestaurantName string
	Items          []models.OrderItem
	ItemCount      int
	Subtotal       models.Money
}

// Dispatcher consumes placed orders and hands each restaurant its ticket
type Dispatcher struct {
	name      string
	source    Source
	publisher StatusPublisher
	logger    *logger.Logger
}

func NewDispatcher(name string, source Source, publisher StatusPublisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		name:      name,
		source:    source,
		publisher: publisher,
		logger:    log,
	}
}

// Run consumes until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	d.logger.Info("dispatcher_started", fmt.Sprintf("Order dispatcher %s started", d.name), requestID, nil)

	err := d.source.StartConsuming(ctx, d.HandleOrder)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	d.logger.Info("graceful_shutdown", "Order dispatcher stopped", requestID, nil)
	return nil
}

// HandleOrder splits one OrderPlacedMessage into tickets and announces the
// dispatch.
func (d *Dispatcher) HandleOrder(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var msg models.OrderPlacedMessage
	if err := messaging.ParseMessage(body, &msg); err != nil {
		d.logger.Error("message_parsing_failed", "Failed to parse order message", requestID, err, nil)
		return fmt.Errorf("failed to parse message: %w", err)
	}

	tickets := SplitByRestaurant(&msg)
	for _, t := range tickets {
		d.logger.Info("ticket_dispatched", fmt.Sprintf("Sent %s to %s", t.OrderNumber, t.RestaurantName), requestID, map[string]interface{}{
			"order_number":    t.OrderNumber,
			"restaurant_id":   t.RestaurantID,
			"restaurant_name": t.RestaurantName,
			"items":           t.ItemCount,
			"subtotal":        t.Subtotal.String(),
			"priority":        msg.Priority,
		})
	}

	update := models.NewStatusUpdateMessage(msg.OrderNumber, string(models.StatusReceived), string(models.StatusDispatched), d.name, "")
	if err := d.publisher.PublishStatusUpdate(ctx, update); err != nil {
		// the tickets are out; a lost notification is not worth a redelivery
		d.logger.Error("notification_publish_failed", "Failed to publish dispatch notification", requestID, err, map[string]interface{}{
			"order_number": msg.OrderNumber,
		})
	}
	return nil
}

// SplitByRestaurant groups order lines by restaurant, keeping the order in
// which restaurants first appear.
func SplitByRestaurant(msg *models.OrderPlacedMessage) []Ticket {
	var tickets []Ticket
	index := make(map[string]int)

	for _, item := range msg.Items {
		i, ok := index[item.RestaurantID]
		if !ok {
			i = len(tickets)
			index[item.RestaurantID] = i
			tickets = append(tickets, Ticket{
				OrderNumber:    msg.OrderNumber,
				RestaurantID:   item.RestaurantID,
				RestaurantName: item.RestaurantName,
			})
		}
		t := &tickets[i]
		t.Items = append(t.Items, item)
		t.ItemCount += item.Quantity
		t.Subtotal += item.UnitPrice.Mul(item.Quantity)
	}
	return tickets
}
