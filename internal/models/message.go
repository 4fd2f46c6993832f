package models

import (
	"fmt"
	"time"
)

// OrderPlacedMessage is published to restaurant systems when checkout succeeds
type OrderPlacedMessage struct {
	OrderNumber    string         `json:"order_number"`
	CustomerName   string         `json:"customer_name"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	Address        string         `json:"delivery_address,omitempty"`
	Items          []OrderItem    `json:"items"`
	TotalAmount    Money          `json:"total_amount"`
	Priority       int            `json:"priority"`
	ScheduledFor   *time.Time     `json:"scheduled_for,omitempty"`
}

// StatusUpdateMessage represents a status update notification
type StatusUpdateMessage struct {
	OrderNumber   string    `json:"order_number"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	ChangedBy     string    `json:"changed_by"`
	Timestamp     time.Time `json:"timestamp"`
	EstimatedTime string    `json:"estimated_time,omitempty"`
}

// NewOrderPlacedMessage creates an OrderPlacedMessage from a stored order
func NewOrderPlacedMessage(order *Order) *OrderPlacedMessage {
	return &OrderPlacedMessage{
		OrderNumber:    order.Number,
		CustomerName:   order.CustomerName,
		DeliveryMethod: order.DeliveryMethod,
		Address:        order.Address,
		Items:          order.Items,
		TotalAmount:    order.TotalAmount,
		Priority:       order.Priority,
		ScheduledFor:   order.ScheduledFor,
	}
}

// NewStatusUpdateMessage creates a StatusUpdateMessage for order status changes
func NewStatusUpdateMessage(orderNumber, oldStatus, newStatus, changedBy, estimatedTime string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		OrderNumber:   orderNumber,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		ChangedBy:     changedBy,
		Timestamp:     time.Now().UTC(),
		EstimatedTime: estimatedTime,
	}
}

// GenerateRoutingKey generates a routing key for order placed messages
func GenerateRoutingKey(method DeliveryMethod) string {
	return fmt.Sprintf("orders.placed.%s", method)
}
