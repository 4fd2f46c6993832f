package models

import (
	"fmt"
	"time"
)

// DeliveryMethod represents how a placed order reaches the customer
type DeliveryMethod string

const (
	Delivery DeliveryMethod = "delivery"
	Pickup   DeliveryMethod = "pickup"
)

// PaymentMethod represents how a placed order is paid
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// OrderStatus represents the status of a placed order
type OrderStatus string

const (
	StatusReceived   OrderStatus = "received"
	StatusDispatched OrderStatus = "dispatched"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderItem is one cart line captured at checkout time
type OrderItem struct {
	RestaurantID        string `json:"restaurant_id"`
	RestaurantName      string `json:"restaurant_name"`
	ItemID              string `json:"item_id"`
	Name                string `json:"name"`
	Quantity            int    `json:"quantity"`
	UnitPrice           Money  `json:"unit_price"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// Order represents a placed customer order
type Order struct {
	ID             string         `json:"id"`
	Number         string         `json:"order_number"`
	CustomerName   string         `json:"customer_name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Address        string         `json:"delivery_address,omitempty"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
	Items          []OrderItem    `json:"items"`
	Subtotal       Money          `json:"subtotal"`
	DeliveryFees   Money          `json:"delivery_fees"`
	ServiceFees    Money          `json:"service_fees"`
	Tip            Money          `json:"tip"`
	Tax            Money          `json:"tax"`
	TotalAmount    Money          `json:"total_amount"`
	Priority       int            `json:"priority"`
	Status         OrderStatus    `json:"status"`
	GroupOrderName string         `json:"group_order_name,omitempty"`
	ScheduledFor   *time.Time     `json:"scheduled_for,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CalculatePriority calculates the priority based on total amount
func CalculatePriority(total Money) int {
	if total > 10000 {
		return 10
	}
	if total >= 5000 {
		return 5
	}
	return 1
}

// GenerateOrderNumber generates a unique order number in format ORD_YYYYMMDD_NNN
func GenerateOrderNumber(date time.Time, sequence int) string {
	dateStr := date.Format("20060102")
	return fmt.Sprintf("ORD_%s_%03d", dateStr, sequence)
}
