package checkout

import (
	"fmt"
	"strings"
	"time"

	"food-cart/internal/models"
)

// DeliveryInfo is the customer contact and address block of the checkout form
type DeliveryInfo struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Instructions string `json:"instructions,omitempty"`
}

// FullName joins first and last name
func (d DeliveryInfo) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// FullAddress renders the address on one line
func (d DeliveryInfo) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", d.Address, d.City, d.State, d.ZipCode)
}

// PaymentInfo holds card details; only required for card payments
type PaymentInfo struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
	NameOnCard string `json:"name_on_card"`
	BillingZip string `json:"billing_zip"`
}

// Request is a checkout submission
type Request struct {
	Delivery       DeliveryInfo          `json:"delivery"`
	Payment        PaymentInfo           `json:"payment"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	PaymentMethod  models.PaymentMethod  `json:"payment_method"`
	// TipPercent nil means the configured default
	TipPercent   *int       `json:"tip_percent,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type requiredField struct {
	name  string
	label string
	value string
}

// ValidateRequest reports the first problem found in req
func ValidateRequest(req *Request) error {
	if err := validateDeliveryMethod(req.DeliveryMethod); err != nil {
		return err
	}
	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return err
	}

	d := req.Delivery
	if err := requireAll([]requiredField{
		{"first_name", "first name", d.FirstName},
		{"last_name", "last name", d.LastName},
		{"email", "email", d.Email},
		{"phone", "phone", d.Phone},
		{"address", "address", d.Address},
		{"city", "city", d.City},
		{"state", "state", d.State},
		{"zip_code", "zip code", d.ZipCode},
	}); err != nil {
		return err
	}

	if req.PaymentMethod == models.PaymentCard {
		p := req.Payment
		if err := requireAll([]requiredField{
			{"card_number", "card number", p.CardNumber},
			{"expiry_date", "expiry date", p.ExpiryDate},
			{"cvv", "cvv", p.CVV},
			{"name_on_card", "name on card", p.NameOnCard},
			{"billing_zip", "billing zip", p.BillingZip},
		}); err != nil {
			return err
		}
	}

	if req.TipPercent != nil {
		if err := validateTipPercent(*req.TipPercent); err != nil {
			return err
		}
	}
	return nil
}

func requireAll(fields []requiredField) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("Please fill in your %s.", f.label),
			}
		}
	}
	return nil
}

func validateDeliveryMethod(m models.DeliveryMethod) error {
	switch m {
	case models.Delivery, models.Pickup:
		return nil
	case "":
		return ValidationError{Field: "delivery_method", Message: "delivery method is required"}
	default:
		return ValidationError{Field: "delivery_method", Message: "invalid delivery method"}
	}
}

func validatePaymentMethod(m models.PaymentMethod) error {
	switch m {
	case models.PaymentCard, models.PaymentCash:
		return nil
	case "":
		return ValidationError{Field: "payment_method", Message: "payment method is required"}
	default:
		return ValidationError{Field: "payment_method", Message: "invalid payment method"}
	}
}

func validateTipPercent(tip int) error {
	if tip < 0 || tip > 100 {
		return ValidationError{Field: "tip_percent", Message: "tip must be between 0 and 100 percent"}
	}
	return nil
}
