// Package voice turns the voice agent's addToCart tool parameter into cart
// commands.
package voice

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"food-cart/internal/cart"
	"food-cart/internal/logger"
)

// QueryParam is the query parameter the voice agent fills in
const QueryParam = "addToCart"

// ParseAddToCart parses "restaurantId:itemId[:quantity]". Quantity defaults
// to 1.
func ParseAddToCart(param string) (cart.AddItem, error) {
	parts := strings.Split(strings.TrimSpace(param), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return cart.AddItem{}, fmt.Errorf("expected restaurantId:itemId[:quantity], got %q", param)
	}

	cmd := cart.AddItem{
		RestaurantID: strings.TrimSpace(parts[0]),
		ItemID:       strings.TrimSpace(parts[1]),
		Quantity:     1,
	}
	if cmd.RestaurantID == "" || cmd.ItemID == "" {
		return cart.AddItem{}, fmt.Errorf("restaurant and item ids are required in %q", param)
	}

	if len(parts) == 3 {
		q, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || q < 1 {
			return cart.AddItem{}, fmt.Errorf("invalid quantity in %q", param)
		}
		cmd.Quantity = q
	}
	return cmd, nil
}

// Adder applies an add-item command
type Adder interface {
	AddItem(ctx context.Context, cmd cart.AddItem) cart.Outcome
}

type response struct {
	Outcome      cart.Outcome `json:"outcome"`
	RestaurantID string       `json:"restaurant_id"`
	ItemID       string       `json:"item_id"`
	Quantity     int          `json:"quantity"`
	Message      string       `json:"message"`
}

// Handler serves GET /voice/add-to-cart?addToCart=...
func Handler(engine Adder, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		requestID := logger.RequestIDFromContext(ctx)

		cmd, err := ParseAddToCart(c.Query(QueryParam))
		if err != nil {
			log.Debug("voice_param_invalid", "Rejected voice addToCart parameter", requestID, map[string]interface{}{
				"param": c.Query(QueryParam),
			})
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		outcome := engine.AddItem(ctx, cmd)
		resp := response{
			Outcome:      outcome,
			RestaurantID: cmd.RestaurantID,
			ItemID:       cmd.ItemID,
			Quantity:     cmd.Quantity,
			Message:      message(outcome, cmd.Quantity),
		}

		log.Info("voice_add_to_cart", "Voice agent added to cart", requestID, map[string]interface{}{
			"restaurant_id": cmd.RestaurantID,
			"item_id":       cmd.ItemID,
			"quantity":      cmd.Quantity,
			"outcome":       string(outcome),
		})

		status := http.StatusOK
		if outcome == cart.OutcomeRejectedUnknownRestaurant {
			status = http.StatusNotFound
		}
		c.JSON(status, resp)
	}
}

func message(outcome cart.Outcome, quantity int) string {
	switch outcome {
	case cart.OutcomeAdded:
		return fmt.Sprintf("Added %d item(s) to your cart.", quantity)
	case cart.OutcomeAddedWithFallback:
		return fmt.Sprintf("Added %d item(s) to your cart. That dish is not on the menu, so a sample item was used.", quantity)
	case cart.OutcomeRejectedUnknownRestaurant:
		return "That restaurant could not be found."
	default:
		return "Nothing was added to your cart."
	}
}
