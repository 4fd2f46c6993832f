package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"food-cart/internal/cart"
	"food-cart/internal/catalog"
	"food-cart/internal/logger"
	"food-cart/internal/models"
	"food-cart/internal/services/checkout"
)

// GET /restaurants?q=&cuisine=&max_delivery_fee=
func (h *Handler) ListRestaurants(c *gin.Context) {
	filter := catalog.Filter{
		Query:   c.Query("q"),
		Cuisine: c.Query("cuisine"),
	}
	if raw := c.Query("max_delivery_fee"); raw != "" {
		fee, err := models.ParseMoney(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.MaxDeliveryFee = &fee
	}

	restaurants := h.catalog.Search(filter)
	out := make([]restaurantView, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, newRestaurantView(r, nil))
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": out})
}

// GET /restaurants/:id?vegetarian=&vegan=&gluten_free=&exclude_allergen=
func (h *Handler) GetRestaurant(c *gin.Context) {
	r, ok := h.catalog.FindRestaurant(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "restaurant not found"})
		return
	}

	filter := catalog.MenuFilter{
		Vegetarian: queryBool(c, "vegetarian"),
		Vegan:      queryBool(c, "vegan"),
		GlutenFree: queryBool(c, "gluten_free"),
	}
	for _, a := range c.QueryArray("exclude_allergen") {
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.ExcludeAllergens = append(filter.ExcludeAllergens, part)
			}
		}
	}

	c.JSON(http.StatusOK, newRestaurantView(r, catalog.FilterMenu(r.Menu, filter)))
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

// GET /cart
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, newCartView(h.engine.Snapshot()))
}

// respond reports a command outcome together with the resulting cart
func (h *Handler) respond(c *gin.Context, outcome cart.Outcome) {
	status := http.StatusOK
	switch outcome {
	case cart.OutcomeAdded, cart.OutcomeAddedWithFallback:
		status = http.StatusCreated
	case cart.OutcomeRejectedUnknownRestaurant:
		status = http.StatusNotFound
	case cart.OutcomeRejectedInvalidQuantity:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"outcome": outcome,
		"cart":    newCartView(h.engine.Snapshot()),
	})
}

type addItemRequest struct {
	RestaurantID        string     `json:"restaurant_id" binding:"required"`
	ItemID              string     `json:"item_id" binding:"required"`
	Quantity            int        `json:"quantity"`
	SpecialInstructions string     `json:"special_instructions"`
	ScheduledDelivery   *time.Time `json:"scheduled_delivery"`
}

// POST /cart/items
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	outcome := h.engine.AddItem(c.Request.Context(), cart.AddItem{
		RestaurantID:        req.RestaurantID,
		ItemID:              req.ItemID,
		Quantity:            req.Quantity,
		SpecialInstructions: req.SpecialInstructions,
		ScheduledDelivery:   req.ScheduledDelivery,
	})
	h.respond(c, outcome)
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// PATCH /cart/items/:restaurantID/:itemID
func (h *Handler) UpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, h.engine.UpdateQuantity(c.Request.Context(), c.Param("restaurantID"), c.Param("itemID"), *req.Quantity))
}

// DELETE /cart/items/:restaurantID/:itemID
func (h *Handler) RemoveItem(c *gin.Context) {
	h.respond(c, h.engine.RemoveItem(c.Request.Context(), c.Param("restaurantID"), c.Param("itemID")))
}

// DELETE /cart/restaurants/:restaurantID
func (h *Handler) ClearRestaurantCart(c *gin.Context) {
	h.respond(c, h.engine.ClearRestaurantCart(c.Request.Context(), c.Param("restaurantID")))
}

// DELETE /cart
func (h *Handler) ClearAll(c *gin.Context) {
	h.respond(c, h.engine.ClearAll(c.Request.Context()))
}

type scheduleRequest struct {
	ScheduledDelivery *time.Time `json:"scheduled_delivery" binding:"required"`
}

// PUT /cart/restaurants/:restaurantID/schedule
func (h *Handler) SetScheduledDelivery(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, h.engine.SetScheduledDelivery(c.Request.Context(), c.Param("restaurantID"), *req.ScheduledDelivery))
}

type groupOrderRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members"`
}

// POST /cart/group
func (h *Handler) EnableGroupOrder(c *gin.Context) {
	var req groupOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, h.engine.EnableGroupOrder(c.Request.Context(), req.Name, req.Members))
}

// DELETE /cart/group
func (h *Handler) DisableGroupOrder(c *gin.Context) {
	h.respond(c, h.engine.DisableGroupOrder(c.Request.Context()))
}

// GET /checkout/quote?delivery_method=&tip=
func (h *Handler) Quote(c *gin.Context) {
	method := models.DeliveryMethod(c.DefaultQuery("delivery_method", string(models.Delivery)))

	var tip *int
	if raw := c.Query("tip"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, checkout.ValidationError{Field: "tip", Message: "tip must be a whole percentage"})
			return
		}
		tip = &v
	}

	q, err := h.checkout.Quote(method, tip)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteView(q))
}

// POST /checkout
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conf, err := h.checkout.PlaceOrder(c.Request.Context(), &req)
	var verr checkout.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, conf)
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		badRequest(c, err)
	default:
		h.logger.Error("checkout_failed", "Failed to place order", logger.RequestIDFromContext(c.Request.Context()), err, nil)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place order"})
	}
}

// GET /orders/:number
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.checkout.GetOrder(c.Request.Context(), c.Param("number"))
	if errors.Is(err, checkout.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, order)
}
