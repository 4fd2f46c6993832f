package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-cart/internal/cart"
	"food-cart/internal/catalog"
	"food-cart/internal/logger"
	"food-cart/internal/services/checkout"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	engine *cart.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.Default()
	require.NoError(t, err)
	engine := cart.NewEngine(cart.NewReducer(cat, cart.DefaultRules()), nil, logger.Discard())
	co := checkout.NewService(engine, nil, nil, checkout.Pricing{
		TaxRate:           decimal.RequireFromString("0.08"),
		DefaultTipPercent: 18,
	}, logger.Discard())

	h := NewHandler(engine, cat, co, logger.Discard())
	return &testServer{t: t, router: h.Router(nil), engine: engine}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func cartOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	c, ok := body["cart"].(map[string]interface{})
	require.True(t, ok, "response has a cart: %v", body)
	return c
}

func amount(v interface{}) string {
	return v.(map[string]interface{})["amount"].(string)
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRestaurants(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/restaurants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["restaurants"], 4)

	_, body = s.do(http.MethodGet, "/restaurants?max_delivery_fee=2.99", nil)
	assert.Len(t, body["restaurants"], 2)

	rec, _ = s.do(http.MethodGet, "/restaurants?max_delivery_fee=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(http.MethodGet, "/restaurants/3?vegan=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Burger Spot", body["name"])
	assert.Equal(t, "1.99", amount(body["delivery_fee"]))
	menu := body["menu"].([]interface{})
	require.Len(t, menu, 1)
	assert.Equal(t, "French Fries", menu[0].(map[string]interface{})["name"])

	_, body = s.do(http.MethodGet, "/restaurants/3?exclude_allergen=gluten", nil)
	assert.Len(t, body["menu"], 2)

	rec, _ = s.do(http.MethodGet, "/restaurants/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodPost, "/cart/items", map[string]interface{}{
		"restaurant_id": "1", "item_id": "1", "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "added", body["outcome"])
	c := cartOf(t, body)
	assert.EqualValues(t, 2, c["total_items"])
	assert.Equal(t, "43.96", amount(c["grand_total"]))

	rec, body = s.do(http.MethodPost, "/cart/items", map[string]interface{}{
		"restaurant_id": "1", "item_id": "does-not-exist",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "added_with_fallback", body["outcome"])

	rec, body = s.do(http.MethodPost, "/cart/items", map[string]interface{}{
		"restaurant_id": "nope", "item_id": "1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "rejected_unknown_restaurant", body["outcome"])

	rec, _ = s.do(http.MethodPost, "/cart/items", map[string]interface{}{"item_id": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(http.MethodPatch, "/cart/items/1/1", map[string]interface{}{"quantity": 5})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "applied", body["outcome"])
	assert.EqualValues(t, 6, cartOf(t, body)["total_items"])

	rec, _ = s.do(http.MethodPatch, "/cart/items/1/1", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(http.MethodPut, "/cart/restaurants/1/schedule", map[string]interface{}{
		"scheduled_delivery": "2026-10-18T19:00:00Z",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	rc := cartOf(t, body)["restaurants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "2026-10-18T19:00:00Z", rc["scheduled_delivery"])
	assert.Equal(t, "25-35 min", rc["estimated_delivery_time"])

	rec, body = s.do(http.MethodPost, "/cart/group", map[string]interface{}{
		"name": "Office lunch", "members": []string{"Ana"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	group := cartOf(t, body)["group_order"].(map[string]interface{})
	assert.Equal(t, "Office lunch", group["name"])

	_, body = s.do(http.MethodDelete, "/cart/group", nil)
	assert.Nil(t, cartOf(t, body)["group_order"])

	rec, body = s.do(http.MethodDelete, "/cart/items/1/missing", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no_op", body["outcome"])

	_, body = s.do(http.MethodDelete, "/cart/restaurants/1", nil)
	assert.Equal(t, "applied", body["outcome"])
	assert.EqualValues(t, 0, cartOf(t, body)["total_items"])

	_, body = s.do(http.MethodDelete, "/cart", nil)
	assert.Equal(t, "applied", body["outcome"])

	rec, body = s.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["restaurants"])
	assert.Equal(t, "0.00", amount(body["grand_total"]))
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodPost, "/checkout", map[string]interface{}{
		"delivery_method": "delivery", "payment_method": "cash",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "empty cart")

	s.do(http.MethodPost, "/cart/items", map[string]interface{}{"restaurant_id": "1", "item_id": "1", "quantity": 2})
	s.do(http.MethodPost, "/cart/items", map[string]interface{}{"restaurant_id": "3", "item_id": "31"})

	rec, body := s.do(http.MethodGet, "/checkout/quote?delivery_method=delivery", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "66.84", amount(body["total"]))
	assert.EqualValues(t, 18, body["tip_percent"])

	rec, body = s.do(http.MethodGet, "/checkout/quote?delivery_method=pickup&tip=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "53.95", amount(body["total"]))

	rec, _ = s.do(http.MethodGet, "/checkout/quote?tip=lots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	delivery := map[string]interface{}{
		"first_name": "Jane", "last_name": "Doe", "email": "jane@example.com", "phone": "555-0100",
		"address": "1 Main St", "city": "Springfield", "state": "IL", "zip_code": "62701",
	}

	rec, body = s.do(http.MethodPost, "/checkout", map[string]interface{}{
		"delivery": delivery, "delivery_method": "delivery", "payment_method": "card",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "card_number", body["field"])

	rec, body = s.do(http.MethodPost, "/checkout", map[string]interface{}{
		"delivery": delivery, "delivery_method": "delivery", "payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, checkout.ASAPEstimate, body["estimated_time"])
	order := body["order"].(map[string]interface{})
	number := order["order_number"].(string)
	assert.Regexp(t, `^ORD_\d{8}_001$`, number)
	assert.EqualValues(t, 6684, order["total_amount"])

	_, body = s.do(http.MethodGet, "/cart", nil)
	assert.EqualValues(t, 0, body["total_items"])

	rec, body = s.do(http.MethodGet, "/orders/"+number, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane Doe", body["customer_name"])

	rec, _ = s.do(http.MethodGet, "/orders/ORD_19990101_001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVoiceRoute(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/voice/add-to-cart?addToCart=2:8:3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "added", body["outcome"])
	assert.Equal(t, 3, s.engine.Snapshot().TotalItems)
}
