package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"food-cart/internal/cart"
	"food-cart/internal/catalog"
	"food-cart/internal/logger"
	"food-cart/internal/services/checkout"
	"food-cart/internal/services/voice"
)

const requestIDHeader = "X-Request-ID"

// Handler serves the cart HTTP API
type Handler struct {
	engine   *cart.Engine
	catalog  *catalog.Static
	checkout *checkout.Service
	logger   *logger.Logger
}

func NewHandler(engine *cart.Engine, cat *catalog.Static, co *checkout.Service, log *logger.Logger) *Handler {
	return &Handler{
		engine:   engine,
		catalog:  cat,
		checkout: co,
		logger:   log,
	}
}

// Router builds the gin engine with every route registered. An empty
// origins list allows any origin.
func (h *Handler) Router(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestID(), h.accessLog(), corsMiddleware(origins))

	r.GET("/health", h.Health)

	r.GET("/restaurants", h.ListRestaurants)
	r.GET("/restaurants/:id", h.GetRestaurant)

	r.GET("/cart", h.GetCart)
	r.DELETE("/cart", h.ClearAll)
	r.POST("/cart/items", h.AddItem)
	r.PATCH("/cart/items/:restaurantID/:itemID", h.UpdateQuantity)
	r.DELETE("/cart/items/:restaurantID/:itemID", h.RemoveItem)
	r.DELETE("/cart/restaurants/:restaurantID", h.ClearRestaurantCart)
	r.PUT("/cart/restaurants/:restaurantID/schedule", h.SetScheduledDelivery)
	r.POST("/cart/group", h.EnableGroupOrder)
	r.DELETE("/cart/group", h.DisableGroupOrder)

	r.GET("/checkout/quote", h.Quote)
	r.POST("/checkout", h.PlaceOrder)
	r.GET("/orders/:number", h.GetOrder)

	r.GET("/voice/add-to-cart", voice.Handler(h.engine, h.logger))
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// requestID propagates or assigns X-Request-ID and stores it in the request context
func (h *Handler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = logger.GenerateRequestID()
		}
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		requestID := logger.RequestIDFromContext(c.Request.Context())
		if c.Writer.Status() >= http.StatusInternalServerError {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last
			}
			h.logger.Error("http_request", "Request failed", requestID, err, fields)
			return
		}
		h.logger.Debug("http_request", fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path), requestID, fields)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func badRequest(c *gin.Context, err error) {
	var verr checkout.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully
func Serve(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", fmt.Sprintf("Listening on %s", srv.Addr), "startup", nil)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", "Shutting down HTTP server", "shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
