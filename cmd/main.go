package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"food-cart/internal/cart"
	"food-cart/internal/catalog"
	"food-cart/internal/config"
	"food-cart/internal/database"
	"food-cart/internal/logger"
	"food-cart/internal/messaging"
	"food-cart/internal/services/checkout"
	"food-cart/internal/services/dispatch"
	"food-cart/internal/services/notification"
	"food-cart/internal/services/web"
	"food-cart/internal/storage"
)

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (cart-service, order-dispatcher, notification-subscriber)")
		configPath = flag.String("config", "config.yaml", "Path to the YAML configuration file")
		port       = flag.Int("port", 0, "HTTP port (overrides server.port)")
		prefetch   = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
		workerName = flag.String("worker-name", "order-dispatcher", "Name reported in dispatch status updates")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":           *mode,
		"port":           cfg.Server.Port,
		"storage_driver": cfg.Storage.Driver,
		"rabbitmq":       cfg.RabbitMQ.Enabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "cart-service":
		err = runCartService(ctx, cfg, log)
	case "order-dispatcher":
		err = runOrderDispatcher(ctx, cfg, log, *workerName, *prefetch)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// backend is the durable storage selected by storage.driver
type backend struct {
	kv     storage.KV
	orders checkout.OrderRepository
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		kv, err := storage.NewSQLite(db)
		if err != nil {
			return nil, err
		}
		orders, err := checkout.NewGormRepository(db)
		if err != nil {
			return nil, err
		}
		return &backend{kv: kv, orders: orders, close: func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}}, nil

	case config.DriverPostgres:
		db, err := database.New(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.RunMigrations(ctx, os.DirFS(cfg.Database.Migrations)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &backend{
			kv:     storage.NewPostgres(db),
			orders: checkout.NewPostgresRepository(db),
			close:  db.Close,
		}, nil

	default:
		kv, err := storage.NewFile(cfg.Storage.FileDir)
		if err != nil {
			return nil, err
		}
		return &backend{kv: kv, orders: checkout.NewMemoryRepository(), close: func() {}}, nil
	}
}

func runCartService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.close()

	var publisher checkout.OrderPublisher
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		publisher = messaging.NewPublisher(conn, log)
	}

	reducer := cart.NewReducer(cat, cart.Rules{
		ServiceFee:        cfg.Cart.ServiceFee,
		FallbackItemName:  cfg.Cart.FallbackItemName,
		FallbackItemPrice: cfg.Cart.FallbackItemPrice,
	})
	engine := cart.NewEngine(reducer, cart.NewKVStore(be.kv, cfg.Storage.SnapshotKey), log)
	engine.Restore(ctx)

	co := checkout.NewService(engine, be.orders, publisher, checkout.Pricing{
		TaxRate:           decimal.NewFromFloat(cfg.Checkout.TaxRate),
		DefaultTipPercent: cfg.Checkout.DefaultTipPercent,
	}, log)

	gin.SetMode(gin.ReleaseMode)
	handler := web.NewHandler(engine, cat, co, log)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(cfg.Server.CORSOrigins),
	}
	return web.Serve(ctx, server, log)
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	defer consumer.Close()

	return notification.NewSubscriber(consumer, log, os.Stdout).Run(ctx)
}

func runOrderDispatcher(ctx context.Context, cfg *config.Config, log *logger.Logger, name string, prefetch int) error {
	consumeConn, err := messaging.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	consumer := messaging.NewConsumer(consumeConn, log, messaging.OrderPlacedQueue, name, prefetch)
	defer consumer.Close()

	publishConn, err := messaging.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer publishConn.Close()

	return dispatch.NewDispatcher(name, consumer, messaging.NewPublisher(publishConn, log), log).Run(ctx)
}
