package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/payment"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/postgres"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/rabbitmq"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/app/loyalty"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/app/order"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/app/pricing"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/config"

	amqpAdapter "github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/amqp"
	httpAdapter "github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "order-service", "Service mode: order-service, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	lgr := logger.New(*mode, cfg.Debug)

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "order-service":
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})

		runOrderService(db, mqConn, lgr, cfg)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, mqConn, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runOrderService(db postgres.DB, mqConn rabbitmq.Connection, lgr logger.Logger, cfg *config.Config) {
	orderRepo := postgres.NewOrderRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)
	discountRepo := postgres.NewDiscountRepository(db)
	loyaltyRepo := postgres.NewLoyaltyRepository(db)

	publisher := rabbitmq.NewPublisher(mqConn)
	gateway := payment.NewMockGateway(cfg.Payment.DeclineAbove)

	loyaltyResolver := loyalty.NewResolver(loyaltyRepo)
	pricingService := pricing.NewService(catalogRepo, discountRepo, loyaltyResolver, lgr)
	orderService := order.NewService(
		orderRepo,
		pricingService,
		gateway,
		publisher,
		lgr,
		time.Duration(cfg.Delivery.EstimateMinutes)*time.Minute,
	)

	orderHandler := httpAdapter.NewOrderHandler(orderService, cfg.Store.ID, lgr)
	inventoryHandler := httpAdapter.NewInventoryHandler(postgres.NewInventoryRepository(db), cfg.Store.ID, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", orderHandler.CreateOrder)
	mux.HandleFunc("/orders/", orderHandler.HandleOrderPath)
	mux.HandleFunc("/inventory", inventoryHandler.StockLevels)
	mux.HandleFunc("/inventory/restock", inventoryHandler.Restock)

	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Order service started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":  cfg.Server.Port,
		"store": cfg.Store.ID,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down order service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(mqConn, 1)
	handler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification subscriber started", "startup", nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := consumer.ConsumeStatusUpdates(ctx, handler.HandleStatusUpdate); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming status updates", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down notification subscriber", "shutdown", nil)
}
