package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/dmoraru/floraria/internal/adapter/email"
	"github.com/dmoraru/floraria/internal/adapter/handler"
	"github.com/dmoraru/floraria/internal/adapter/payment"
	"github.com/dmoraru/floraria/internal/adapter/storage"
	"github.com/dmoraru/floraria/internal/core/domain"
	"github.com/dmoraru/floraria/internal/core/service"
	"github.com/dmoraru/floraria/internal/port"
	"github.com/dmoraru/floraria/pkg/events"
	"github.com/dmoraru/floraria/pkg/logging"
	"github.com/dmoraru/floraria/pkg/metrics"
)

type cfg struct {
	Port          string
	MySQLDSN      string
	RedisAddr     string
	EmailBaseURL  string
	GatewayURL    string
	GatewayAPIKey string
	ReturnURL     string
	CancelURL     string
	KafkaBrokers  string
	KafkaTopic    string
	WorkerCount   int
	QueueSize     int
}

func main() {
	cfg := readCfg()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL holds products, orders and the order-number counter
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Redis holds carts, pending card orders and the free-stock counters
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	redisAdapter := storage.NewRedisAdapter(rdb)
	mysqlAdapter := storage.NewMySQLAdapter(db)

	// Mirror simple-product stock into the Redis counters
	products, err := mysqlAdapter.ListProducts(ctx)
	if err != nil {
		log.Fatalf("failed to load products: %v", err)
	}
	for _, product := range products {
		if product.IsComposed() {
			continue
		}
		if err := redisAdapter.SetStock(ctx, product.ID, product.Stock); err != nil {
			log.Fatalf("failed to sync stock for %s: %v", product.ID, err)
		}
	}
	log.Printf("synced stock for %d products", len(products))

	notifier := email.NewClient(cfg.EmailBaseURL, 10*time.Second)
	gateway := payment.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, 10*time.Second)
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	cartService := service.NewCartService(redisAdapter)
	stockService := service.NewStockService(mysqlAdapter)
	checkoutService := service.NewCheckoutService(
		mysqlAdapter, cartService, stockService,
		redisAdapter, redisAdapter, gateway, notifier,
		service.CheckoutConfig{
			ReturnURL:      cfg.ReturnURL,
			CancelURL:      cfg.CancelURL,
			RetryQueueSize: cfg.QueueSize,
		},
	)

	// Confirmation-email retry workers: orders land here persisted
	// with confirmation = pending, nothing is lost if a retry fails
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			notificationWorker(id, checkoutService.NotificationRetries(), notifier, mysqlAdapter)
		}(i)
	}
	log.Printf("started %d notification workers", cfg.WorkerCount)

	srvMetrics := metrics.NewServerMetrics("storefront")
	httpHandler := handler.NewHTTPHandler(
		cartService, stockService, checkoutService,
		mysqlAdapter, mysqlAdapter, notifier, publisher, srvMetrics,
	)

	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	checkoutService.Close()
	wg.Wait()
	log.Println("workers stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func notificationWorker(id int, queue <-chan domain.Order, notifier port.Notifier, orders port.OrderRepository) {
	for order := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)

		if err := notifier.SendOrderConfirmation(ctx, order); err != nil {
			// order stays with confirmation = pending; the back office
			// can resend through /api/send-email/placed-order
			logging.Log(logging.Fields{
				Service: "notification_worker", OrderID: order.ID,
				Step: "retry", Status: "critical", Message: err.Error(),
			})
			cancel()
			continue
		}

		if err := orders.MarkConfirmationSent(ctx, order.ID); err != nil {
			log.Printf("worker %d: failed to mark confirmation for %s: %v", id, order.ID, err)
		} else {
			log.Printf("worker %d: confirmation sent for order %s", id, order.ID)
		}

		cancel()
	}
}

func readCfg() cfg {
	return cfg{
		Port:          getenv("PORT", "8080"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/floraria?parseTime=true"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		EmailBaseURL:  getenv("EMAIL_PROVIDER_URL", "http://localhost:8090"),
		GatewayURL:    getenv("PAYMENT_GATEWAY_URL", "http://localhost:8091"),
		GatewayAPIKey: os.Getenv("PAYMENT_GATEWAY_API_KEY"),
		ReturnURL:     getenv("CHECKOUT_RETURN_URL", "http://localhost:3000/checkout/success"),
		CancelURL:     getenv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:    getenv("KAFKA_TOPIC", "floraria.orders"),
		WorkerCount:   getenvInt("WORKER_COUNT", 4),
		QueueSize:     getenvInt("QUEUE_SIZE", 1000),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return parsed
}
