package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/modaline/storefront/internal/cart"
	"github.com/modaline/storefront/internal/catalog"
	"github.com/modaline/storefront/internal/checkout"
	"github.com/modaline/storefront/internal/config"
	"github.com/modaline/storefront/internal/db"
	"github.com/modaline/storefront/internal/events"
	"github.com/modaline/storefront/internal/httpapi"
	"github.com/modaline/storefront/internal/localstate"
	"github.com/modaline/storefront/internal/order"
	"github.com/modaline/storefront/internal/payment"
	"github.com/modaline/storefront/internal/wishlist"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, reading environment directly")
	}

	cfg := config.Load()

	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.Lshortfile)

	// DB
	if err := db.RunMigrations(cfg.DBDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	database := db.MustOpen(cfg.DBDSN)
	defer database.Close()

	orderRepo := order.NewRepository(database)
	stockStore := catalog.NewPostgresStockStore(database)
	cartRepo := cart.NewRepository(database)

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("create publisher: %v", err)
	}
	defer publisher.Close()

	// Redis-held wishlist sessions
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	wishlists := func(userID string) *wishlist.Store {
		return wishlist.NewStore(localstate.NewRedisStorage[wishlist.Line](rdb, wishlist.StorageKey, userID))
	}

	// Payment gateway
	gateway := payment.NewClient(cfg.GatewayURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)

	svc := checkout.NewService(database, orderRepo, stockStore, cartRepo,
		gateway, publisher, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.Currency)

	// HTTP
	handler := httpapi.NewHandler(svc, orderRepo, cartRepo, stockStore, wishlists)
	router := httpapi.NewRouter(handler, []byte(cfg.JWTSecret), cfg.CORSAllowOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
