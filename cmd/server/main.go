package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goshop/storefront/internal/cache"
	"github.com/goshop/storefront/internal/cart"
	"github.com/goshop/storefront/internal/catalog"
	"github.com/goshop/storefront/internal/config"
	"github.com/goshop/storefront/internal/coupon"
	"github.com/goshop/storefront/internal/httpapi"
	"github.com/goshop/storefront/internal/mongodb"
	"github.com/goshop/storefront/internal/order"
	"github.com/goshop/storefront/internal/outbox"
	"github.com/goshop/storefront/internal/pricing"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	mongoDB, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cred := &order.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDBName,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	orderRepo, err := order.NewPostgresRepository(cred)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(cred); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Connected to Postgres at %s:%d", cfg.PostgresHost, cfg.PostgresPort)

	catalogStore := catalog.NewStore(mongoDB)
	couponStore := coupon.NewStore(mongoDB)
	if err := couponStore.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create coupon indexes: %v", err)
	}

	pricer := pricing.NewEngine(pricing.Config{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
		TaxRate:               cfg.TaxRate,
	})

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	cartCache := cache.NewRedisCache(redisClient)
	cartService := cart.NewService(cartRepo, cartCache, catalogStore, couponStore, pricer)
	orderService := order.NewService(cartService, catalogStore, couponStore, orderRepo)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	poller := outbox.NewPoller(orderRepo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	router := httpapi.NewRouter(cartService, orderService, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
