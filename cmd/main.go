package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/vehicle-rentals/internal/auth"
	"github.com/ukydev/vehicle-rentals/internal/db"
	"github.com/ukydev/vehicle-rentals/internal/events"
	"github.com/ukydev/vehicle-rentals/internal/handlers"
	"github.com/ukydev/vehicle-rentals/internal/metrics"
	"github.com/ukydev/vehicle-rentals/internal/middleware"
	"github.com/ukydev/vehicle-rentals/internal/payments"
	"github.com/ukydev/vehicle-rentals/internal/rental"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded configuration from .env")
	}

	log.SetFormatter(&log.JSONFormatter{})
	if level, err := log.ParseLevel(envOr("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	database := client.Database(envOr("MONGO_DB", "rentals_db"))

	retentionDays := envIntOr("RENTAL_RETENTION_DAYS", 90)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctx, database, retentionDays); err != nil {
		cancel()
		log.WithError(err).Fatal("Failed to create indexes")
	}
	cancel()

	rentalStore := &db.MongoRentalCollection{Collection: database.Collection("rentals")}
	vehicleStore := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	userStore := &db.MongoUserCollection{Collection: database.Collection("users")}

	// Event publisher; falls back to a no-op when no broker is configured.
	var publisher events.Publisher = events.NopPublisher{}
	if brokerURL := os.Getenv("MQTT_BROKER_URL"); brokerURL != "" {
		mqttPublisher, err := events.NewMQTTPublisher(brokerURL, envOr("MQTT_CLIENT_ID", "vehicle-rentals-api"))
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		defer mqttPublisher.Close()
		publisher = mqttPublisher
	} else {
		log.Warn("MQTT_BROKER_URL not set, events will be dropped")
	}

	gateway := payments.NewClient(
		envOr("PAYMENT_API_URL", "http://localhost:9090"),
		os.Getenv("PAYMENT_API_KEY"),
		time.Duration(envIntOr("PAYMENT_TIMEOUT_SECONDS", 10))*time.Second,
		envIntOr("PAYMENT_RETRY_ATTEMPTS", 3),
	)

	authService, err := auth.NewService(envOr("JWT_SECRET", "default-secret-key-change-in-production"), envDurationOr("JWT_EXPIRY", 24*time.Hour))
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	inventory := rental.NewInventory(vehicleStore, rentalStore)
	transactions := rental.NewTransactionService(rentalStore, vehicleStore, inventory, nil)

	collector := metrics.NewCollector()

	rentalHandler := handlers.NewRentalHandler(transactions, rentalStore, gateway, publisher, collector)
	vehicleHandler := handlers.NewVehicleHandler(vehicleStore, inventory)
	authHandler := handlers.NewAuthHandler(authService, userStore)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", authHandler.UpdateProfile)

	mux.HandleFunc("POST /api/rentals", rentalHandler.CreateRental)
	mux.HandleFunc("GET /api/rentals", rentalHandler.ListRentals)
	mux.HandleFunc("GET /api/rentals/{id}", rentalHandler.GetRental)
	mux.HandleFunc("POST /api/rentals/{id}/renew", rentalHandler.RenewRental)
	mux.HandleFunc("POST /api/rentals/{id}/end", rentalHandler.EndRental)
	mux.HandleFunc("POST /api/rentals/{id}/return", rentalHandler.ReturnRental)

	mux.HandleFunc("POST /api/vehicles", vehicleHandler.RegisterVehicle)
	mux.HandleFunc("GET /api/vehicles/availability", vehicleHandler.CheckAvailability)

	mux.Handle("GET /metrics", collector.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = rateLimiter.RateLimit(envIntOr("RATE_LIMIT_MAX", 100), envIntOr("RATE_LIMIT_WINDOW_SECONDS", 60))(handler)
	handler = middleware.RequestLogger(handler)

	port := envOr("PORT", "8080")
	log.WithField("port", port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.WithError(err).Fatal("HTTP server failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
