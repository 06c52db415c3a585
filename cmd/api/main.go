package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pm-health/patient-service/internal/auth"
	"github.com/pm-health/patient-service/internal/billing"
	"github.com/pm-health/patient-service/internal/config"
	"github.com/pm-health/patient-service/internal/db"
	internalhttp "github.com/pm-health/patient-service/internal/http"
	"github.com/pm-health/patient-service/internal/messaging"
	"github.com/pm-health/patient-service/internal/telemetry"
)

func main() {
	log.Println("patient-service starting")

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Telemetry is best-effort: the service runs without it.
	otelCfg := telemetry.LoadConfig()
	provider, err := telemetry.InitProvider(ctx, otelCfg)
	if err != nil {
		log.Printf("Warning: failed to initialize OpenTelemetry: %v", err)
		provider = nil
	}

	var metrics *telemetry.Metrics
	if provider != nil && provider.MeterProvider != nil {
		metrics, err = telemetry.InitMetrics()
		if err != nil {
			log.Printf("Warning: failed to initialize custom metrics: %v", err)
			metrics = nil
		}
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	// The publisher is best-effort as well: a broker outage must not keep the
	// service from starting, and Publish on a nil publisher is a no-op.
	publisher, err := messaging.NewPublisher(cfg.Broker.URL)
	if err != nil {
		log.Printf("Warning: failed to connect to RabbitMQ, events will not be published: %v", err)
		publisher = nil
	}
	defer publisher.Close()

	billingClient, err := billing.NewClient(billing.Config{
		BaseURL: cfg.Billing.URL,
		Timeout: cfg.BillingTimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to create billing client: %v", err)
	}

	var verifier *auth.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.Auth.JWTSecret)
		log.Println("✓ JWT authentication enabled")
	} else {
		log.Println("Warning: JWT_SECRET not set, authentication disabled")
	}

	router := internalhttp.SetupRouter(database, billingClient, publisher, verifier, metrics)
	handler := internalhttp.CORSMiddleware(cfg.HTTP.AllowedOrigins, router)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("✓ patient-service listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down patient-service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	if provider != nil {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during telemetry shutdown: %v", err)
		}
	}

	log.Println("patient-service stopped")
}
