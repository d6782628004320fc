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
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/config"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/handlers"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/notify"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/services"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/services/pix"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/store"
	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/utils"
)

func main() {
	// Load .env in development; ignore absence in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	ticketStore := store.NewTicketStore(redisClient)
	paymentStore := store.NewPaymentStore(redisClient)
	eventStore := store.NewEventStore(redisClient)

	provider := pix.New(&pix.ClientConfig{
		BaseURL: cfg.PixBaseURL,
		APIKey:  cfg.PixAPIKey,
		Timeout: cfg.PixTimeout,
	})

	var notifier services.Notifier = notify.NoopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNubNotifier(notify.Config{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			SecretKey:    cfg.PubNubSecretKey,
			UUID:         cfg.PubNubUUID,
		})
	}

	// The token encoder is a startup decision; a signed deployment
	// without its key must not come up at all.
	var encoder services.TokenEncoder = services.PlainTokenEncoder{}
	if cfg.IssuerMode == "signed" {
		key, err := services.LoadSigningKey(cfg.SigningKeyPaths)
		if err != nil {
			log.Fatalf("signed issuer configured but no usable key: %v", err)
		}
		encoder = services.NewSignedTokenEncoder(key, eventStore)
	}

	issuerService := services.NewIssuerService(ticketStore, eventStore, encoder)
	redemptionService := services.NewRedemptionService(ticketStore)
	paymentService := services.NewPaymentService(paymentStore, provider, notifier, cfg.PaymentTTL)

	ticketHandler := handlers.NewTicketHandler(issuerService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	e := echo.New()

	// Ticket endpoints
	e.POST("/api/tickets", ticketHandler.Issue)
	e.POST("/api/tickets/redeem", redemptionHandler.Redeem)

	// Payment endpoints
	e.POST("/api/payments/pix", paymentHandler.CreatePixPayment)
	e.GET("/api/payments/:paymentId/status", paymentHandler.GetStatus)

	// Provider webhook
	e.POST("/api/webhooks/pix", paymentHandler.Webhook)

	if cfg.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	server := newServer(e, cfg.Port)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// newServer wraps the echo router in an http.Server so shutdown can drain
// in-flight requests.
func newServer(e *echo.Echo, port string) *http.Server {
	return &http.Server{
		Addr:    ":" + port,
		Handler: e,
	}
}
