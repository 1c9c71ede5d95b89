package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shopfront/storefront-gateway/internal/awsx"
	"github.com/shopfront/storefront-gateway/internal/catalog"
	"github.com/shopfront/storefront-gateway/internal/config"
	"github.com/shopfront/storefront-gateway/internal/logger"
	"github.com/shopfront/storefront-gateway/internal/track"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		stdlog.Fatalf("failed to init logger: %v", err)
	}
	defer log.Sync()

	if cfg.UpstreamBaseURL == "" {
		log.Fatal("API_BASE_URL is required")
	}

	ctx := context.Background()
	clients, err := awsx.NewClients(ctx)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	catalogClient := catalog.NewClient(
		cfg.UpstreamBaseURL,
		logger.WithComponent(log, "catalog"),
		catalog.WithTimeout(cfg.UpstreamTimeout),
	)

	relay := NewRelay(
		&track.HTTPSink{Client: catalogClient},
		awsx.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		logger.WithComponent(log, "relay"),
	)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"session_id":"local-session-1","event_type":"view_product","timestamp":"2024-01-01T00:00:00Z","product_id":1}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := relay.Handle(context.Background(), event); err != nil {
			log.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(relay.Handle)
}
