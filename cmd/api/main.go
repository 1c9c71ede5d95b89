package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shopfront/storefront-gateway/internal/awsx"
	"github.com/shopfront/storefront-gateway/internal/cart"
	"github.com/shopfront/storefront-gateway/internal/catalog"
	"github.com/shopfront/storefront-gateway/internal/config"
	"github.com/shopfront/storefront-gateway/internal/handlers"
	"github.com/shopfront/storefront-gateway/internal/logger"
	"github.com/shopfront/storefront-gateway/internal/session"
	"github.com/shopfront/storefront-gateway/internal/track"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterStorefrontRoutes(r, cfg)

	return r
}

func main() {
	// .env is optional; real deployments configure through the environment.
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

	var (
		sessionStore session.Store
		cartMirror   cart.Mirror
		clients      *awsx.Clients
	)
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		sessionStore = session.NewRedisStore(rdb)
		cartMirror = cart.NewRedisMirror(rdb, cfg.SessionTTL)
	case config.BackendMemory:
		sessionStore = session.NewMemoryStore()
		cartMirror = cart.NewMemoryMirror()
	default:
		clients, err = awsx.NewClients(ctx)
		if err != nil {
			log.Fatal("failed to init aws clients", zap.Error(err))
		}
		sessionStore = session.NewDynamoStore(clients.DynamoDB, cfg.SessionTable)
		cartMirror = cart.NewDynamoMirror(clients.DynamoDB, cfg.CartTable)
	}

	// The queue sink needs SQS even when state lives elsewhere.
	if cfg.TrackQueueURL != "" && clients == nil {
		clients, err = awsx.NewClients(ctx)
		if err != nil {
			log.Fatal("failed to init aws clients", zap.Error(err))
		}
	}

	catalogClient := catalog.NewClient(
		cfg.UpstreamBaseURL,
		logger.WithComponent(log, "catalog"),
		catalog.WithTimeout(cfg.UpstreamTimeout),
	)

	var metrics *awsx.Metrics
	if clients != nil {
		metrics = awsx.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace)
	}

	var sink track.Sink = &track.HTTPSink{Client: catalogClient}
	if cfg.TrackQueueURL != "" {
		sink = &track.QueueSink{Publisher: awsx.NewPublisher(clients.SQS, cfg.TrackQueueURL)}
	}
	dispatcher := track.NewDispatcher(sink, logger.WithComponent(log, "track"),
		track.WithQueueSize(cfg.TrackQueueSize),
		track.WithMetrics(metrics),
	)
	tracker := track.NewTracker(dispatcher)
	defer tracker.Close()

	hcfg := handlers.HandlerConfig{
		Catalog:  catalogClient,
		Sessions: session.NewManager(sessionStore, cfg.SessionTTL, logger.WithComponent(log, "session")),
		Cart:     cart.NewManager(catalogClient, cartMirror, logger.WithComponent(log, "cart")),
		Tracker:  tracker,
		Cookies:  session.CookieOptions{Secure: cfg.Environment == "production"},
		Logger:   logger.WithComponent(log, "handlers"),
	}

	r := setupRouter(hcfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":" + cfg.AppPort
		log.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			log.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
