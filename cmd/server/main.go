package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"restaurant-order-service/internal/cache"
	"restaurant-order-service/internal/checkout"
	"restaurant-order-service/internal/circuitbreaker"
	"restaurant-order-service/internal/config"
	"restaurant-order-service/internal/controller"
	"restaurant-order-service/internal/feed"
	"restaurant-order-service/internal/geo"
	"restaurant-order-service/internal/idempotency"
	"restaurant-order-service/internal/middleware"
	"restaurant-order-service/internal/payment"
	"restaurant-order-service/internal/rabbit"
	"restaurant-order-service/internal/repository"
	"restaurant-order-service/internal/service"
	"restaurant-order-service/internal/validation"
)

func main() {
	cfg := config.Load()

	logger, err := cfg.Logger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexión a MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDBName)

	// Repositorios
	repo := repository.NewMongoOrderRepository(db, logger)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}
	storeConfigRepo := repository.NewMongoStoreConfigRepository(db)

	// Redis es opcional: sin él, idempotencia en memoria y geocoding sin caché
	rdb, err := cache.InitRedis(cfg.RedisAddr, cfg.RedisPassword, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory fallbacks", zap.Error(err))
	}

	var idem idempotency.Store = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		idem = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
	}

	// Geocoding: Google -> circuit breaker -> caché Redis
	var geocoder geo.Geocoder
	if google, err := geo.NewGoogleGeocoder(cfg.GoogleMapsKey); err != nil {
		logger.Warn("geocoding disabled, every address will be treated as out of range", zap.Error(err))
	} else {
		geocoder = geo.NewBreakerGeocoder(google, circuitbreaker.NewCircuitBreaker(5, 30*time.Second))
		if rdb != nil {
			geocoder = geo.NewCachedGeocoder(geocoder, rdb, 7*24*time.Hour, logger)
		}
	}
	center := geo.Point{Lat: cfg.DeliveryCenterLat, Lng: cfg.DeliveryCenterLng}
	checker := geo.NewChecker(geocoder, center, cfg.DeliveryRadiusMeters, logger)

	var payments payment.Processor
	if stripeProcessor, err := payment.NewStripeProcessor(cfg.StripeKey, circuitbreaker.NewCircuitBreaker(5, 30*time.Second)); err != nil {
		logger.Warn("card payments disabled", zap.Error(err))
	} else {
		payments = stripeProcessor
	}

	// Conexión a RabbitMQ. Sin broker el servicio funciona igual, sin eventos
	// ni comandos externos.
	var publisher service.Publisher
	var amqpCh *amqp091.Channel
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Error("rabbitmq unavailable, events disabled", zap.Error(err))
	} else {
		defer func() { _ = conn.Close() }()
		amqpCh, err = conn.Channel()
		if err != nil {
			logger.Fatal("rabbitmq channel", zap.Error(err))
		}
		if err := rabbit.DeclareTopology(amqpCh); err != nil {
			logger.Fatal("rabbitmq topology", zap.Error(err))
		}
		publisher = rabbit.NewPublisher(amqpCh, logger)
	}

	// Servicios
	validate := validation.New()
	orderService := service.NewOrderStatusService(repo, publisher, logger)
	storeConfigService := service.NewStoreConfigService(storeConfigRepo, validate, logger)
	authService := service.NewAuthService(cfg.AuthURL, cfg.JWTSecret)
	checkoutService := checkout.NewService(checkout.Options{
		Store:       repo,
		Checker:     checker,
		Payments:    payments,
		Idempotency: idem,
		Publisher:   publisher,
		StoreStatus: storeConfigService,
		Validator:   validate,
		DeliveryFee: cfg.DeliveryFee,
		Logger:      logger,
	})

	if amqpCh != nil {
		consumer := rabbit.NewStatusCommandConsumer(orderService, logger)
		if err := rabbit.SetupConsumers(ctx, amqpCh, consumer, logger); err != nil {
			logger.Fatal("rabbitmq consumers", zap.Error(err))
		}
	}

	// Feed de órdenes: change streams y, si mongod no los soporta, polling
	orderFeed := feed.New(repo, &feed.Fallback{
		Primary:   repository.NewMongoChangeSource(db, logger),
		Secondary: feed.NewPollingSource(cfg.FeedPollInterval),
		Log:       logger,
	}, logger)
	go orderFeed.Run(ctx)

	// Handlers
	orderCtrl := controller.NewOrderController(orderService, orderFeed, logger)
	checkoutCtrl := controller.NewCheckoutController(checkoutService)
	storeCtrl := controller.NewStoreConfigController(storeConfigService)

	checks := map[string]controller.Pinger{
		"mongo": func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// Router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.LoggerMiddleware(logger), middleware.MetricsMiddleware())

	// Rutas públicas
	r.GET("/health", controller.Health(checks))
	r.GET("/metrics", middleware.PrometheusHandler())
	r.GET("/store/config", storeCtrl.Get)

	// Rutas protegidas (requieren token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(authService))

	auth.POST("/checkout/quote", checkoutCtrl.Quote)
	auth.POST("/checkout/payment-intent", checkoutCtrl.PaymentIntent)
	auth.POST("/checkout", checkoutCtrl.Checkout)

	auth.GET("/orders/mine", orderCtrl.GetMyOrders)
	auth.GET("/orders/mine/stream", orderCtrl.StreamMyOrders)
	auth.GET("/orders/:orderId", orderCtrl.GetOrder)
	auth.GET("/orders/:orderId/latest", orderCtrl.GetLatestStatus)

	// Rutas admin
	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.GET("/orders", orderCtrl.GetAllOrders)
	admin.GET("/orders/stream", orderCtrl.StreamAdminOrders)
	admin.GET("/orders/status/:status", orderCtrl.GetOrdersByStatus)
	admin.PATCH("/orders/:orderId/status", orderCtrl.UpdateStatus)
	admin.PUT("/store/config", storeCtrl.Put)

	srv := controller.NewServer(ctx, ":"+cfg.Port, r)

	go func() {
		logger.Info("restaurant order service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}
