package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/marketfront/api/internal/handlers"
	"github.com/marketfront/api/internal/platform/config"
	"github.com/marketfront/api/internal/platform/events"
	pfirestore "github.com/marketfront/api/internal/platform/firestore"
	"github.com/marketfront/api/internal/platform/observability"
	platformstorage "github.com/marketfront/api/internal/platform/storage"
	firestorerepo "github.com/marketfront/api/internal/repositories/firestore"
	"github.com/marketfront/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var imageStore services.ImageStore
	if cfg.Storage.ImagesBucket != "" {
		storageClient, err := cloudstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()
		imageStore, err = platformstorage.NewImageStore(storageClient, cfg.Storage.ImagesBucket)
		if err != nil {
			logger.Fatal("failed to initialise image store", zap.Error(err))
		}
	} else {
		logger.Info("image storage disabled; no bucket configured")
	}

	var (
		moderationEvents services.ModerationEventPublisher
		orderEvents      services.OrderEventPublisher
	)
	if cfg.PubSub.ModerationTopic != "" || cfg.PubSub.OrdersTopic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		if cfg.PubSub.ModerationTopic != "" {
			moderationEvents, err = events.NewPubSubModerationPublisher(pubsubClient.Topic(cfg.PubSub.ModerationTopic))
			if err != nil {
				logger.Fatal("failed to initialise moderation publisher", zap.Error(err))
			}
		}
		if cfg.PubSub.OrdersTopic != "" {
			orderEvents, err = events.NewPubSubOrderPublisher(pubsubClient.Topic(cfg.PubSub.OrdersTopic))
			if err != nil {
				logger.Fatal("failed to initialise order publisher", zap.Error(err))
			}
		}
	} else {
		logger.Info("event publishing disabled; no topics configured")
	}

	storeRepo, err := firestorerepo.NewStoreRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise store repository", zap.Error(err))
	}
	productRepo, err := firestorerepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	moderationRepo, err := firestorerepo.NewModerationRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise moderation repository", zap.Error(err))
	}
	recordRepo, err := firestorerepo.NewReviewRecordRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise review record repository", zap.Error(err))
	}
	checkoutRepo, err := firestorerepo.NewCheckoutRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise checkout repository", zap.Error(err))
	}
	orderRepo, err := firestorerepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	buyerRepo, err := firestorerepo.NewBuyerRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise buyer repository", zap.Error(err))
	}

	serviceLog := serviceLogger(logger.Named("services"))

	storeService, err := services.NewStoreService(services.StoreServiceDeps{
		Stores:     storeRepo,
		Products:   productRepo,
		Moderation: moderationRepo,
		Images:     imageStore,
		Logger:     serviceLog,
	})
	if err != nil {
		logger.Fatal("failed to initialise store service", zap.Error(err))
	}
	moderationService, err := services.NewModerationService(services.ModerationServiceDeps{
		Moderation: moderationRepo,
		Stores:     storeRepo,
		Products:   productRepo,
		Records:    recordRepo,
		Events:     moderationEvents,
		Recovery:   cfg.Moderation.RecoveryWindow,
		Logger:     serviceLog,
	})
	if err != nil {
		logger.Fatal("failed to initialise moderation service", zap.Error(err))
	}
	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Checkout: checkoutRepo,
		Buyers:   buyerRepo,
		Events:   orderEvents,
		Logger:   serviceLog,
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: orderRepo,
		Events: orderEvents,
		Logger: serviceLog,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}
	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Stores:   storeRepo,
		Products: productRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	storeHandlers := handlers.NewStoreHandlers(storeService)
	catalogHandlers := handlers.NewCatalogHandlers(catalogService)
	moderationHandlers := handlers.NewModerationHandlers(moderationService)
	buyerHandlers := handlers.NewBuyerHandlers(checkoutService)
	orderHandlers := handlers.NewOrderHandlers(orderService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck(func() error {
			probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := firestoreClient.Collections(probeCtx).Next()
			if err != nil && !errors.Is(err, iterator.Done) {
				return err
			}
			return nil
		}),
	)

	projectID := cfg.Firestore.ProjectID
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithStoreRoutes(storeHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithModerationRoutes(moderationHandlers.Routes),
		handlers.WithBuyerRoutes(buyerHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("marketfront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// serviceLogger adapts the structured zap logger to the lightweight event
// callback the services accept.
func serviceLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
