package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"amora_server/config"
	"amora_server/metrics"
	"amora_server/middleware"
	"amora_server/routes"
	"amora_server/services"
	"amora_server/socket"
	"amora_server/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// AWS is needed for DynamoDB and for S3 photo storage
	var awsCfg aws.Config
	if cfg.StorageBackend == config.StorageDynamoDB || cfg.S3BucketName != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
	}

	var docStore store.DocumentStore
	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		docStore = store.NewMemoryStore()
	case config.StorageDynamoDB:
		log.Info("Initializing DynamoDB client...")
		docStore = store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTablePrefix, store.DefaultIndexes)
	default:
		log.Fatalf("Unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	var media services.MediaStorage
	if cfg.S3BucketName != "" {
		media = services.NewMediaService(s3.NewFromConfig(awsCfg), cfg.S3BucketName, cfg.AWSRegion, cfg.MediaURLExpiry)
	} else {
		log.Warn("S3_BUCKET_NAME not set, photo uploads are disabled")
	}

	var cache services.ProfileCache = services.NoopProfileCache{}
	if cfg.RedisAddr != "" {
		redisCache, err := services.NewRedisProfileCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.ProfileCacheTTL)
		if err != nil {
			log.Warnf("Profile cache disabled: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	firebaseApp, err := services.NewFirebaseApp(ctx, services.FirebaseConfig{
		ProjectID:         cfg.FirebaseProjectID,
		CredentialsFile:   cfg.GoogleApplicationCredentials,
		CredentialsBase64: cfg.FirebaseServiceAccountJSONBase64,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	authProvider, err := services.NewFirebaseAuthProvider(ctx, firebaseApp, cfg.FirebaseWebAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	var push services.PushSender
	if fcm, err := services.NewFCMSender(ctx, firebaseApp); err != nil {
		log.Warnf("Push delivery disabled: %v", err)
	} else {
		push = fcm
	}

	var payments services.PaymentProvider
	if cfg.StripeSecretKey != "" {
		payments = services.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, payments are disabled")
	}
	if cfg.CallTokenSecret == "" {
		log.Warn("CALL_TOKEN_SECRET not set, calls are disabled")
	}

	live := socket.NewServer()
	var clock services.Clock

	// Initialize Services
	notificationService := services.NewNotificationService(docStore, push, live, clock)
	userProfileService := services.NewUserProfileService(docStore, media, cache, clock)
	offerService := services.NewOfferService(docStore, clock)
	subscriptionService := services.NewSubscriptionService(docStore, offerService, payments, notificationService, clock)
	discoveryService := services.NewDiscoveryService(docStore, userProfileService, clock, cfg.DiscoveryPageSize, cfg.DiscoveryDefaultMaxAge)
	matchService := services.NewMatchService(docStore, userProfileService, subscriptionService, notificationService, live, clock)
	chatService := services.NewChatService(docStore, userProfileService, notificationService, live, clock)
	aiProfileService := services.NewAIProfileService(docStore, userProfileService, chatService, clock)
	callService := services.NewCallService(docStore, chatService, notificationService, live, clock, cfg.CallTokenSecret, cfg.CallTokenTTL)
	authService := services.NewAuthService(authProvider, userProfileService, notificationService, clock)

	live.Verifier = authService
	live.Chats = chatService
	go live.Serve()
	defer live.Close()

	scheduler := services.NewExpiryScheduler(subscriptionService, clock, cfg.ExpirySweepSchedule)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize the router
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	auth := middleware.Auth(authService)

	routes.RegisterRoutes(r)
	routes.RegisterAuthRoutes(r, authService, auth)
	routes.RegisterUserProfileRoutes(r, userProfileService, auth)
	routes.RegisterDiscoveryRoutes(r, discoveryService, matchService, auth)
	routes.RegisterMatchRoutes(r, matchService, auth)
	routes.RegisterChatRoutes(r, chatService, auth)
	routes.RegisterAIRoutes(r, aiProfileService, auth)
	routes.RegisterOfferRoutes(r, offerService, auth)
	routes.RegisterSubscriptionRoutes(r, subscriptionService, auth)
	routes.RegisterNotificationRoutes(r, notificationService, auth)
	routes.RegisterCallRoutes(r, callService, auth)
	r.PathPrefix("/socket.io/").Handler(live.Handler())

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
	}).Handler(middleware.Recovery(middleware.Logging(r)))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
