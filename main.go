package main

import (
	"context"
	"log"
	"strings"

	api "triage-backend/cmd/api"
	authDelivery "triage-backend/internal/auth/delivery"
	authdomain "triage-backend/internal/auth/domain"
	authRepo "triage-backend/internal/auth/repository"
	"triage-backend/internal/notification"
	"triage-backend/internal/workitem/cache"
	workitemDelivery "triage-backend/internal/workitem/delivery"
	workitemdomain "triage-backend/internal/workitem/domain"
	workitemRepo "triage-backend/internal/workitem/repository"
	workitemUsecase "triage-backend/internal/workitem/usecase"
	"triage-backend/pkg/ai"
	"triage-backend/pkg/config"
	"triage-backend/pkg/database"
	"triage-backend/pkg/fcm"
	"triage-backend/pkg/gmail"
	"triage-backend/pkg/imap"
	"triage-backend/pkg/slack"
	"triage-backend/pkg/sse"
)

func main() {
	// Load configuration
	cfg := config.Load()
	api.InitRuntimeConfig(cfg.OllamaURL, cfg.OllamaModel)

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&workitemdomain.WorkItem{}, &authdomain.ConnectedAccount{}, &authdomain.FCMToken{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	itemRepo := workitemRepo.NewGormWorkItemRepository(db)
	accountRepo := authRepo.NewAccountRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Initialize source providers
	providers := []workitemdomain.SourceProvider{
		gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret),
		slack.NewService(),
		imap.NewService(),
	}

	// Initialize classifier: Gemini when configured, Ollama as fallback.
	// Ollama settings are read at call time so the settings API can adjust them.
	var geminiService ai.Classifier
	if cfg.GeminiAPIKey != "" {
		geminiService = ai.NewGeminiService(cfg.GeminiAPIKey)
	}
	ollamaService := ai.NewDynamicOllamaService(api.GetRuntimeOllamaBaseURL, api.GetRuntimeOllamaModel)
	classifier := ai.NewFallbackService(geminiService, ollamaService)

	// Initialize query cache
	queryCache := cache.New(cache.DefaultTTL)

	// Initialize use cases
	itemUsecase := workitemUsecase.NewWorkItemUsecase(itemRepo, queryCache, sseManager)
	itemUsecase.StartSnoozeChecker()

	// Initialize FCM Client (optional, pushes are skipped without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		}
	}

	// The notification service and the sync usecase reference each other
	// (pubsub triggers syncs, syncs push FCM notifications); create the
	// service first and inject the pipeline afterwards.
	var notifService *notification.Service
	var notifier workitemUsecase.Notifier

	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		notifService, err = notification.NewService(cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, sseManager, accountRepo, fcmTokenRepo, fcmClient)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			notifier = notifService
		}
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, notification service disabled")
	}

	syncUsecase := workitemUsecase.NewSyncUsecase(itemRepo, accountRepo, providers, classifier, queryCache, sseManager, notifier)
	if notifService != nil {
		notifService.SetSyncUsecase(syncUsecase)
		go notifService.Start(context.Background())
	}

	// Initialize HTTP handler
	itemHandler := workitemDelivery.NewWorkItemHandler(itemUsecase, syncUsecase)
	fcmHandler := authDelivery.NewFCMHandler(fcmTokenRepo)
	handler := api.NewHandler(cfg, sseManager, itemHandler, fcmHandler)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
