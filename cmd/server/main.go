package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"aihq/internal/config"
	"aihq/internal/crypto"
	"aihq/internal/handlers"
	"aihq/internal/health"
	"aihq/internal/jobs"
	"aihq/internal/logging"
	"aihq/internal/middleware"
	"aihq/internal/models"
	"aihq/internal/sandbox"
	"aihq/internal/services"
	"aihq/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting AI-HQ Orchestrator...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Initialize encryption for the memory store
	var encryptionService *crypto.EncryptionService
	if cfg.EncryptionMasterKey != "" {
		var err error
		encryptionService, err = crypto.NewEncryptionService(cfg.EncryptionMasterKey)
		if err != nil {
			log.Fatalf("❌ Failed to initialize encryption: %v", err)
		}
		log.Println("✅ Encryption service initialized")
	} else {
		if cfg.Environment == "production" {
			log.Fatal("❌ CRITICAL SECURITY ERROR: ENCRYPTION_MASTER_KEY is required in production. Generate with: openssl rand -hex 32")
		}
		log.Println("⚠️  ENCRYPTION_MASTER_KEY not set - falling back to the deterministic dev key (NOT SECURE)")
		encryptionService = crypto.NewInsecureDevService()
	}

	// Stores
	memoryStore := services.NewMemoryStore(cfg.MemoryFile, encryptionService)
	proposalService := services.NewProposalService(cfg.ProposalsFile, cfg.StagingDir, cfg.AllowAutoDeploy)
	if cfg.AllowAutoDeploy {
		log.Println("⚠️  ALLOW_AUTO_DEPLOY is set - staging remains the maximum effect, nothing is deployed")
	}

	// Provider registry; the server still boots without one, every provider
	// call then degrades to a configuration error.
	providersConfig, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		log.Printf("⚠️  Failed to load %s: %v (all provider calls will degrade)", cfg.ProvidersFile, err)
		providersConfig = &models.ProvidersConfig{}
	}

	// Metrics, health tracking, gateway
	metrics := services.InitMetrics()
	healthService := health.NewService()
	gateway := services.NewGatewayService(providersConfig, cfg.GatewayTimeout, cfg.GatewayRateLimit, cfg.TrendCacheTTL, healthService, metrics)

	// Orchestration engine
	orchestrator := services.NewOrchestratorService(gateway, memoryStore, proposalService, metrics)

	// Sandbox executor (execution disabled by design)
	sandboxExecutor := sandbox.NewExecutorService()

	// Admin JWT auth for the approval surface
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ Admin JWT auth initialized")
	} else if cfg.Environment == "production" {
		log.Fatal("❌ CRITICAL SECURITY ERROR: JWT_SECRET is required in production")
	} else {
		log.Println("⚠️  JWT_SECRET not set - admin endpoints unauthenticated (development mode only)")
	}

	// Background jobs: provider health probe + daily ledger snapshot
	backupDir := filepath.Join(filepath.Dir(cfg.ProposalsFile), "backups")
	jobScheduler, err := jobs.NewScheduler(gateway, 30*time.Minute, jobs.NewLedgerSnapshot(cfg.ProposalsFile, backupDir))
	if err != nil {
		log.Fatalf("❌ Failed to initialize job scheduler: %v", err)
	}
	jobScheduler.Start()

	// Hot-reload the provider registry when providers.json changes
	go startProvidersFileWatcher(cfg.ProvidersFile, gateway)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI-HQ Orchestrator v1.0",
		ReadTimeout:  300 * time.Second, // hosted inference can be slow
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  300 * time.Second,
		BodyLimit:    10 * 1024 * 1024, // 10MB for identity documents in user_data
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("aihq")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Inference=%d/min",
		rateLimitConfig.GlobalMax, rateLimitConfig.InferenceMax)
	app.Use(middleware.GlobalRateLimiter(rateLimitConfig))
	inferenceLimiter := middleware.InferenceRateLimiter(rateLimitConfig)
	adminAuth := middleware.LocalAuthMiddleware(jwtAuth, cfg.Environment)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(healthService)
	chatHandler := handlers.NewChatHandler(orchestrator)
	proposalHandler := handlers.NewProposalHandler(orchestrator, proposalService)
	memoryHandler := handlers.NewMemoryHandler(orchestrator)
	workflowHandler := handlers.NewWorkflowHandler(orchestrator)
	sandboxHandler := handlers.NewSandboxHandler(sandboxExecutor)
	providerHandler := handlers.NewProviderHandler(gateway)

	// Routes
	app.Get("/health", healthHandler.Handle)
	app.Post("/chat", inferenceLimiter, chatHandler.Handle)
	app.Post("/propose-upgrade", inferenceLimiter, proposalHandler.Propose)
	app.Post("/approve-upgrade", adminAuth, proposalHandler.Approve)
	app.Get("/proposals", adminAuth, proposalHandler.List)
	app.Get("/memory", memoryHandler.Show)
	app.Post("/run-workflow", inferenceLimiter, workflowHandler.Run)
	app.Post("/run-sandbox", sandboxHandler.Run)
	app.Get("/providers", providerHandler.List)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️  Error stopping job scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// startProvidersFileWatcher watches providers.json for changes and reloads
// the gateway registry.
func startProvidersFileWatcher(filePath string, gateway *services.GatewayService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		watcher.Close()
		return
	}

	// Watch the directory containing the file (more reliable than watching
	// the file directly)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}

				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, reloading providers...", filePath)

					providersConfig, err := config.LoadProviders(filePath)
					if err != nil {
						log.Printf("❌ Failed to reload providers after file change: %v", err)
						return
					}
					gateway.Reload(providersConfig)
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
