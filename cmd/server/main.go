package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"codeatlas/internal/catalog"
	"codeatlas/internal/config"
	"codeatlas/internal/handler"
	"codeatlas/internal/llm"
	"codeatlas/internal/middleware"
	"codeatlas/internal/repository/postgres"
	"codeatlas/internal/repository/snapshotfs"
	"codeatlas/internal/service/analysis"
	"codeatlas/internal/service/chat"
	"codeatlas/internal/service/graph"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	analysisRepo := postgres.NewAnalysisRepository(repoConfig)
	sessionRepo := postgres.NewChatSessionRepository(repoConfig)
	messageRepo := postgres.NewChatMessageRepository(repoConfig)

	// Snapshot store (filesystem-backed)
	snapshotStore, err := snapshotfs.NewStore(cfg.SnapshotDir, logger)
	if err != nil {
		log.Fatalf("Failed to create snapshot store: %v", err)
	}

	// Initialize technology catalog
	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize technology catalog: %v", err)
	}
	logger.Info("technology catalog initialized")

	// Completion provider
	provider, err := llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.DefaultModel)
	if err != nil {
		log.Fatalf("Failed to create completion provider: %v", err)
	}

	// Create services
	builder := graph.NewBuilder(registry, logger)
	detector := graph.NewDetector(registry)
	analysisService := analysis.NewService(
		analysisRepo,
		snapshotStore,
		builder,
		detector,
		provider,
		registry,
		cfg.DiffListLimit,
		logger,
	)
	chatService := chat.NewService(sessionRepo, messageRepo, analysisRepo, provider, logger)

	// Create handlers
	analysisHandler := handler.NewAnalysisHandler(analysisService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", analysisHandler.HealthCheck)

	// Analysis routes
	mux.HandleFunc("POST /api/projects/{id}/analyze", analysisHandler.Analyze)
	mux.HandleFunc("POST /api/projects/{id}/explain", analysisHandler.Explain)
	mux.HandleFunc("GET /api/projects/{id}/snapshots", analysisHandler.ListSnapshots)
	mux.HandleFunc("GET /api/projects/{id}/snapshots/latest", analysisHandler.LatestSnapshot)
	mux.HandleFunc("POST /api/compare", analysisHandler.Compare)
	mux.HandleFunc("GET /api/analyses", analysisHandler.ListAnalyses)
	mux.HandleFunc("GET /api/analyses/{id}", analysisHandler.GetAnalysis)

	// Chat routes
	mux.HandleFunc("POST /api/chat", chatHandler.StartChat)
	mux.HandleFunc("POST /api/sessions", chatHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions", chatHandler.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}/messages", chatHandler.GetMessages)
	mux.HandleFunc("POST /api/sessions/{id}/messages", chatHandler.SendMessage)
	mux.HandleFunc("DELETE /api/sessions/{id}", chatHandler.DeleteSession)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Identity → Routes
	root = middleware.Identity()(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must come first to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
