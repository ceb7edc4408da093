package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"codeatlas/internal/catalog"
	"codeatlas/internal/config"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/repository/postgres"
	"codeatlas/internal/service/graph"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before setup (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a sample analysis")
	clearData := flag.Bool("clear-data", false, "Clear all analyses and chat data (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("🏗️  Setting up schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		log.Println("🧹 Clearing analyses and chat data...")
		if err := clearAllData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Seed a sample analysis so the API has something to serve in dev
	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize technology catalog: %v", err)
	}

	if err := seedSampleAnalysis(ctx, pool, tables, registry, logger); err != nil {
		log.Fatalf("Failed to seed sample analysis: %v", err)
	}

	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create analyses table
	createAnalyses := `
		CREATE TABLE IF NOT EXISTS ` + tables.Analyses + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			source_type TEXT NOT NULL,
			file_graph JSONB,
			file_summaries JSONB,
			technologies JSONB,
			summary_text TEXT NOT NULL DEFAULT '',
			architecture_explanation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(project_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createAnalyses); err != nil {
		return err
	}

	// Create chat sessions table
	createSessions := `
		CREATE TABLE IF NOT EXISTS ` + tables.ChatSessions + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			analysis_id UUID NOT NULL REFERENCES ` + tables.Analyses + `(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createSessions); err != nil {
		return err
	}

	// Create chat messages table
	createMessages := `
		CREATE TABLE IF NOT EXISTS ` + tables.ChatMessages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID NOT NULL REFERENCES ` + tables.ChatSessions + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createMessages); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `analyses_user ON ` + tables.Analyses + `(user_id, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chat_sessions_analysis ON ` + tables.ChatSessions + `(analysis_id, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `chat_messages_session ON ` + tables.ChatMessages + `(session_id, created_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.ChatMessages,
		tables.ChatSessions,
		tables.Analyses,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// clearAllData clears analyses and, via cascade, their sessions and messages
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	_, err := pool.Exec(ctx, "DELETE FROM "+tables.Analyses)
	return err
}

// seedSampleAnalysis builds a graph for a small fixture project and stores
// it directly, skipping the LLM-backed explanation fields.
func seedSampleAnalysis(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, registry *catalog.Registry, logger *slog.Logger) error {
	files := []string{
		"package.json",
		"Dockerfile",
		"src/index.js",
		"src/components/App.jsx",
		"src/utils/helpers.js",
	}

	builder := graph.NewBuilder(registry, logger)
	detector := graph.NewDetector(registry)

	codeGraph := builder.Build("sample-project", files)
	codeGraph.Technologies = detector.Detect(files)

	repo := postgres.NewAnalysisRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})

	now := time.Now()
	record := &models.AnalysisRecord{
		ID:          uuid.New().String(),
		ProjectID:   "sample-project",
		UserID:      "seed-user",
		DisplayName: "Sample Project",
		SourceType:  models.SourceTypeInternal,
		FileGraph:   codeGraph,
		FileSummaries: map[string]string{
			"src/index.js": "Application entry point.",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := repo.Create(ctx, record); err != nil {
		return err
	}

	log.Printf("✅ Seeded sample analysis %s (%d nodes, %d technologies)",
		record.ID, len(codeGraph.Nodes), len(codeGraph.Technologies))
	return nil
}
