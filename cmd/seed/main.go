package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"idealite/internal/auth"
	"idealite/internal/config"
	"idealite/internal/repository/postgres"
	postgresWorkspace "idealite/internal/repository/postgres/workspace"
	"idealite/internal/seed"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a workspace")
	clearData := flag.Bool("clear-data", false, "Clear the user's tags, folders and pages (keep schema)")
	userID := flag.String("user", "", "Owner of the seeded workspace (defaults to DEV_USER_ID)")
	email := flag.String("email", "", "Look up or create this Supabase user and seed for them (needs SUPABASE_KEY)")
	password := flag.String("password", "", "Password for a user created with -email")
	fixture := flag.String("fixture", seed.DefaultFixture, "Embedded fixture to seed")
	flag.Parse()

	// Load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (-drop-tables or -clear-data) in production")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	owner := *userID
	if *email != "" {
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			log.Fatalf("-email requires SUPABASE_URL and SUPABASE_KEY")
		}
		admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
		id, err := admin.EnsureUser(ctx, *email, *password)
		if err != nil {
			log.Fatalf("Failed to ensure user %s: %v", *email, err)
		}
		owner = id
	}
	if owner == "" {
		owner = cfg.DevUserID
	}

	log.Printf("Seeding (environment: %s, prefix: %s, user: %s)", cfg.Environment, cfg.TablePrefix, owner)

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := postgres.ClearUserData(ctx, pool, tables, owner); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("Data cleared")
		return
	}

	fx, err := seed.Load(*fixture)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}
	forest, err := seed.Build(fx, owner, time.Now())
	if err != nil {
		log.Fatalf("Failed to build fixture %s: %v", *fixture, err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	seeder := seed.NewSeeder(
		postgresWorkspace.NewTagRepository(repoConfig),
		postgresWorkspace.NewFolderRepository(repoConfig),
		postgresWorkspace.NewPageRepository(repoConfig),
		postgres.NewTransactionManager(pool, logger),
		logger,
	)

	stats, err := seeder.Seed(ctx, owner, forest)
	if err != nil {
		log.Fatalf("Failed to seed workspace: %v", err)
	}

	log.Printf("Seeding complete: %d tags, %d folders, %d pages", stats.Tags, stats.Folders, stats.Pages)
}
