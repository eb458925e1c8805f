package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"idealite/internal/auth"
	"idealite/internal/config"
	"idealite/internal/handler"
	"idealite/internal/middleware"
	"idealite/internal/repository/postgres"
	postgresWorkspace "idealite/internal/repository/postgres/workspace"
	serviceWorkspace "idealite/internal/service/workspace"
)

func main() {
	// Load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := config.Load()

	var logFile *os.File
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, "server", cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer f.Close()
		logFile = f
	}

	var logger *slog.Logger
	if logFile != nil {
		logger = config.NewLogger(cfg, logFile)
	} else {
		logger = config.NewLogger(cfg, nil)
	}
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	tagRepo := postgresWorkspace.NewTagRepository(repoConfig)
	folderRepo := postgresWorkspace.NewFolderRepository(repoConfig)
	pageRepo := postgresWorkspace.NewPageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	workspaceService := serviceWorkspace.NewWorkspaceService(tagRepo, folderRepo, pageRepo, txManager, logger)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, logger)

	mux := http.NewServeMux()
	workspaceHandler.RegisterRoutes(mux)

	var h http.Handler = mux

	// Order matters: the last wrapper runs first
	if cfg.AuthDisabled {
		logger.Warn("AUTH DISABLED: all requests run as the dev user", "user_id", cfg.DevUserID)
		h = middleware.DevAuthMiddleware(cfg.DevUserID)(h)
	} else {
		jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	}
	if cfg.Debug {
		h = middleware.RequestLogger(logger)(h)
	}
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "addr", server.Addr)
	if err := serve(ctx, server, logger); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}

// serve runs server until ctx ends, then shuts it down and returns only after
// in-flight requests have drained (or the shutdown timeout passed).
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}
