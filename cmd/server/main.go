package main

import (
	"context"
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

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/domain/models"
	"inkwell/internal/handler"
	"inkwell/internal/middleware"
	"inkwell/internal/realtime"
	"inkwell/internal/repository/postgres"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	tunables, err := config.LoadTunables()
	if err != nil {
		log.Fatalf("Failed to load tunables: %v", err)
	}

	verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}
	defer verifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected", "max_conns", 25, "min_conns", 5)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	workspaceRepo := postgres.NewWorkspaceRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	collaboratorRepo := postgres.NewCollaboratorRepository(repoConfig)

	// Realtime hub relays edits and presence between sessions.
	hub := realtime.NewHub(logger, realtime.HubOptions{
		SendBuffer:     tunables.RoomSendBuffer,
		MaxMessageSize: tunables.MaxMessageSize,
		WriteTimeout:   tunables.WriteTimeout,
		PingInterval:   tunables.PingInterval,
		PongTimeout:    tunables.PongTimeout,
	})

	// The database trigger feeds file row changes into the hub so every
	// connected client keeps its tree current.
	feed := postgres.NewChangeFeed(pool, logger)
	go func() {
		err := feed.Run(ctx, func(op string, file models.File) {
			hub.BroadcastFileChange(realtime.FileChange{Kind: feedKind(op), File: file})
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("change feed stopped", "error", err)
		}
	}()

	workspaceHandler := handler.NewWorkspaceHandler(workspaceRepo, logger)
	folderHandler := handler.NewFolderHandler(folderRepo, logger)
	fileHandler := handler.NewFileHandler(fileRepo, logger)
	userHandler := handler.NewUserHandler(userRepo, logger)
	collaboratorHandler := handler.NewCollaboratorHandler(collaboratorRepo, logger)
	wsHandler := handler.NewWSHandler(hub, cfg.CORSOrigins, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", workspaceHandler.HealthCheck)

	mux.HandleFunc("GET /api/workspaces", workspaceHandler.ListWorkspaces)
	mux.HandleFunc("POST /api/workspaces", workspaceHandler.CreateWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}", workspaceHandler.GetWorkspace)
	mux.HandleFunc("PATCH /api/workspaces/{id}", workspaceHandler.UpdateWorkspace)
	mux.HandleFunc("DELETE /api/workspaces/{id}", workspaceHandler.DeleteWorkspace)

	mux.HandleFunc("GET /api/workspaces/{id}/folders", folderHandler.ListFolders)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)

	mux.HandleFunc("GET /api/folders/{id}/files", fileHandler.ListFiles)
	mux.HandleFunc("POST /api/files", fileHandler.CreateFile)
	mux.HandleFunc("GET /api/files/{id}", fileHandler.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", fileHandler.UpdateFile)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.DeleteFile)

	mux.HandleFunc("GET /api/users/me", userHandler.GetMe)
	mux.HandleFunc("GET /api/users/search", userHandler.SearchUsers)

	mux.HandleFunc("GET /api/workspaces/{id}/collaborators", collaboratorHandler.ListCollaborators)
	mux.HandleFunc("POST /api/workspaces/{id}/collaborators", collaboratorHandler.AddCollaborator)
	mux.HandleFunc("DELETE /api/workspaces/{id}/collaborators/{userID}", collaboratorHandler.RemoveCollaborator)

	mux.HandleFunc("GET /ws", wsHandler.Connect)

	// Build middleware chain. Order: CORS -> Recovery -> Auth -> Routes;
	// CORS outermost so OPTIONS pre-flight never hits auth.
	var root http.Handler = mux
	root = middleware.Auth(verifier)(root)
	root = middleware.Recovery(logger)(root)
	root = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(root)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays disabled for long-lived websocket sessions.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// feedKind maps a trigger TG_OP to the wire change kind.
func feedKind(op string) realtime.FileChangeKind {
	switch op {
	case "INSERT":
		return realtime.FileInserted
	case "DELETE":
		return realtime.FileDeleted
	default:
		return realtime.FileUpdated
	}
}
