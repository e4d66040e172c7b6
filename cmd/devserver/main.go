// Package main starts the TidyList dev server: an in-memory
// implementation of the backend API for local development and tests,
// wiring configuration, logging, repositories, services and handlers.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/internal/logger"
	"github.com/tidylist/tidylist/internal/repository"
	"github.com/tidylist/tidylist/internal/server/handler/http"
	"github.com/tidylist/tidylist/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Address

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize in-memory repositories. Nothing survives a restart;
	// this server exists for local development only.
	userRepo := repository.NewMemoryUserRepository()
	todoRepo := repository.NewMemoryTodoRepository()
	imageRepo := repository.NewMemoryImageRepository()

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo)
	todoService := service.NewTodoService(todoRepo)
	agentService := service.NewAgentService(todoService)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Images: imageRepo}
	todoHandler := &http.TodoHandler{TodoService: todoService}
	aiHandler := &http.AIHandler{Agent: agentService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, todoHandler, aiHandler, authService, zapLogger)

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	zapLogger.Info("starting dev server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start dev server", zap.Error(err))
	}
}
