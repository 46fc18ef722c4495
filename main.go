package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vitalite/internal/config"
	"vitalite/internal/database"
	"vitalite/internal/handlers"
	"vitalite/internal/metrics"
	"vitalite/internal/middleware"
	"vitalite/internal/oauth"
	"vitalite/internal/strava"
	"vitalite/internal/sync"
)

func main() {
	// Define CLI flags
	listUsers := flag.Bool("list-users", false, "List all connected users")
	recomputePoints := flag.Int64("recompute-points", 0, "Recompute daily points for a user ID from stored activities")

	flag.Parse()

	// Check if any CLI command was requested
	if *listUsers || *recomputePoints != 0 {
		runCLI(*listUsers, *recomputePoints)
		return
	}

	// Otherwise, start the server
	runServer()
}

func runCLI(listUsers bool, recomputePoints int64) {
	// Disable structured logging for CLI
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors
	})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	switch {
	case listUsers:
		handleListUsers(db)
	case recomputePoints != 0:
		handleRecomputePoints(db, cfg, recomputePoints)
	}
}

func handleListUsers(db *database.DB) {
	users, err := db.ListUsers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list users: %v\n", err)
		os.Exit(1)
	}

	if len(users) == 0 {
		fmt.Println("No connected users found.")
		return
	}

	fmt.Printf("Found %d user(s):\n\n", len(users))
	for _, u := range users {
		fmt.Printf("ID: %d\n", u.ID)
		fmt.Printf("  Name: %s\n", u.Name)
		fmt.Printf("  Strava athlete: %d\n", u.StravaAthleteID)
		if u.DOB != nil {
			fmt.Printf("  DOB: %s\n", *u.DOB)
		}
		fmt.Printf("  Connected: %t\n", u.AccessToken != "")
		fmt.Println()
	}
}

func handleRecomputePoints(db *database.DB, cfg *config.Config, userID int64) {
	client := strava.NewClient(cfg)
	orchestrator := sync.NewOrchestrator(db, client, cfg)

	fmt.Printf("Recomputing daily points for user %d...\n", userID)

	if err := orchestrator.RecomputeUser(userID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Points recomputed successfully!")
}

func runServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting vitalite server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"start_date", cfg.StartDate,
		"log_level", cfg.LogLevel)

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	logger.Info("Database opened successfully")

	// Create Strava client and sync orchestrator
	stravaClient := strava.NewClient(cfg)
	orchestrator := sync.NewOrchestrator(db, stravaClient, cfg)

	// Create OAuth manager
	oauthManager := oauth.NewManager(db, stravaClient)

	// Create handlers
	dashboardHandler := handlers.NewDashboardHandler(db, orchestrator, oauthManager, cfg)
	oauthHandler := handlers.NewOAuthHandler(oauthManager)
	syncHandler := handlers.NewSyncHandler(orchestrator)
	userHandler := handlers.NewUserHandler(db, orchestrator)

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Dashboard
	mux.Handle("/", middleware.WrapHandler(metrics.EndpointDashboard, dashboardHandler.HandleDashboard))

	// OAuth endpoints
	mux.Handle("/oauth-start", middleware.WrapHandler(metrics.EndpointOAuthStart, oauthHandler.HandleAuthStart))
	mux.Handle("/oauth-callback", middleware.WrapHandler(metrics.EndpointOAuthCb, oauthHandler.HandleCallback))

	// Sync trigger endpoints
	mux.Handle("/api/sync", middleware.WrapHandler(metrics.EndpointSync, syncHandler.HandleSync))
	mux.Handle("/api/sync/week", middleware.WrapHandler(metrics.EndpointSyncWeek, syncHandler.HandleSyncWeek))

	// User settings endpoints
	mux.Handle("/api/user/dob", middleware.WrapHandler(metrics.EndpointUserDOB, userHandler.HandleDOB))
	mux.Handle("/api/user/disconnect", middleware.WrapHandler(metrics.EndpointDisconnect, userHandler.HandleDisconnect))
	mux.Handle("/api/users", middleware.WrapHandler(metrics.EndpointUsers, userHandler.HandleListUsers))

	// Health check endpoint
	mux.Handle("/health", middleware.WrapHandler(metrics.EndpointHealth, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second, // Inline week syncs can wait on the provider
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
