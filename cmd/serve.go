package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canvas_ai_server/internal/api"
	"canvas_ai_server/internal/build"
	"canvas_ai_server/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// --- Dependency Initialization ---
	streamer, err := newStreamer(ctx, cfg)
	if err != nil {
		return err
	}
	pages, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := realtime.NewHub(realtime.HubConfig{SendTimeout: cfg.ViewerSendTimeout})
	defer hub.Close()

	orch := build.NewOrchestrator(streamer, hub, pages, buildOptions(cfg))
	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	if publisher != nil {
		orch.WithPublisher(publisher)
	}
	svc := build.NewService(orch, pages, cfg.BuildTimeout)

	// --- Start API Server ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in Gin Debug Mode")
	}
	router := api.NewRouter(api.NewAPIHandler(svc, hub, cfg.BroadcastChannel, cfg.OwnerSecretKey))

	server := &http.Server{
		Addr:        cfg.ServerAddress,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// instruct holds the request open for the whole build
		WriteTimeout: cfg.BuildTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting API server on %s\n", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		log.Println("API server has stopped listening.")
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Printf("Received signal: %s. Shutting down server...", sig)
	case err := <-serveErr:
		return err
	}

	shutdownCtx, serverCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer serverCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server forced shutdown error: %v", err)
	} else {
		log.Println("API server gracefully stopped.")
	}
	log.Println("Application exiting.")
	return nil
}
