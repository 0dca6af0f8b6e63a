package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	user "NutriScan_V1.0/internal/User"
	"NutriScan_V1.0/internal/admin"
	"NutriScan_V1.0/internal/auth"
	"NutriScan_V1.0/internal/database"
	"NutriScan_V1.0/internal/geminiservice"
	"NutriScan_V1.0/internal/server"
	"NutriScan_V1.0/internal/storage"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	// Initialize the database connection first. This populates the exported
	// 'database.Dbpool' variable the package inits depend on.
	dbService := database.NewService()
	defer dbService.Close() // Ensure the database connection is closed on exit.

	if err := auth.InitAuth(database.Dbpool); err != nil {
		log.Fatalf("Fatal error: could not initialize authentication: %v", err)
	}

	admin.InitAdminPackage(database.Dbpool)

	// Model fallback client for label analysis and chat.
	aiClient, err := geminiservice.NewClient(geminiservice.FallbackConfigFromEnv())
	if err != nil {
		log.Fatalf("Fatal error: could not initialize AI client: %v", err)
	}

	// Object storage for the raw label photos.
	imageStore, err := storage.NewService(context.Background())
	if err != nil {
		log.Fatalf("Fatal error: could not initialize image storage: %v", err)
	}
	defer imageStore.Close()

	if err := user.InitUserPackage(database.Dbpool, aiClient, imageStore); err != nil {
		log.Fatalf("Fatal error: could not initialize user package: %v", err)
	}

	server := server.NewServer()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")
}
