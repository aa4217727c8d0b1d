package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"core-ledger/config"
	"core-ledger/handler"
	"core-ledger/ledger"
	"core-ledger/storage"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage
	store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.ConnectRetries)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()
	log.Println("Database connection established and schema initialized.")

	svc := ledger.NewService(store, ledger.SystemCalendar{}, ledger.WithAuditLogger(ledger.LogAuditLogger{}))

	// Create and start server
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(svc),
	}

	go func() {
		log.Printf("Starting server on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
