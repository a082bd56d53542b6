// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agentmart/agentmart-backend/internal/config"
	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/database"
	"github.com/agentmart/agentmart-backend/internal/journal"
	"github.com/agentmart/agentmart-backend/internal/router"
	"github.com/agentmart/agentmart-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Assemble the ledger engine. Every emitted event lands in the durable
	// journal and the structured log; outbound transfers credit account
	// wallets.
	accounts := services.NewAccountService(db, cfg)
	sink := contracts.FanoutSink{journal.NewDBSink(db), journal.LogSink{}}
	clock := contracts.SystemClock{}
	owner := contracts.Address(cfg.Ledger.OwnerAddress)

	market := contracts.NewMarketplace(owner, cfg.Ledger.FeeBasisPoints, clock, sink, services.NewWalletTransferer(accounts))
	registry := contracts.NewRegistry(owner, clock, sink)
	listings := contracts.NewListingBook(registry, clock, sink)

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(db, cfg, market, registry, listings)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
