// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agentmart/agentmart-backend/internal/config"
	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/handlers"
	"github.com/agentmart/agentmart-backend/internal/middleware"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config, market *contracts.Marketplace, registry *contracts.Registry, listings *contracts.ListingBook) *gin.Engine {
	// Initialize services
	accountService := services.NewAccountService(db, cfg)
	marketService := services.NewMarketService(market, registry, listings, accountService)
	paymentService := services.NewPaymentService(db, cfg, accountService)
	storageService, _ := services.NewStorageService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService)
	agentHandler := handlers.NewAgentHandler(marketService, storageService)
	marketHandler := handlers.NewMarketHandler(marketService)
	walletHandler := handlers.NewWalletHandler(accountService, paymentService)
	adminHandler := handlers.NewAdminHandler(marketService)
	registryHandler := handlers.NewRegistryHandler(marketService)
	listingHandler := handlers.NewListingHandler(marketService)
	eventHandler := handlers.NewEventHandler(db)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Wallet routes
		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired())
		{
			wallet.GET("", walletHandler.GetWallet)
			wallet.POST("/deposits", walletHandler.CreateDeposit)
			wallet.POST("/deposits/confirm", walletHandler.ConfirmDeposit)
			wallet.GET("/deposits", walletHandler.GetDeposits)
		}

		// Agent catalog routes
		agents := v1.Group("/agents")
		{
			agents.GET("", agentHandler.GetAgents)
			agents.GET("/top", agentHandler.GetTopRatedAgents)
			agents.GET("/:id", agentHandler.GetAgent)
			agents.GET("/:id/reviews", agentHandler.GetAgentReviews)
			agents.GET("/:id/purchases", agentHandler.GetAgentPurchases)

			agents.POST("", middleware.AuthRequired(), agentHandler.RegisterAgent)
			agents.GET("/artifacts", middleware.AuthRequired(), agentHandler.ListArtifacts)
			agents.POST("/artifacts", middleware.AuthRequired(), agentHandler.UploadArtifact)
			agents.POST("/:id/list", middleware.AuthRequired(), agentHandler.ListAgent)
			agents.POST("/:id/unlist", middleware.AuthRequired(), agentHandler.UnlistAgent)
			agents.PUT("/:id/price", middleware.AuthRequired(), agentHandler.UpdateAgentPrice)
		}

		// Marketplace routes
		mkt := v1.Group("/market")
		{
			mkt.GET("/stats", marketHandler.GetStats)
			mkt.GET("/info", marketHandler.GetMarketInfo)
			mkt.GET("/developers/:address/balance", marketHandler.GetBalanceOf)

			authed := mkt.Group("")
			authed.Use(middleware.AuthRequired())
			{
				authed.POST("/users", marketHandler.RegisterUser)
				authed.GET("/users/me", marketHandler.GetUser)
				authed.POST("/agents/:id/purchase", middleware.PurchaseRateLimit(), marketHandler.Purchase)
				authed.POST("/agents/:id/reviews", marketHandler.SubmitReview)
				authed.GET("/agents/:id/purchased", marketHandler.HasPurchased)
				authed.GET("/purchases", marketHandler.GetPurchaseHistory)
				authed.POST("/withdraw", marketHandler.WithdrawFunds)
				authed.GET("/balance", marketHandler.GetDeveloperBalance)
			}
		}

		// Admin routes (engine enforces ownership)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		{
			admin.PUT("/fee", adminHandler.UpdatePlatformFee)
			admin.POST("/withdraw-fees", adminHandler.WithdrawPlatformFees)
			admin.POST("/transfer-ownership", adminHandler.TransferOwnership)
			admin.PUT("/paused", adminHandler.SetPaused)
		}

		// Agent registry routes (decomposed catalog)
		reg := v1.Group("/registry")
		{
			reg.GET("/agents", registryHandler.GetAgents)
			reg.GET("/agents/:id", registryHandler.GetAgent)
			reg.GET("/roles/:role/:address", registryHandler.HasRole)

			authed := reg.Group("")
			authed.Use(middleware.AuthRequired())
			{
				authed.POST("/roles", registryHandler.GrantRole)
				authed.DELETE("/roles", registryHandler.RevokeRole)
				authed.POST("/agents", registryHandler.RegisterAgent)
				authed.POST("/agents/:id/deactivate", registryHandler.DeactivateAgent)
				authed.POST("/agents/:id/reactivate", registryHandler.ReactivateAgent)
				authed.POST("/agents/:id/transfer", registryHandler.TransferAgentOwnership)
			}
		}

		// Listing routes
		lst := v1.Group("/listings")
		{
			lst.GET("", listingHandler.GetListings)
			lst.GET("/:id", listingHandler.GetListing)
			lst.GET("/:id/price", listingHandler.GetListingPrice)
			lst.GET("/agent/:id", listingHandler.GetListingByAgent)

			authed := lst.Group("")
			authed.Use(middleware.AuthRequired())
			{
				authed.POST("", listingHandler.CreateListing)
				authed.PUT("/:id", listingHandler.UpdateListing)
				authed.POST("/:id/delist", listingHandler.DelistListing)
				authed.POST("/:id/sold", listingHandler.MarkSold)
			}
		}

		// Event journal
		v1.GET("/events", eventHandler.GetEvents)
	}

	return r
}
