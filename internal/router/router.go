// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/ai"
	"github.com/openreq/marketplace-backend/internal/cache"
	"github.com/openreq/marketplace-backend/internal/config"
	"github.com/openreq/marketplace-backend/internal/handlers"
	"github.com/openreq/marketplace-backend/internal/middleware"
	"github.com/openreq/marketplace-backend/internal/services"
	"github.com/openreq/marketplace-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	assistClient := ai.NewClient(ai.Config{
		BaseURL: cfg.Assist.BaseURL,
		APIKey:  cfg.Assist.APIKey,
		Model:   cfg.Assist.Model,
		Timeout: time.Duration(cfg.Assist.TimeoutSeconds) * time.Second,
	})
	comparisonCache := cache.NewTTLCache(
		time.Duration(cfg.Assist.CacheTTL)*time.Second,
		cfg.Assist.CacheSize,
	)

	authService := services.NewAuthService(db, cfg, notificationService)
	userService := services.NewUserService(db)
	requestService := services.NewRequestService(db)
	offerService := services.NewOfferService(db, notificationService)
	negotiationService := services.NewNegotiationService(db, notificationService)
	assistService := services.NewAssistService(db, assistClient, comparisonCache)
	paymentService := services.NewPaymentService(db, cfg)
	addressService := services.NewAddressService(db)
	adminService := services.NewAdminService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, notificationService)
	requestHandler := handlers.NewRequestHandler(requestService, storageService)
	offerHandler := handlers.NewOfferHandler(offerService)
	negotiationHandler := handlers.NewNegotiationHandler(negotiationService)
	assistHandler := handlers.NewAssistHandler(assistService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	addressHandler := handlers.NewAddressHandler(addressService)
	adminHandler := handlers.NewAdminHandler(adminService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS([]string{cfg.Frontend.BaseURL}))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/v1")
	{
		// Authentication
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Users
		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.POST("/onboarding", userHandler.CompleteOnboarding)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.GET("/notifications", userHandler.ListNotifications)
			users.PUT("/notifications/:id/read", userHandler.MarkNotificationRead)
		}

		// Product requests
		requests := v1.Group("/requests")
		requests.Use(middleware.AuthRequired())
		{
			requests.POST("", requestHandler.CreateRequest)
			requests.GET("", requestHandler.ListOpenRequests)
			requests.GET("/mine", requestHandler.ListOwnRequests)
			requests.GET("/:id", requestHandler.GetRequest)
			requests.POST("/:id/cancel", requestHandler.CancelRequest)
			requests.POST("/:id/images", middleware.UploadRateLimit(), requestHandler.UploadImage)
		}

		// Offers and negotiation threads
		offers := v1.Group("/offers")
		offers.Use(middleware.AuthRequired())
		{
			offers.POST("", offerHandler.SubmitOffer)
			offers.GET("/mine", offerHandler.ListSellerOffers)
			offers.GET("/received", offerHandler.ListBuyerOffers)
			offers.GET("/:id", offerHandler.GetOffer)
			offers.POST("/:id/respond", offerHandler.RespondToOffer)
			offers.POST("/:id/withdraw", offerHandler.WithdrawOffer)
			offers.POST("/:id/messages", negotiationHandler.PostMessage)
			offers.GET("/:id/messages", negotiationHandler.ListThread)
		}

		// Advisory assistance
		assist := v1.Group("/assist")
		assist.Use(middleware.AuthRequired(), middleware.AssistRateLimit())
		{
			assist.POST("/chat", assistHandler.Chat)
			assist.POST("/price-research", assistHandler.ResearchPrice)
			assist.POST("/requests/:id/draft-offer", assistHandler.DraftOffer)
			assist.POST("/requests/:id/compare-offers", assistHandler.CompareOffers)
			assist.POST("/offers/:id/suggest-reply", assistHandler.SuggestReply)
		}

		// Payments and orders
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", paymentHandler.CreatePaymentIntent)
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
			payments.GET("", paymentHandler.GetPaymentHistory)
		}
		v1.GET("/orders/:id", middleware.AuthRequired(), paymentHandler.GetOrder)

		// Addresses
		addresses := v1.Group("/addresses")
		addresses.Use(middleware.AuthRequired())
		{
			addresses.POST("", addressHandler.CreateAddress)
			addresses.GET("", addressHandler.ListAddresses)
			addresses.PUT("/:id", addressHandler.UpdateAddress)
			addresses.PUT("/:id/default", addressHandler.SetDefaultAddress)
			addresses.DELETE("/:id", addressHandler.DeleteAddress)
		}

		// Admin
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
			admin.POST("/payments/refund", paymentHandler.ProcessRefund)
		}
	}

	return r
}
