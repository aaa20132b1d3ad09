package router

import (
	"time"

	"nhadat/config"
	"nhadat/internal/handler"
	"nhadat/internal/middleware"
	"nhadat/internal/repository"
	"nhadat/internal/service"
	"nhadat/internal/ws"
	"nhadat/pkg/vnpay"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, gateway *vnpay.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	convRepo := repository.NewConversationRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Hubs
	inboxHub := ws.NewHub()
	chatHub := ws.NewChatHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	chatSvc := service.NewChatService(userRepo, propertyRepo, convRepo)
	paymentSvc := service.NewPaymentService(cfg, walletRepo, gateway)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	propertyHandler := handler.NewPropertyHandler(propertyRepo)
	chatHandler := handler.NewChatHandler(chatSvc)
	walletHandler := handler.NewWalletHandler(userRepo, walletRepo, propertyRepo, paymentSvc)
	vnpayHandler := handler.NewVNPayWebhookHandler(cfg, paymentSvc, notifSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	adminHandler := handler.NewAdminHandler(propertyRepo, userRepo, walletRepo, notifSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole("ADMIN")
	// Runs after authMw, so topup attempts are throttled per user account.
	topupMw := middleware.RateLimit(middleware.NewInMemoryRateLimiter(10, time.Minute))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		properties := api.Group("/properties")
		properties.Use(authMw)
		{
			properties.POST("", propertyHandler.Create)
			properties.GET("/mine", propertyHandler.ListMine)
			properties.GET("/:id", propertyHandler.Get)
			properties.PUT("/:id", propertyHandler.Update)
			properties.DELETE("/:id", propertyHandler.Delete)
		}

		chat := api.Group("/chat")
		chat.Use(authMw)
		{
			chat.GET("/conversations", chatHandler.ListConversations)
			chat.GET("/conversations/:conversation_id/messages", chatHandler.GetMessages)
		}

		wallet := api.Group("/wallet")
		{
			wallet.GET("/balance", authMw, walletHandler.GetBalance)
			wallet.GET("/transactions", authMw, walletHandler.GetTransactions)
			wallet.POST("/topup", authMw, topupMw, walletHandler.CreateTopup)
			wallet.POST("/withdraw", authMw, walletHandler.Withdraw)
			wallet.POST("/premium/:property_id", authMw, walletHandler.UpgradePremium(cfg.Wallet.PremiumFee))
			// Gateway callbacks are unauthenticated; authenticity comes from
			// the signature check inside the shared reconciliation logic.
			wallet.GET("/vnpay/return", vnpayHandler.HandleReturn)
			wallet.GET("/vnpay/ipn", vnpayHandler.HandleIpn)
		}

		notif := api.Group("/notifications")
		notif.Use(authMw)
		{
			notif.GET("", notificationHandler.List)
			notif.PUT("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/properties/pending", adminHandler.ListPendingProperties)
			admin.POST("/properties/:id/approve", adminHandler.ApproveProperty)
			admin.POST("/properties/:id/reject", adminHandler.RejectProperty)
			admin.POST("/wallets/:user_id/adjust", adminHandler.AdjustWallet)
		}
	}

	r.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, inboxHub, chatHub, userRepo, chatSvc, notifSvc))

	return r
}
