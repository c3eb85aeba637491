package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coursemarket/server/internal/handler"
	"github.com/coursemarket/server/internal/middleware"
	"github.com/coursemarket/server/internal/repository"
	"github.com/coursemarket/server/internal/service"
	"github.com/coursemarket/server/pkg/mailer"
	"github.com/coursemarket/server/pkg/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	contentRepo := repository.NewContentRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	searchSvc := newSearchService()

	authSvc := service.NewAuthService(userRepo, mailer.NewSendgridMailer(), redisClient)
	authHandler := handler.NewAuthHandler(authSvc)

	userSvc := service.NewUserService(userRepo, contentRepo, fileStorage, searchSvc)
	userHandler := handler.NewUserHandler(userSvc)

	contentSvc := service.NewContentService(contentRepo, userRepo, fileStorage, searchSvc)
	contentHandler := handler.NewContentHandler(contentSvc)

	paymentSvc := service.NewPaymentService(purchaseRepo, contentRepo, userRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)

	messageSvc := service.NewMessageService(messageRepo)
	messageHandler := handler.NewMessageHandler(messageSvc)

	var chatSvc service.ChatService
	if os.Getenv("GEMINI_API_KEY") != "" {
		chatSvc, err = service.NewChatService(context.Background())
		if err != nil {
			log.Printf("chat service disabled: %v", err)
		}
	}
	chatHandler := handler.NewChatHandler(chatSvc, messageSvc, redisClient)

	router := gin.New()

	setupCORS(router)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware()

	// Stripe needs the raw body for signature verification, so the webhook
	// lives outside /api and skips every other middleware.
	router.POST("/webhook", paymentHandler.Webhook)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/google-login", authHandler.GoogleLogin)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// Anonymous browsing and search see approved content only.
	api.GET("/content/home-content", contentHandler.GetHomeContent)
	api.GET("/content/search", contentHandler.SearchContent)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/users/profile", userHandler.Profile)
		protected.PUT("/users/:id", userHandler.UpdateUser)

		adminUsers := protected.Group("/users")
		adminUsers.Use(authMiddleware.RequireAdmin())
		{
			adminUsers.GET("", userHandler.ListUsers)
			adminUsers.GET("/:id", userHandler.GetUser)
			adminUsers.DELETE("/:id", userHandler.DeleteUser)
			adminUsers.POST("/approve-request/:id", userHandler.ApproveUser)
		}

		protected.GET("/content", contentHandler.GetContent)
		protected.POST("/content/create-content", contentHandler.CreateContent)
		protected.GET("/content/:id", contentHandler.GetContentByID)
		protected.PUT("/content/:id", contentHandler.UpdateContent)
		protected.DELETE("/content/:id", contentHandler.DeleteContent)

		adminContent := protected.Group("/content")
		adminContent.Use(authMiddleware.RequireAdmin())
		{
			adminContent.POST("/approve/:id", contentHandler.ApproveContent)
		}

		protected.POST("/subscription/create-checkout-session", paymentHandler.CreateCheckoutSession)

		protected.POST("/messages", messageHandler.SendMessage)
		protected.GET("/messages/:roomId", messageHandler.RoomHistory)
		protected.GET("/messages/:roomId/:userId1/:userId2", messageHandler.Conversation)

		protected.GET("/chat/ws", chatHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func newSearchService() service.SearchService {
	meiliHost := os.Getenv("MEILISEARCH_HOST")
	if meiliHost == "" {
		return nil
	}
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}

	client := meilisearch.New(meiliHost, meilisearch.WithAPIKey(os.Getenv("MEILI_MASTER_KEY")))
	return service.NewSearchService(client)
}

func setupCORS(router *gin.Engine) {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
