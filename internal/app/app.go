package app

import (
	"database/sql"
	"fmt"
	"log"

	"kammalabel/internal/config"
	"kammalabel/internal/handlers"
	"kammalabel/internal/pdf"
	"kammalabel/internal/repositories"
	"kammalabel/internal/routes"
	"kammalabel/internal/services"
	"kammalabel/internal/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "kammalabel/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	addressRepo := repositories.NewAddressRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	cartRepo := repositories.NewCartRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	// === Services ===
	rnd := utils.NewRandom()
	authService := services.NewAuthService()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)

	// SMS провайдер (Mobizon) из конфига
	mobizonClient := utils.NewClientWithOptions(
		cfg.Mobizon.APIKey,
		cfg.Mobizon.SenderID,
		cfg.Mobizon.DryRun,
	)
	dispatcher := services.NewDispatcher(emailService, mobizonClient)

	verificationService := services.NewVerificationService(verificationRepo, userRepo, dispatcher, rnd, cfg.Auth)
	tokenService := services.NewTokenService(tokenRepo, userRepo, rnd, cfg.Auth)
	accountService := services.NewAccountService(userRepo, authService, verificationService, tokenService, emailService)

	catalogService := services.NewCatalogService(catalogRepo)
	cartService := services.NewCartService(cartRepo, catalogRepo)

	// PDF генератор квитанций (TTF с кириллицей)
	pdfGen := pdf.NewReceiptGenerator(cfg.Files.RootDir, "assets/fonts/DejaVuSans.ttf")

	// Telegram-уведомления о заказах, nil если не настроено
	notifier := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)

	orderService := services.NewOrderService(orderRepo, cartService, catalogRepo, addressRepo, userRepo, pdfGen, notifier)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(accountService)
	profileHandler := handlers.NewProfileHandler(accountService, userRepo, addressRepo, orderService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		tokenService,
		cfg.Auth.SessionSecret,
		authHandler,
		profileHandler,
		catalogHandler,
		cartHandler,
		orderHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
