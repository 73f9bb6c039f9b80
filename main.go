package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wellness-progress-system/config"
	"wellness-progress-system/handlers"
	"wellness-progress-system/middleware"
	"wellness-progress-system/models"
	"wellness-progress-system/services"
	"wellness-progress-system/utils"
	"wellness-progress-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — badge icons at most
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// CORS for the web client; origins come comma-separated from the env
	allowedOriginsList := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ProgressRecord{},
		&models.ActivityEntry{},
		&models.CelebrationEvent{},
		&models.CommunityComment{},
		&models.CommunityPhoto{},
		&models.DirectMessage{},
		&models.Friendship{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	store := services.NewGormProgressStore(db)
	engine := services.NewBadgeEngine(models.DefaultBadgeCatalog)
	notifier := services.NewNotificationClient(cfg.NotificationServiceURL, cfg.ServiceToken)
	celebrations := services.NewStoredCelebrationSink(store)
	progressionService := services.NewProgressionService(store, engine, notifier, celebrations)
	celebrationStream := services.NewCelebrationStream(store)
	authClient := services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.ServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	socialSyncWorker := workers.NewSocialSyncWorker(
		db,
		progressionService,
		cfg.CommunityServiceURL,
		cfg.ServiceToken,
		time.Duration(cfg.SocialSyncSeconds)*time.Second,
	)
	socialSyncWorker.Start(ctx)

	progressionService.StartBadgeCatchUpScheduler()

	// ✅ Setup routes — enforced Gateway auth + user context per route group
	handlers.SetupProgressionRoutes(app, progressionService, celebrationStream, authClient)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Progression service running on %s", cfg.ListenAddr)
	log.Println("✅ Social Sync Worker running")
	log.Println("✅ Badge catch-up scheduler running (hourly)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
