package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tournament-arena-system/handlers"
	"tournament-arena-system/middleware"
	"tournament-arena-system/models"
	"tournament-arena-system/services"
	"tournament-arena-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// 🔐 GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Tournament{},
		&models.Enrollment{},
		&models.Team{},
		&models.TeamMember{},
		&models.ReferralCode{},
		&models.ReferralUsage{},
		&models.ReferralEarning{},
		&models.Notification{},
		&models.PlayerProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	notificationService := services.NewNotificationService(db)
	referralService := services.NewReferralService(db)
	enrollmentService := services.NewEnrollmentService(db, referralService, notificationService)
	teamService := services.NewTeamService(db, notificationService)
	tournamentService := services.NewTournamentService(db)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("ARENA_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("ARENA_SERVICE_TOKEN environment variable not set")
	}

	profileSyncWorker := workers.NewProfileSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", serviceToken)

	paymentReviewClient := workers.NewPaymentReviewClient(enrollmentService)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollPaymentReviews(ctx, paymentReviewClient, 30*time.Second)

	go func() {
		log.Println("Starting Player Profile Sync Worker...")
		profileSyncWorker.Start(ctx)
	}()

	tournamentService.StartStatusScheduler()

	handlers.SetupTournamentRoutes(app, tournamentService, enrollmentService)
	handlers.SetupTeamRoutes(app, teamService)
	handlers.SetupReferralRoutes(app, referralService, notificationService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Player Profile Sync Worker running")
	log.Println("✅ Payment review polling running (every 30s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
