package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/calicantus/studio-cms-backend/config"
	"github.com/calicantus/studio-cms-backend/database"
	"github.com/calicantus/studio-cms-backend/internal/auditlog"
	"github.com/calicantus/studio-cms-backend/internal/auth"
	"github.com/calicantus/studio-cms-backend/internal/booking"
	"github.com/calicantus/studio-cms-backend/internal/classes"
	"github.com/calicantus/studio-cms-backend/internal/media"
	"github.com/calicantus/studio-cms-backend/internal/page"
	"github.com/calicantus/studio-cms-backend/internal/product"
	"github.com/calicantus/studio-cms-backend/internal/testimonial"
	"github.com/calicantus/studio-cms-backend/routes"
	"github.com/calicantus/studio-cms-backend/utils"
)

// @title Studio CMS Backend API
// @version 1.0
// @description Content management and class booking backend for the studio site.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	// Init Redis
	if err := utils.InitRedis(cfg); err != nil {
		log.Fatalf("❌ Redis init failed: %v", err)
	}

	// Init Kafka (optional, audit pipeline falls back to direct writes)
	utils.InitializeKafka(cfg)

	// Seed roles & super admin
	if err := auth.SeedUserRoles(db); err != nil {
		panic(fmt.Sprintf("❌ Failed to seed roles: %v", err))
	}
	if err := auth.SeedSuperAdminUser(db); err != nil {
		panic(fmt.Sprintf("❌ Failed to seed Super Admin: %v", err))
	}

	// Auto-migrate models
	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(
		&auditlog.AuditLog{},
		&classes.RecurrencePattern{},
		&classes.ClassEvent{},
		&classes.RecurringException{},
		&booking.Booking{},
		&page.Page{},
		&testimonial.Testimonial{},
		&media.MediaItem{},
		&product.Product{},
	); err != nil {
		panic(fmt.Sprintf("❌ DB AutoMigrate failed: %v", err))
	}
	log.Println("✅ Database migrations completed")

	// Some installs run with restricted DDL rights and may miss newer
	// columns. Detect what we actually have and degrade gracefully.
	cols := classes.ColumnSupport{
		Preserved: database.HasColumn(db, "class_events", "is_recurring_preserved"),
	}
	if !cols.Preserved {
		log.Println("⚠️ class_events.is_recurring_preserved missing, preservation flags disabled")
	}

	// Audit consumer drains the Kafka topic into the database.
	if utils.KafkaEnabled() {
		go auditlog.StartKafkaConsumer(context.Background(), cfg, auditlog.NewRepository(db))
	}

	// Shared schedule engine for cron and startup reconciliation.
	bookingSvc := booking.NewService(booking.NewRepository(db), cfg.Location)
	synchronizer := classes.NewSynchronizer(classes.NewRepository(db, cols), bookingSvc, cfg.Location, cfg.GenerationHorizonDays)

	// Reconcile all recurring series on boot so the calendar is complete
	// even after downtime.
	if res, err := synchronizer.SyncAll(context.Background()); err != nil {
		log.Printf("⚠️ Startup schedule sync finished with errors: %v", err)
	} else {
		log.Printf("✅ Startup schedule sync: %d generated, %d deleted, %d preserved",
			res.Generated, res.DeletedUnbooked, res.PreservedBooked)
	}

	// Nightly sync keeps the rolling horizon topped up.
	scheduler := cron.New(cron.WithLocation(cfg.Location))
	if _, err := scheduler.AddFunc("30 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if res, err := synchronizer.SyncAll(ctx); err != nil {
			log.Printf("⚠️ Nightly schedule sync finished with errors: %v", err)
		} else {
			log.Printf("✅ Nightly schedule sync: %d generated, %d deleted, %d preserved",
				res.Generated, res.DeletedUnbooked, res.PreservedBooked)
			utils.BumpCalendarCache()
		}
	}); err != nil {
		panic(fmt.Sprintf("❌ Failed to schedule nightly sync: %v", err))
	}
	scheduler.Start()

	// Create uploads directory
	if err := os.MkdirAll(cfg.UploadDir, os.ModePerm); err != nil {
		panic(fmt.Sprintf("❌ Failed to create upload directory: %v", err))
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:4173", "http://127.0.0.1:4173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Content-Length", "X-Requested-With", "Cache-Control", "Pragma"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", "Cache-Control", "Pragma", "Expires"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Setup(router, cfg, routes.Deps{ClassColumns: cols})

	// Start server
	fmt.Printf("🚀 Server starting on port %s\n", cfg.Port)
	fmt.Printf("📁 Upload directory: %s\n", cfg.UploadDir)
	fmt.Printf("🕒 Studio timezone: %s\n", cfg.Timezone)

	if err := router.Run(":" + cfg.Port); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v", err))
	}
}
