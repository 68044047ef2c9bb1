package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calicantus/studio-cms-backend/config"
	"github.com/calicantus/studio-cms-backend/database"
	"github.com/calicantus/studio-cms-backend/internal/auditlog"
	"github.com/calicantus/studio-cms-backend/internal/auth"
	"github.com/calicantus/studio-cms-backend/internal/booking"
	"github.com/calicantus/studio-cms-backend/internal/classes"
	"github.com/calicantus/studio-cms-backend/internal/media"
	"github.com/calicantus/studio-cms-backend/internal/page"
	"github.com/calicantus/studio-cms-backend/internal/product"
	"github.com/calicantus/studio-cms-backend/internal/reports"
	"github.com/calicantus/studio-cms-backend/internal/testimonial"
	"github.com/calicantus/studio-cms-backend/middleware"

	_ "github.com/calicantus/studio-cms-backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps carries the shared pieces main.go builds before routing.
type Deps struct {
	ClassColumns classes.ColumnSupport
}

func Setup(r *gin.Engine, cfg *config.Config, deps Deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded media is served straight off disk.
	r.Static("/uploads", cfg.UploadDir)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter())
	api.Use(middleware.AuditMiddleware())

	// ========== Audit Log ==========
	auditRepo := auditlog.NewRepository(database.DB)
	auditSvc := auditlog.NewService(auditRepo)
	auditHandler := auditlog.NewHandler(auditSvc)

	// Every mutating API call leaves an audit trail entry.
	api.Use(auditTrail(auditSvc))

	// ========== Auth ==========
	authRepo := auth.NewRepository(database.DB)
	authSvc := auth.NewService(authRepo, cfg)
	authHandler := auth.NewHandler(authSvc)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/public-roles", authHandler.GetPublicRoles)
		authGroup.POST("/logout", middleware.AuthMiddleware(cfg, authSvc), authHandler.Logout)
	}

	// ========== Classes + Bookings ==========
	bookingRepo := booking.NewRepository(database.DB)
	bookingSvc := booking.NewService(bookingRepo, cfg.Location)
	bookingHandler := booking.NewHandler(bookingSvc)

	classRepo := classes.NewRepository(database.DB, deps.ClassColumns)
	synchronizer := classes.NewSynchronizer(classRepo, bookingSvc, cfg.Location, cfg.GenerationHorizonDays)
	classSvc := classes.NewService(classRepo, synchronizer, cfg.Location)
	classHandler := classes.NewHandler(classSvc, cfg.Location)

	// ========== Content ==========
	pageHandler := page.NewHandler(page.NewService(page.NewRepository(database.DB)))
	testimonialHandler := testimonial.NewHandler(testimonial.NewService(testimonial.NewRepository(database.DB)))
	mediaHandler := media.NewHandler(media.NewService(media.NewRepository(database.DB), cfg.UploadDir))
	productHandler := product.NewHandler(product.NewService(product.NewRepository(database.DB)))

	// ========== Reports ==========
	reportsSvc := reports.NewService(reports.NewRepository(database.DB), reports.NewExporter(), cfg.Location)
	reportsHandler := reports.NewHandler(reportsSvc, cfg.Location)

	// ---------- Public site ----------
	api.GET("/calendar", classHandler.GetCalendar)
	api.GET("/pages/:slug", pageHandler.GetPublicPage)
	api.GET("/testimonials", testimonialHandler.ListPublicTestimonials)
	api.GET("/products", productHandler.ListPublicProducts)
	api.GET("/products/:id", productHandler.GetProduct)

	// ---------- Authenticated ----------
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg, authSvc))

	// Members book their own spots.
	protected.POST("/bookings", bookingHandler.BookClass)
	protected.GET("/bookings/my", bookingHandler.MyBookings)
	protected.DELETE("/bookings/:id", bookingHandler.CancelBooking)

	// ---------- Back office (staff read, editors+ write) ----------
	staff := protected.Group("/")
	staff.Use(middleware.RequireStaffAccess())

	staff.GET("/events/:id", classHandler.GetEvent)
	staff.GET("/events/:id/bookings", bookingHandler.EventBookings)
	staff.GET("/patterns/:id", classHandler.GetPattern)
	staff.GET("/patterns/:id/exceptions", classHandler.ListExceptions)

	staff.GET("/admin/pages", pageHandler.ListPages)
	staff.GET("/admin/pages/:id", pageHandler.GetPage)
	staff.GET("/admin/testimonials", testimonialHandler.ListTestimonials)
	staff.GET("/admin/media", mediaHandler.ListMedia)
	staff.GET("/admin/products", productHandler.ListProducts)
	staff.GET("/admin/reports/bookings", reportsHandler.BookingsReport)
	staff.GET("/admin/reports/schedule", reportsHandler.SchedulePDF)

	write := protected.Group("/")
	write.Use(middleware.RequireWriteAccess())

	write.POST("/events", classHandler.CreateEvent)
	write.PUT("/events/:id", classHandler.UpdateEvent)
	write.DELETE("/events/:id", classHandler.DeleteEvent)
	write.PUT("/patterns/:id", classHandler.UpdatePattern)
	write.PATCH("/patterns/:id/status", classHandler.SetPatternStatus)
	write.DELETE("/patterns/:id", classHandler.DeletePattern)
	write.POST("/patterns/:id/sync", classHandler.SyncPattern)
	write.POST("/patterns/sync", classHandler.SyncAllPatterns)
	write.POST("/patterns/:id/exceptions", classHandler.AddException)
	write.DELETE("/patterns/:id/exceptions/:date", classHandler.RemoveException)

	write.POST("/admin/pages", pageHandler.CreatePage)
	write.PUT("/admin/pages/:id", pageHandler.UpdatePage)
	write.PATCH("/admin/pages/:id/publish", pageHandler.PublishPage)
	write.DELETE("/admin/pages/:id", pageHandler.DeletePage)

	write.POST("/admin/testimonials", testimonialHandler.CreateTestimonial)
	write.PUT("/admin/testimonials/:id", testimonialHandler.UpdateTestimonial)
	write.PATCH("/admin/testimonials/:id/approve", testimonialHandler.ApproveTestimonial)
	write.DELETE("/admin/testimonials/:id", testimonialHandler.DeleteTestimonial)

	write.POST("/admin/media", mediaHandler.Upload)
	write.PATCH("/admin/media/:id", mediaHandler.UpdateMedia)
	write.DELETE("/admin/media/:id", mediaHandler.DeleteMedia)

	write.POST("/admin/products", productHandler.CreateProduct)
	write.PUT("/admin/products/:id", productHandler.UpdateProduct)
	write.DELETE("/admin/products/:id", productHandler.DeleteProduct)

	// ========== Audit Logs (admins only) ==========
	auditRoutes := protected.Group("/audit-logs")
	auditRoutes.Use(middleware.RBACMiddleware("superadmin", "studioadmin"))
	{
		auditRoutes.GET("/", auditHandler.GetAuditLogs)
		auditRoutes.GET("/:id", auditHandler.GetAuditLogByID)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

// auditTrail records who changed what. Reads are not logged; the volume
// would drown the interesting entries.
func auditTrail(auditSvc auditlog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		var userID *uint
		if v, ok := c.Get("user_id"); ok {
			if id, ok := v.(uint); ok {
				userID = &id
			}
		}

		status := "success"
		if c.Writer.Status() >= 400 {
			status = "failure"
		}

		details := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"code":   c.Writer.Status(),
		}

		action := c.Request.Method + " " + c.FullPath()
		_ = auditSvc.LogAction(c.Request.Context(), userID, action, details, middleware.GetIPFromContext(c), status)
	}
}
