package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/minato-edu/tutoring-api/api/swagger"
	"github.com/minato-edu/tutoring-api/internal/handler"
	"github.com/minato-edu/tutoring-api/internal/middleware"
	"github.com/minato-edu/tutoring-api/internal/repository"
	"github.com/minato-edu/tutoring-api/internal/service"
	"github.com/minato-edu/tutoring-api/pkg/cache"
	"github.com/minato-edu/tutoring-api/pkg/config"
	"github.com/minato-edu/tutoring-api/pkg/database"
	"github.com/minato-edu/tutoring-api/pkg/logger"
	corsmiddleware "github.com/minato-edu/tutoring-api/pkg/middleware/cors"
	reqidmiddleware "github.com/minato-edu/tutoring-api/pkg/middleware/requestid"
)

// @title Minato Tutoring Admin API
// @version 1.0.0
// @description Enrollment wizard, schedule conflict checking and invoicing for the tutoring back office
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, lookup caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Lookup.CacheTTL, logr, cfg.Lookup.CacheEnabled && redisClient != nil)
	lookupSvc := service.NewLookupService(studentRepo, teacherRepo, courseRepo, cacheSvc, cfg.Lookup.MaxResults, logr)
	conflictSvc := service.NewConflictService(bookingRepo, cfg.Enrollment.ConflictCheckTimeout, metricsSvc, logr)
	wizardSvc := service.NewWizardService(studentRepo, courseRepo, teacherRepo, packageRepo, bookingRepo, conflictSvc, db, validate, metricsSvc, logr, service.WizardConfig{
		DraftTTL:      cfg.Enrollment.DraftTTL,
		HorizonMonths: cfg.Enrollment.HorizonMonths,
		BusinessOpen:  cfg.Enrollment.BusinessOpen,
		BusinessClose: cfg.Enrollment.BusinessClose,
		SubmitTimeout: cfg.Enrollment.SubmitTimeout,
	})
	invoiceSvc := service.NewInvoiceService(discountRepo, invoiceRepo, studentRepo, validate, metricsSvc, logr, cfg.Enrollment.DraftTTL)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	lookupHandler := handler.NewLookupHandler(lookupSvc)
	wizardHandler := handler.NewWizardHandler(wizardSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/lookup/students", lookupHandler.Students)
	protected.GET("/lookup/teachers", lookupHandler.Teachers)
	protected.GET("/lookup/courses", lookupHandler.Courses)

	protected.POST("/enrollment/drafts", wizardHandler.Start)
	protected.GET("/enrollment/drafts/:id", wizardHandler.Get)
	protected.PUT("/enrollment/drafts/:id/students", wizardHandler.SubmitStudents)
	protected.PUT("/enrollment/drafts/:id/schedule", wizardHandler.SubmitSchedule)
	protected.PUT("/enrollment/drafts/:id/teacher", wizardHandler.SubmitTeacher)
	protected.POST("/enrollment/drafts/:id/back", wizardHandler.Back)
	protected.GET("/enrollment/drafts/:id/preview", wizardHandler.Preview)
	protected.GET("/enrollment/drafts/:id/schedule.csv", wizardHandler.ExportCSV)
	protected.POST("/enrollment/drafts/:id/confirm", wizardHandler.Confirm)
	protected.DELETE("/enrollment/drafts/:id", wizardHandler.Cancel)

	protected.GET("/discounts", invoiceHandler.ListDiscounts)
	protected.POST("/invoices/drafts", invoiceHandler.Open)
	protected.GET("/invoices/drafts/:id", invoiceHandler.Get)
	protected.PUT("/invoices/drafts/:id/discounts/:discountId", invoiceHandler.AddDiscount)
	protected.DELETE("/invoices/drafts/:id/discounts/:discountId", invoiceHandler.RemoveDiscount)
	protected.POST("/invoices/drafts/:id/submit", invoiceHandler.Submit)
	protected.DELETE("/invoices/drafts/:id", invoiceHandler.Cancel)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
