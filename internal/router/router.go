package router

import (
	"time"

	"jmsmp/config"
	"jmsmp/internal/bot"
	"jmsmp/internal/domain"
	"jmsmp/internal/handler"
	"jmsmp/internal/middleware"
	"jmsmp/internal/repository"
	"jmsmp/internal/service"
	"jmsmp/internal/ws"
	"jmsmp/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers, and returns the engine
// together with the Telegram bot (nil when no token is configured).
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) (*gin.Engine, *bot.Bot, error) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	hub := ws.NewHub()

	// Services
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, hub)
	authSvc := service.NewAuthService(cfg, userRepo, notifSvc)
	appSvc := service.NewApplicationService(appRepo, userRepo, settingRepo, notifSvc, hub)

	tgBot, err := bot.New(&cfg.Telegram, appRepo, userRepo, adminRepo, appSvc)
	if err != nil {
		return nil, nil, err
	}
	if tgBot != nil {
		appSvc.SetReviewNotifier(tgBot)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo, cloud)
	appHandler := handler.NewApplicationHandler(appSvc)
	galleryHandler := handler.NewGalleryHandler(photoRepo, userRepo, cloud)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	adminHandler := handler.NewAdminHandler(cfg, userRepo, appRepo, adminRepo, settingRepo, notifSvc, appSvc, hub)
	serverHandler := handler.NewServerHandler(cfg, settingRepo)

	authMw := middleware.AuthRequired(&cfg.JWT, userRepo)

	r.GET("/health", serverHandler.Health)

	api := r.Group("/api")
	{
		api.GET("/server/info", serverHandler.Info)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/profile", authMw, authHandler.Profile)
			authGroup.PUT("/profile", authMw, authHandler.UpdateProfile)
			authGroup.POST("/avatar", authMw, authHandler.UploadAvatar)
			authGroup.POST("/banner", authMw, authHandler.UploadBanner)
		}

		apps := api.Group("/applications")
		apps.Use(authMw)
		{
			apps.POST("/server", appHandler.SubmitServer)
			apps.POST("/studio", middleware.RequireApproved(), appHandler.SubmitStudio)
			apps.GET("/status", appHandler.Status)
		}

		gallery := api.Group("/gallery")
		{
			gallery.GET("/public", galleryHandler.Public)
			gallery.GET("/my", authMw, middleware.RequireApproved(), galleryHandler.My)
			gallery.POST("/upload", authMw, middleware.RequireApproved(), galleryHandler.Upload)
			gallery.POST("/albums", authMw, middleware.RequireApproved(), galleryHandler.CreateAlbum)
			gallery.POST("/:id/like", authMw, galleryHandler.Like)
			gallery.POST("/:id/view", galleryHandler.View)
			gallery.DELETE("/:id", authMw, galleryHandler.Delete)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
			notifications.DELETE("", notificationHandler.ClearAll)
		}

		admin := api.Group("/admin")
		admin.Use(authMw)
		{
			admin.GET("/applications", middleware.RequireRole(domain.OpListApplications), appHandler.AdminList)
			admin.PUT("/applications/:id", middleware.RequireRole(domain.OpReviewApplications), appHandler.AdminDecide)
			admin.POST("/reconcile", middleware.RequireRole(domain.OpReviewApplications), adminHandler.Reconcile)
			admin.GET("/stats", middleware.RequireRole(domain.OpViewStats), adminHandler.Stats)
			admin.GET("/users", middleware.RequireRole(domain.OpListUsers), adminHandler.ListUsers)
			admin.PUT("/users/:username/role", middleware.RequireRole(domain.OpChangeRole), adminHandler.ChangeRole)
			admin.POST("/studio-recruitment", middleware.RequireRole(domain.OpStudioRecruitment), adminHandler.StudioRecruitment)
			admin.POST("/broadcast", middleware.RequireRole(domain.OpBroadcast), adminHandler.Broadcast)
			admin.POST("/cleanup", middleware.RequireRole(domain.OpCleanup), adminHandler.Cleanup)
		}
	}

	r.GET("/ws", ws.Upgrade(&cfg.JWT, hub))

	return r, tgBot, nil
}
