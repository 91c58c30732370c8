package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "knowledge-assistant/internal/app"
	"knowledge-assistant/internal/bootstrap"
	"knowledge-assistant/internal/repository"
	"knowledge-assistant/internal/transport/http/handler"
	"knowledge-assistant/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(app.DocumentService)
	queryHandler := handler.NewQueryHandler(app.QueryService)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/:id", documentHandler.Get)

	knowledgeGroup := v1.Group("/knowledge")
	knowledgeGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	knowledgeGroup.POST("/query", queryHandler.Ask)

	return router
}
