package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pressroom-cms/config"
	"pressroom-cms/handlers"
	"pressroom-cms/helper"
	"pressroom-cms/logger"
	"pressroom-cms/middleware"
	"pressroom-cms/repositories"
	"pressroom-cms/search"
	"pressroom-cms/services"
	"pressroom-cms/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	zlog := logger.New()
	defer zlog.Sync()

	// Initialize database
	db := config.InitDB()

	storageCfg := config.LoadStorage()
	gateway, err := storage.NewMinioGateway(storageCfg.Endpoint, storageCfg.AccessKey, storageCfg.SecretKey, storageCfg.UseSSL)
	if err != nil {
		zlog.Fatal("object storage unavailable", zap.Error(err))
	}

	searchCfg := config.LoadSearch()
	indexer := search.NewAlgoliaIndexer(searchCfg.AppID, searchCfg.APIKey, searchCfg.IndexName)

	// Redis is optional; without an address the author cache falls through
	// to the database.
	var rdb services.RedisClient
	redisCfg := config.LoadRedis()
	if redisCfg.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	draftRepo := repositories.NewDraftRepository(db)
	publishedRepo := repositories.NewPublishedRepository(db)
	authorRepo := repositories.NewAuthorRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	authorCache := services.NewAuthorCache(rdb, authorRepo, zlog)
	authorService := services.NewAuthorService(authorRepo, authorCache)
	rewriter := services.NewAssetRewriter(storageCfg.DraftBucket, storageCfg.PublishedBucket, storageCfg.Domain)
	thumbs := services.NewThumbnailMigrator(gateway, zlog)
	lifecycleService := services.NewLifecycleService(
		db, draftRepo, publishedRepo, rewriter, thumbs,
		gateway, indexer, authorCache, storageCfg, zlog,
	)

	// Initialize handlers
	httpHelper := helper.NewHTTPHelper()
	authHandler := handlers.NewAuthHandler(authService, httpHelper)
	articleHandler := handlers.NewArticleHandler(lifecycleService, httpHelper)
	authorHandler := handlers.NewAuthorHandler(authorService)
	uploadHandler := handlers.NewUploadHandler(lifecycleService, gateway, rewriter, storageCfg.DraftBucket)

	// Setup router
	router := gin.Default()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Public read side
		public := api.Group("/articles")
		{
			public.GET("", articleHandler.GetPublishedList)
			public.GET("/:id", articleHandler.GetPublished)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/auth/profile", authHandler.GetProfile)

			drafts := protected.Group("/drafts")
			{
				drafts.POST("", articleHandler.CreateDraft)
				drafts.GET("", articleHandler.GetDrafts)
				drafts.GET("/:id", articleHandler.GetDraft)
				drafts.PUT("/:id", articleHandler.SaveDraft)
				drafts.DELETE("/:id", articleHandler.DeleteDraft)
				drafts.POST("/:id/assets", uploadHandler.UploadAsset)
				drafts.POST("/:id/publish", articleHandler.Publish)
				drafts.DELETE("/:id/thumbnail", articleHandler.DeleteCustomThumbnail)
				drafts.DELETE("/:id/everywhere", middleware.RequireRole("editor", "admin"), articleHandler.DeleteEverywhere)
			}

			articles := protected.Group("/articles")
			{
				articles.POST("/:id/unpublish", middleware.RequireRole("editor", "admin"), articleHandler.Unpublish)
			}

			authors := protected.Group("/authors")
			{
				authors.POST("", middleware.RequireRole("editor", "admin"), authorHandler.CreateAuthor)
				authors.GET("", authorHandler.GetAuthors)
				authors.GET("/:id", authorHandler.GetAuthor)
				authors.PUT("/:id", middleware.RequireRole("editor", "admin"), authorHandler.UpdateAuthor)
				authors.DELETE("/:id", middleware.RequireRole("admin"), authorHandler.DeleteAuthor)
			}
		}
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
