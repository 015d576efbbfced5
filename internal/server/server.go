package server

import (
	"context"
	"log"
	"strings"
	"time"

	"liftly.app/liftly/internal/config"
	"liftly.app/liftly/internal/jobs"
	"liftly.app/liftly/internal/middleware"
	"liftly.app/liftly/pkg/push"
	"liftly.app/liftly/pkg/storage"

	accountService "liftly.app/liftly/internal/modules/account/service"
	coachProvider "liftly.app/liftly/internal/modules/coach/provider"
	coachService "liftly.app/liftly/internal/modules/coach/service"
	feedHttp "liftly.app/liftly/internal/modules/feed/delivery/http"
	feedRepo "liftly.app/liftly/internal/modules/feed/repository"
	feedService "liftly.app/liftly/internal/modules/feed/service"
	likeHttp "liftly.app/liftly/internal/modules/like/delivery/http"
	likeRepo "liftly.app/liftly/internal/modules/like/repository"
	likeService "liftly.app/liftly/internal/modules/like/service"
	mediaHttp "liftly.app/liftly/internal/modules/media/delivery/http"
	mediaRepo "liftly.app/liftly/internal/modules/media/repository"
	mediaService "liftly.app/liftly/internal/modules/media/service"
	mentionService "liftly.app/liftly/internal/modules/mention/service"
	notifHttp "liftly.app/liftly/internal/modules/notification/delivery/http"
	notifRepo "liftly.app/liftly/internal/modules/notification/repository"
	notifService "liftly.app/liftly/internal/modules/notification/service"
	postHttp "liftly.app/liftly/internal/modules/post/delivery/http"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
	postService "liftly.app/liftly/internal/modules/post/service"
	searchHttp "liftly.app/liftly/internal/modules/search/delivery/http"
	searchService "liftly.app/liftly/internal/modules/search/service"
	trackerRepo "liftly.app/liftly/internal/modules/tracker/repository"
	userRepo "liftly.app/liftly/internal/modules/user/repository"

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
	scheduler   *jobs.Scheduler
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	mediaStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	var searchSvc searchService.SearchService
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchSvc = searchService.NewSearchService(meiliClient)
	} else {
		log.Println("MEILISEARCH_HOST is not set, search indexing disabled")
	}

	gateSvc := accountService.NewGateService(users)
	mentionSvc := mentionService.NewMentionService(users)

	notifications := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notifications, redisClient, push.NewLogDeliverer())
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient)

	media := mediaRepo.NewMediaRepository(db)
	mediaSvc := mediaService.NewMediaService(media, mediaStorage)
	mediaHandler := mediaHttp.NewMediaHandler(mediaSvc)

	posts := postRepo.NewPostRepository(db)
	postSvc := postService.NewPostService(posts, users, media, gateSvc, mentionSvc, notificationSvc, searchSvc, redisClient)
	postHandler := postHttp.NewPostHandler(postSvc)

	likes := likeRepo.NewLikeRepository(db)
	likeSvc := likeService.NewLikeService(likes, posts, users, gateSvc, notificationSvc)
	likeHandler := likeHttp.NewLikeHandler(likeSvc)

	feeds := feedRepo.NewFeedRepository(db)
	feedSvc := feedService.NewFeedService(feeds, posts, users, likes)
	feedHandler := feedHttp.NewFeedHandler(feedSvc)

	searchHandler := searchHttp.NewSearchHandler(searchSvc, users)

	// Coach pipeline. Without an API key the bot simply never answers.
	trackers := trackerRepo.NewTrackerRepository(db)
	if cfg.GeminiAPIKey != "" {
		completer, err := coachProvider.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.CoachModel)
		if err != nil {
			log.Printf("failed to initialize coach provider: %v", err)
		} else {
			contextBuilder := coachService.NewContextBuilder(trackers)
			orchestrator := coachService.NewOrchestrator(posts, users, contextBuilder, completer, postSvc, cfg.CoachTimeout)
			postSvc.SetSummoner(orchestrator)
		}
	} else {
		log.Println("GEMINI_API_KEY is not set, coach replies disabled")
	}

	scheduler := jobs.NewScheduler()
	scheduler.Register(jobs.NewCounterAuditJob(posts, likes, ""))
	scheduler.Register(jobs.NewMediaCleanupJob(mediaSvc, ""))
	scheduler.Start()

	router := gin.New()
	setupCORS(router, cfg)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")

	// Reads work anonymously; a token personalizes them.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/feed", feedHandler.GetFeed)
		public.GET("/posts/:post_id/thread", postHandler.GetThread)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/posts", postHandler.CreatePost)
		protected.POST("/posts/:post_id/repost", postHandler.Repost)
		protected.DELETE("/posts/:post_id", postHandler.DeletePost)
		protected.POST("/posts/:post_id/like", likeHandler.ToggleLike)
		protected.POST("/posts/:post_id/bookmark", likeHandler.ToggleBookmark)
		protected.GET("/bookmarks", feedHandler.GetBookmarks)

		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.POST("/upload", mediaHandler.UploadMedia)
		protected.GET("/search/token", searchHandler.GetSearchToken)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) Stop() {
	s.scheduler.Stop()
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := []string{"http://localhost:3000"}
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
