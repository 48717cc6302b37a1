package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"

	"converse/internal/cache"
	"converse/internal/config"
	"converse/internal/database"
	"converse/internal/handler"
	"converse/internal/redis"
	"converse/internal/repository"
	"converse/internal/service"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// 3. Optional Redis for the top-feed rank cache
	var rankCache cache.RankCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable, top feed will rank in SQL: %v", err)
		} else if err := redisClient.Ping(context.Background()); err != nil {
			log.Printf("Redis unreachable, top feed will rank in SQL: %v", err)
			redisClient.Close()
		} else {
			defer redisClient.Close()
			rankCache = cache.NewRankCache(redisClient.Client)
		}
	}

	// 4. Repositories
	authRepo := repository.NewAuthRepository(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewTagRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// 5. Services
	authService := service.NewAuthService(db, authRepo, userRepo, profileRepo, cfg.JWTSecret, cfg.TokenMaxAge)
	profileService := service.NewProfileService(authRepo, userRepo, profileRepo, followRepo)
	followService := service.NewFollowService(authRepo, userRepo, followRepo, cfg.ItemsPerPage)
	postService := service.NewPostService(postRepo, followRepo, authRepo, rankCache, cfg.ItemsPerPage)
	feedService := service.NewFeedService(postRepo, followRepo, rankCache, cfg.ItemsPerPage)
	tagService := service.NewTagService(tagRepo)
	messageService := service.NewMessageService(authRepo, userRepo, messageRepo, cfg.ItemsPerPage)

	// 6. Router
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService),
		ProfileHandler: handler.NewProfileHandler(profileService),
		FollowHandler:  handler.NewFollowHandler(followService),
		PostHandler:    handler.NewPostHandler(postService, feedService),
		TagHandler:     handler.NewTagHandler(tagService),
		MessageHandler: handler.NewMessageHandler(messageService),
		AuthService:    authService,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
