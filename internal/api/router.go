package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nicemins/connecto-backend/internal/api/handlers"
	"github.com/nicemins/connecto-backend/internal/api/middleware"
	"github.com/nicemins/connecto-backend/internal/config"
	"github.com/nicemins/connecto-backend/internal/repository"
	"github.com/nicemins/connecto-backend/internal/service"
	"github.com/nicemins/connecto-backend/internal/websocket"
	"github.com/nicemins/connecto-backend/pkg/database"
	"github.com/nicemins/connecto-backend/pkg/distributed"
	"github.com/nicemins/connecto-backend/pkg/ratelimit"
)

// SetupRouter API 라우터 설정
// 반환된 스케줄러는 서버 종료 시 Stop을 호출해야 한다.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client) (*gin.Engine, *service.CallSessionScheduler) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.GeneralAPIRateLimit())

	// Repository 초기화
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewCallSessionRepository(db)

	// 매칭 대기열 (Redis sorted set + 분산 잠금)
	matchQueue := distributed.NewMatchQueue(redisClient, distributed.MatchQueueConfig{
		QueueTimeout: cfg.QueueTimeout,
		LockWait:     cfg.LockWait,
		LockLease:    cfg.LockLease,
	})

	// Service 초기화
	userService := service.NewUserService(userRepo)
	matchService := service.NewMatchService(userRepo, sessionRepo, profileRepo, matchQueue)
	callService := service.NewCallService(sessionRepo)

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub()
	socketService := service.NewMatchSocketService(matchService, matchQueue, wsHub, cfg.MatchRetryInterval)
	wsHub.SetHandler(socketService)
	go wsHub.Run()

	// 세션 만료 / 대기열 정리 스케줄러 시작
	scheduler := service.NewCallSessionScheduler(
		sessionRepo,
		matchQueue,
		cfg.MaxCallDuration,
		cfg.CallExpiryInterval,
		cfg.QueueCleanupInterval,
	)
	scheduler.Start()

	// Rate Limiter (매칭 시작은 인스턴스 간 공유되는 Redis 기반)
	redisLimiter := ratelimit.NewRedisRateLimiter(redisClient, ratelimit.RedisRateLimiterConfig{})

	// Handler 초기화
	authHandler := handlers.NewAuthHandler(userService, cfg)
	matchHandler := handlers.NewMatchHandler(matchService)
	callHandler := handlers.NewCallHandler(callService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, cfg)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint (핸드셰이크에서 자체 인증)
		v1.GET("/ws", wsHandler.HandleWebSocket)

		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.AuthRateLimit(), authHandler.Register)
			auth.POST("/login", middleware.AuthRateLimit(), authHandler.Login)
		}

		// Match routes
		match := v1.Group("/match")
		match.Use(middleware.Auth(cfg))
		{
			match.POST("/start", middleware.RedisMatchStartRateLimit(redisLimiter), matchHandler.Start)
			match.POST("/cancel", matchHandler.Cancel)
			match.GET("/status", matchHandler.Status)
			match.GET("/result/:sessionId", matchHandler.Result)
		}

		// Call routes
		call := v1.Group("/call")
		call.Use(middleware.Auth(cfg))
		{
			call.POST("/end", callHandler.End)
			call.POST("/again", callHandler.Again)
		}
	}

	return router, scheduler
}
