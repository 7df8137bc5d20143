package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/brainbolt-api/internal/config"
	"github.com/yourusername/brainbolt-api/internal/handler"
	"github.com/yourusername/brainbolt-api/internal/middleware"
	pgRepo "github.com/yourusername/brainbolt-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/brainbolt-api/internal/repository/redis"
	"github.com/yourusername/brainbolt-api/internal/service"
	"github.com/yourusername/brainbolt-api/internal/service/quizengine"
	"github.com/yourusername/brainbolt-api/pkg/auth"
	"github.com/yourusername/brainbolt-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), database.PoolSettings{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeMin) * time.Minute,
	})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	stateRepo := pgRepo.NewUserStateRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	sessionRepo := pgRepo.NewSessionRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)
	leaderboardRepo := pgRepo.NewLeaderboardRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Конфигурация адаптивного движка: дефолты + переопределения из файла/env
	quizConfig := quizengine.DefaultConfig()
	if cfg.Quiz.RecentQuestionWindow > 0 {
		quizConfig.RecentQuestionWindow = cfg.Quiz.RecentQuestionWindow
	}
	if cfg.Quiz.CandidatePoolSize > 0 {
		quizConfig.CandidatePoolSize = cfg.Quiz.CandidatePoolSize
	}
	if cfg.Quiz.InactivityThresholdMin > 0 {
		quizConfig.InactivityThreshold = time.Duration(cfg.Quiz.InactivityThresholdMin) * time.Minute
	}
	if cfg.Quiz.IdempotencyTTLSec > 0 {
		quizConfig.IdempotencyTTL = time.Duration(cfg.Quiz.IdempotencyTTLSec) * time.Second
	}
	if cfg.Quiz.UserStateTTLSec > 0 {
		quizConfig.UserStateTTL = time.Duration(cfg.Quiz.UserStateTTLSec) * time.Second
	}
	if cfg.Quiz.LeaderboardRebuildSize > 0 {
		quizConfig.LeaderboardRebuildSize = cfg.Quiz.LeaderboardRebuildSize
	}

	// Инициализируем сервисы
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	authService := service.NewAuthService(db, userRepo, stateRepo, leaderboardRepo, jwtService)
	quizService := service.NewQuizService(db, stateRepo, questionRepo, sessionRepo, answerRepo, leaderboardRepo, cacheRepo, quizConfig)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, cacheRepo, quizConfig)

	// Восстанавливаем кеш лидербордов из БД на старте (best-effort)
	go func() {
		if err := leaderboardService.RebuildAll(); err != nil {
			log.Printf("Стартовое восстановление лидербордов не удалось: %v", err)
		}
	}()

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// За обратным прокси доверяем только локальным адресам
	if gin.Mode() == gin.ReleaseMode {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Register)
			authGroup.POST("/login", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Login)
			authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		}

		quizGroup := api.Group("/quiz")
		quizGroup.Use(authMiddleware.RequireAuth(), rateLimiter.LimitByUser(middleware.GameplayRateLimitConfig()))
		{
			quizGroup.GET("/next", quizHandler.NextQuestion)
			quizGroup.POST("/answer", quizHandler.SubmitAnswer)
			quizGroup.GET("/stats", quizHandler.Stats)
		}

		leaderboardGroup := api.Group("/leaderboard")
		{
			leaderboardGroup.GET("", leaderboardHandler.GetLeaderboard)
			leaderboardGroup.GET("/me", authMiddleware.RequireAuth(), leaderboardHandler.GetMyRank)
		}

		adminGroup := api.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			adminGroup.POST("/questions", quizHandler.CreateQuestions)
			adminGroup.POST("/leaderboard/rebuild", leaderboardHandler.Rebuild)
			adminGroup.GET("/leaderboard/export", leaderboardHandler.Export)
		}
	}

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Сервер запущен на порту %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Ошибка запуска сервера: %v", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Получен сигнал завершения, останавливаем сервер...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Ошибка закрытия Redis клиента: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Ошибка закрытия подключения к БД: %v", err)
		}
	}

	log.Println("Сервер остановлен")
}
