package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chimu/internal/api"
	"chimu/internal/app/service"
	"chimu/internal/app/worker"
	"chimu/internal/common/security"
	"chimu/internal/domain/repository"
	"chimu/internal/platform/cache"
	"chimu/internal/platform/config"
	"chimu/internal/platform/database"
	"chimu/internal/platform/logger"
)

func main() {
	// 1. Load Configuration
	config.Load()

	log, err := logger.New(config.AppConfig.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("configuration loaded", "env", config.AppConfig.AppEnv)

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	log.Info("database connected")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	log.Info("redis connected")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	jamRepo := repository.NewPgJamRepository(database.DB)
	criteriaRepo := repository.NewPgCriteriaRepository(database.DB)
	judgeRepo := repository.NewPgJudgeRepository(database.DB)
	teamRepo := repository.NewPgTeamRepository(database.DB)
	regRepo := repository.NewPgRegistrationRepository(database.DB)
	projectRepo := repository.NewPgProjectRepository(database.DB)
	ratingRepo := repository.NewPgRatingRepository(database.DB)

	// 6. Initialize Services
	leaderboardCache := service.NewLeaderboardCache(cache.RDB, config.AppConfig.LeaderboardCacheTTL)

	authService := service.NewAuthService(userRepo)
	jamService := service.NewJamService(jamRepo, criteriaRepo, judgeRepo, userRepo, database.DB, leaderboardCache, log)
	teamService := service.NewTeamService(teamRepo, database.DB)
	registrationService := service.NewRegistrationService(regRepo, jamRepo, teamRepo, log)
	projectService := service.NewProjectService(projectRepo, jamRepo, teamRepo, regRepo, leaderboardCache, log)
	ratingService := service.NewRatingService(ratingRepo, criteriaRepo, projectRepo, jamRepo, judgeRepo, leaderboardCache, log)
	leaderboardService := service.NewLeaderboardService(jamRepo, projectRepo, ratingRepo, criteriaRepo, judgeRepo, leaderboardCache, log)
	lifecycleService := service.NewLifecycleService(jamRepo, log)

	// 7. Initialize Lifecycle Worker (as a goroutine)
	lifecycleWorker := worker.NewLifecycleWorker(cache.RDB, lifecycleService, config.AppConfig.LifecycleSweepInterval, log)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go lifecycleWorker.Start(workerCtx)
	log.Info("lifecycle worker started", "interval", config.AppConfig.LifecycleSweepInterval.String())

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(
		authService,
		jamService,
		teamService,
		registrationService,
		projectService,
		ratingService,
		leaderboardService,
		lifecycleService,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", "port", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to listen", "port", config.AppConfig.APIPort, "error", err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info("shutting down server")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown failed", "error", err)
	}

	log.Info("server and worker stopped gracefully")
}
