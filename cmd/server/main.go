package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizmaster/internal/api"
	"quizmaster/internal/app/grading"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common/security"
	"quizmaster/internal/domain/repository"
	"quizmaster/internal/platform/config"
	"quizmaster/internal/platform/database"
	"quizmaster/internal/platform/metrics"
	"quizmaster/internal/platform/seed"
	"quizmaster/internal/platform/throttle"
)

func main() {
	ctx := context.Background()

	// 1. Load Configuration
	config.Load()
	log.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	log.Println("JWT initialized.")

	// 3. Initialize Database (schema is created on open)
	db, err := database.Open(ctx, config.AppConfig.DBDriver, config.AppConfig.DBConnStr)
	if err != nil {
		log.Fatalf("Could not open %s database: %v", config.AppConfig.DBDriver, err)
	}
	defer db.Close()
	log.Printf("Database connected (%s).", db.Driver)

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	// 5. Seed roles and bootstrap accounts
	seedData, err := seed.Load(config.AppConfig.SeedFile)
	if err != nil {
		log.Fatalf("Could not load seed: %v", err)
	}
	if err := seed.Apply(ctx, db, userRepo, seedData); err != nil {
		log.Fatalf("Could not apply seed: %v", err)
	}

	// 6. Login throttling (optional)
	limiter := throttle.NoopLimiter()
	if config.AppConfig.RedisAddr != "" {
		rdb, err := throttle.ConnectRedis(ctx, config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisDB)
		if err != nil {
			log.Printf("WARN: login throttling disabled: %v", err)
		} else {
			defer rdb.Close()
			limiter = throttle.NewRedisLimiter(rdb, config.AppConfig.LoginMaxFailures, config.AppConfig.LoginLockout)
			log.Println("Login throttling enabled.")
		}
	}

	// 7. Initialize Services
	m := metrics.New()
	services := api.Services{
		Auth:    service.NewAuthService(userRepo, limiter, db),
		Subject: service.NewSubjectService(subjectRepo, chapterRepo, quizRepo, db),
		Chapter: service.NewChapterService(chapterRepo, subjectRepo, quizRepo, db),
		Quiz:    service.NewQuizService(quizRepo, chapterRepo, db),
		Attempt: service.NewAttemptService(attemptRepo, quizRepo, grading.NewDefaultGrader(), m, db),
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(services, m, config.AppConfig.CORSOrigins)

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
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully.")
}
