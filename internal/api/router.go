package api

import (
	"net/http"
	"time"

	"quizmaster/internal/api/handler"
	"quizmaster/internal/api/middleware"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common/security"
	"quizmaster/internal/platform/config"
	"quizmaster/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Services groups what the router dispatches to.
type Services struct {
	Auth    *service.AuthService
	Subject *service.SubjectService
	Chapter *service.ChapterService
	Quiz    *service.QuizService
	Attempt *service.AttemptService
}

func NewRouter(svc Services, m *metrics.Metrics, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(m.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", config.AppConfig.AuthTokenHeader},
		MaxAge:         300,
	}))

	// Token from the custom header or "Authorization: Bearer T".
	r.Use(security.Verifier())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", m.Handler())

	authHandler := handler.NewAuthHandler(svc.Auth)
	subjectHandler := handler.NewSubjectHandler(svc.Subject)
	chapterHandler := handler.NewChapterHandler(svc.Chapter)
	quizHandler := handler.NewQuizHandler(svc.Quiz)
	attemptHandler := handler.NewAttemptHandler(svc.Attempt)

	r.Route("/api", func(api chi.Router) {
		api.Group(authHandler.RegisterPublicRoutes)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.Authenticator(svc.Auth))

			authHandler.RegisterRoutes(protected)
			protected.Route("/subject", subjectHandler.RegisterRoutes)
			protected.Route("/chapter", chapterHandler.RegisterRoutes)
			protected.Route("/quiz", func(quiz chi.Router) {
				quizHandler.RegisterRoutes(quiz)
				attemptHandler.RegisterQuizRoutes(quiz)
			})
			protected.Route("/question", quizHandler.RegisterQuestionRoutes)
			protected.Route("/attempt", attemptHandler.RegisterRoutes)
		})
	})

	return r
}
