package handler

import (
	"net/http"
	"strconv"

	"quizmaster/internal/api/middleware"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common"

	"github.com/go-chi/chi/v5"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(qs *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: qs}
}

func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(read chi.Router) {
		read.Use(middleware.RequireRoles(readRoles...))
		read.Get("/", h.listQuizzes)
		read.Get("/{id}", h.getQuiz)
	})
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(writeRoles...))
		admin.Post("/", h.createQuiz)
		admin.Delete("/{id}", h.deleteQuiz)
	})
}

// RegisterQuestionRoutes mounts /question.
func (h *QuizHandler) RegisterQuestionRoutes(r chi.Router) {
	r.With(middleware.RequireRoles(readRoles...)).Get("/", h.listQuestions) // GET /api/question?quiz_id=4
	r.With(middleware.RequireRoles(writeRoles...)).Delete("/{id}", h.deleteQuestion)
}

func (h *QuizHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizService.ListQuizzes(r.Context(), middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quiz, err := h.quizService.GetQuiz(r.Context(), id, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req service.CreateQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	quiz, err := h.quizService.CreateQuiz(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusCreated, "Quiz created successfully", quiz.ID)
}

func (h *QuizHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.quizService.DeleteQuiz(r.Context(), id); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Quiz deleted successfully", 0)
}

func (h *QuizHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	var quizID int64
	if raw := r.URL.Query().Get("quiz_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid quiz_id")
			return
		}
		quizID = v
	}
	questions, err := h.quizService.ListQuestions(r.Context(), quizID, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *QuizHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.quizService.DeleteQuestion(r.Context(), id); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Question deleted successfully", 0)
}
