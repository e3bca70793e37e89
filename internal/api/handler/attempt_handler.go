package handler

import (
	"net/http"
	"strconv"

	"quizmaster/internal/api/middleware"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common"

	"github.com/go-chi/chi/v5"
)

type AttemptHandler struct {
	attemptService *service.AttemptService
}

func NewAttemptHandler(as *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: as}
}

// RegisterQuizRoutes mounts the attempt endpoints nested under /quiz. The
// first segment of the attempts route is the student's user id.
func (h *AttemptHandler) RegisterQuizRoutes(r chi.Router) {
	r.Group(func(student chi.Router) {
		student.Use(middleware.RequireRoles(readRoles...))
		student.Post("/{id}/response", h.submitResponses)      // POST /api/quiz/5/response
		student.Get("/{id}/response", h.getResponses)          // GET /api/quiz/5/response?attempt=2
		student.Get("/{id}/{quizID}/attempts", h.listAttempts) // GET /api/quiz/{user_id}/{quiz_id}/attempts
	})
}

// RegisterRoutes mounts /attempt.
func (h *AttemptHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRoles(writeRoles...)).Delete("/{id}", h.deleteAttempt)
}

func (h *AttemptHandler) submitResponses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.SubmitAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	attempt, err := h.attemptService.RecordAttempt(r.Context(), quizID, user.ID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, attempt)
}

func (h *AttemptHandler) getResponses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	number := 0
	if raw := r.URL.Query().Get("attempt"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid attempt")
			return
		}
		number = n
	}
	attempt, err := h.attemptService.GetAttemptResponses(r.Context(), quizID, user.ID, number)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempt)
}

func (h *AttemptHandler) listAttempts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	studentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quizID, ok := pathID(w, r, "quizID")
	if !ok {
		return
	}
	attempts, err := h.attemptService.ListAttempts(r.Context(), user, studentID, quizID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, attempts)
}

func (h *AttemptHandler) deleteAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.attemptService.DeleteAttempt(r.Context(), id); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Attempt deleted successfully", 0)
}
