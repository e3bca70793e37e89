package handler

import (
	"net/http"

	"quizmaster/internal/api/middleware"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common"

	"github.com/go-chi/chi/v5"
)

type ChapterHandler struct {
	chapterService *service.ChapterService
}

func NewChapterHandler(cs *service.ChapterService) *ChapterHandler {
	return &ChapterHandler{chapterService: cs}
}

func (h *ChapterHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(read chi.Router) {
		read.Use(middleware.RequireRoles(readRoles...))
		read.Get("/", h.listChapters)
		read.Get("/{id}", h.getChapter)
		read.Get("/{id}/quiz", h.listQuizzes)
	})
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(writeRoles...))
		admin.Post("/", h.createChapter)
		admin.Delete("/{id}", h.deleteChapter)
	})
}

func (h *ChapterHandler) listChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.chapterService.ListChapters(r.Context(), middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, chapters)
}

func (h *ChapterHandler) getChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	chapter, err := h.chapterService.GetChapter(r.Context(), id, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, chapter)
}

func (h *ChapterHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quizzes, err := h.chapterService.ListChapterQuizzes(r.Context(), id, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, quizzes)
}

func (h *ChapterHandler) createChapter(w http.ResponseWriter, r *http.Request) {
	var req service.CreateChapterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	chapter, err := h.chapterService.CreateChapter(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusCreated, "Chapter created successfully", chapter.ID)
}

func (h *ChapterHandler) deleteChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.chapterService.DeleteChapter(r.Context(), id); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Chapter deleted successfully", 0)
}
