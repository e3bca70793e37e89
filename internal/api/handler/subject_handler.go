package handler

import (
	"net/http"

	"quizmaster/internal/api/middleware"
	"quizmaster/internal/app/service"
	"quizmaster/internal/common"

	"github.com/go-chi/chi/v5"
)

type SubjectHandler struct {
	subjectService *service.SubjectService
}

func NewSubjectHandler(ss *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjectService: ss}
}

func (h *SubjectHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(read chi.Router) {
		read.Use(middleware.RequireRoles(readRoles...))
		read.Get("/", h.listSubjects)             // GET /api/subject
		read.Get("/{id}", h.getSubject)           // GET /api/subject/3
		read.Get("/{id}/chapter", h.listChapters) // GET /api/subject/3/chapter
	})
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(writeRoles...))
		admin.Post("/", h.createSubject)
		admin.Delete("/{id}", h.deleteSubject)
	})
}

func (h *SubjectHandler) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjectService.ListSubjects(r.Context(), middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subjects)
}

func (h *SubjectHandler) getSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	subject, err := h.subjectService.GetSubject(r.Context(), id, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subject)
}

func (h *SubjectHandler) listChapters(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	chapters, err := h.subjectService.ListSubjectChapters(r.Context(), id, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, chapters)
}

func (h *SubjectHandler) createSubject(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSubjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	subject, err := h.subjectService.CreateSubject(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusCreated, "Subject created successfully", subject.ID)
}

func (h *SubjectHandler) deleteSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.subjectService.DeleteSubject(r.Context(), id); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Subject deleted successfully", 0)
}
