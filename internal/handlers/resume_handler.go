package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"resumegen/internal/middleware"
	"resumegen/internal/models"
	"resumegen/internal/repositories"
	"resumegen/internal/utils"
)

// ResumeHandler serves the resume CRUD surface. Collaborative edits never
// pass through here; clients save explicitly via PUT.
type ResumeHandler struct {
	Repo *repositories.ResumeRepository
	Log  *zap.Logger
}

func NewResumeHandler(repo *repositories.ResumeRepository, log *zap.Logger) *ResumeHandler {
	return &ResumeHandler{Repo: repo, Log: log}
}

func (h *ResumeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	resumes, err := h.Repo.ListByUser(userID)
	if err != nil {
		h.Log.Error("list resumes failed", zap.Uint("userId", userID), zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to list resumes")
		return
	}
	utils.JSON(w, http.StatusOK, resumes)
}

func (h *ResumeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resume, err := h.Repo.GetByID(id, userID)
	if errors.Is(err, repositories.ErrResumeNotFound) {
		utils.Error(w, http.StatusNotFound, "not_found", "resume not found")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to load resume")
		return
	}
	utils.JSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req models.CreateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if req.Title == "" {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", "title is required")
		return
	}
	resume := &models.Resume{
		Title:      req.Title,
		Content:    req.Content,
		TemplateID: req.TemplateID,
		UserID:     userID,
	}
	if err := h.Repo.Create(resume); err != nil {
		h.Log.Error("create resume failed", zap.Uint("userId", userID), zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to create resume")
		return
	}
	utils.JSON(w, http.StatusCreated, resume)
}

func (h *ResumeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	resume, err := h.Repo.Update(id, userID, &models.Resume{Title: req.Title, Content: req.Content})
	if errors.Is(err, repositories.ErrResumeNotFound) {
		utils.Error(w, http.StatusNotFound, "not_found", "resume not found")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to update resume")
		return
	}
	utils.JSON(w, http.StatusOK, resume)
}

func (h *ResumeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.Repo.Delete(id, userID)
	if errors.Is(err, repositories.ErrResumeNotFound) {
		utils.Error(w, http.StatusNotFound, "not_found", "resume not found")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to delete resume")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerID reads the verified identity placed in context by RequireAuth.
func callerID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := middleware.UserID(r.Context())
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.Error(w, http.StatusUnauthorized, "unauthorized", "invalid identity")
		return 0, false
	}
	return uint(id), true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_id", "resume id must be numeric")
		return 0, false
	}
	return uint(id), true
}
