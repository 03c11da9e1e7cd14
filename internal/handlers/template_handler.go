package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"resumegen/internal/models"
	"resumegen/internal/repositories"
	"resumegen/internal/utils"
)

type TemplateHandler struct {
	Repo *repositories.TemplateRepository
}

func (h *TemplateHandler) List(w http.ResponseWriter, _ *http.Request) {
	templates, err := h.Repo.ListActive()
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to list templates")
		return
	}
	utils.JSON(w, http.StatusOK, templates)
}

type ProfileHandler struct {
	Repo *repositories.ProfileRepository
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	profile, err := h.Repo.GetByUserID(userID)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		utils.Error(w, http.StatusNotFound, "not_found", "profile not found")
		return
	}
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to load profile")
		return
	}
	utils.JSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	profile.UserID = userID
	if err := h.Repo.Upsert(&profile); err != nil {
		utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to save profile")
		return
	}
	utils.JSON(w, http.StatusOK, profile)
}
