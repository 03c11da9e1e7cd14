package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resumegen/internal/llm"
	"resumegen/internal/models"
	"resumegen/internal/prompts"
	"resumegen/internal/repositories"
	"resumegen/internal/utils"
)

// AIHandler wraps the text-completion provider behind the resume endpoints.
// The provider either returns usable content or the caller gets a clean
// failure; garbled partial output is never forwarded.
type AIHandler struct {
	provider      llm.Provider
	promptManager prompts.PromptProvider
	resumes       *repositories.ResumeRepository
	logger        *zap.Logger
}

func NewAIHandler(provider llm.Provider, promptManager prompts.PromptProvider, resumes *repositories.ResumeRepository, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		provider:      provider,
		promptManager: promptManager,
		resumes:       resumes,
		logger:        logger,
	}
}

// GenerateContent produces resume bullet points for a job description.
func (h *AIHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.resumes.GetByID(id, userID); err != nil {
		h.writeResumeErr(w, err)
		return
	}

	var req models.GenerateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	h.generate(w, r, "generate_content", map[string]string{
		"JobDescription": req.JobDescription,
		"Skills":         strings.Join(req.Skills, ", "),
		"Experience":     req.Experience,
	})
}

// Optimize rewrites the stored resume content for impact and readability.
func (h *AIHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resume, err := h.resumes.GetByID(id, userID)
	if err != nil {
		h.writeResumeErr(w, err)
		return
	}
	h.generate(w, r, "optimize", map[string]string{
		"Content": resume.Content,
	})
}

// SuggestSkills returns a list of skills relevant to a job description.
func (h *AIHandler) SuggestSkills(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestSkillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	if req.JobDescription == "" {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", "jobDescription is required")
		return
	}

	requestID := uuid.New().String()
	prompt, err := h.promptManager.BuildPrompt("suggest_skills", map[string]string{
		"JobDescription": req.JobDescription,
	})
	if err != nil {
		h.logger.Error("failed to build prompt", zap.Error(err), zap.String("request_id", requestID))
		utils.Error(w, http.StatusInternalServerError, "prompt_error", "failed to build AI prompt")
		return
	}

	response, err := h.provider.GenerateContent(r.Context(), prompt, requestID)
	if err != nil {
		h.logger.Error("AI provider error", zap.Error(err), zap.String("request_id", requestID))
		utils.Error(w, http.StatusBadGateway, "ai_error", "failed to suggest skills")
		return
	}

	var skills []string
	for _, s := range strings.Split(response.Content, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	utils.JSON(w, http.StatusOK, map[string]any{"skills": skills, "requestId": requestID})
}

// CoverLetter generates a cover letter from a stored resume.
func (h *AIHandler) CoverLetter(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resume, err := h.resumes.GetByID(id, userID)
	if err != nil {
		h.writeResumeErr(w, err)
		return
	}

	var req models.CoverLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	h.generate(w, r, "cover_letter", map[string]string{
		"Content":        resume.Content,
		"JobDescription": req.JobDescription,
		"CompanyName":    req.CompanyName,
	})
}

func (h *AIHandler) generate(w http.ResponseWriter, r *http.Request, mode string, vars map[string]string) {
	requestID := uuid.New().String()

	prompt, err := h.promptManager.BuildPrompt(mode, vars)
	if err != nil {
		h.logger.Error("failed to build prompt", zap.Error(err), zap.String("mode", mode), zap.String("request_id", requestID))
		utils.Error(w, http.StatusInternalServerError, "prompt_error", "failed to build AI prompt")
		return
	}

	response, err := h.provider.GenerateContent(r.Context(), prompt, requestID)
	if err != nil {
		h.logger.Error("AI provider error", zap.Error(err), zap.String("mode", mode), zap.String("request_id", requestID))
		utils.Error(w, http.StatusBadGateway, "ai_error", "failed to generate content")
		return
	}

	h.logger.Info("content generated",
		zap.String("mode", mode),
		zap.String("request_id", requestID),
		zap.String("provider", h.provider.GetProviderName()),
		zap.Int("processing_time_ms", response.Metadata.ProcessingTime))

	utils.JSON(w, http.StatusOK, response)
}

func (h *AIHandler) writeResumeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, repositories.ErrResumeNotFound) {
		utils.Error(w, http.StatusNotFound, "not_found", "resume not found")
		return
	}
	utils.Error(w, http.StatusInternalServerError, "storage_error", "failed to load resume")
}
